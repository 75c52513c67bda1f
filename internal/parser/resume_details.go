package parser

import (
	"context"
	"fmt"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/metrics"
	"resume-ranker/internal/types"
)

// LLMResumeDetailsExtractor 通过补全服务从简历中抽取技能、年限、证书和学历
type LLMResumeDetailsExtractor struct {
	completer Completer
}

// NewLLMResumeDetailsExtractor 创建简历要素抽取器
func NewLLMResumeDetailsExtractor(completer Completer) *LLMResumeDetailsExtractor {
	return &LLMResumeDetailsExtractor{completer: completer}
}

// ExtractDetails 抽取简历要素，从不返回错误
// 调用或解析失败时返回 types.EmptyResumeDetails()，缺失字段单独降级
func (e *LLMResumeDetailsExtractor) ExtractDetails(ctx context.Context, resumeText string) types.ResumeDetails {
	log := logger.Ctx(ctx)

	raw, err := e.completer.Complete(ctx, fmt.Sprintf(resumeDetailsPromptTemplate, resumeText))
	if err != nil {
		metrics.ModelScoreDegraded.WithLabelValues("details_call_failed").Inc()
		log.Warn().Err(err).Msg("简历要素抽取调用失败，使用空结果")
		return types.EmptyResumeDetails()
	}

	obj, err := DecodeJSONObject(raw)
	if err != nil {
		metrics.ModelScoreDegraded.WithLabelValues("details_unparseable").Inc()
		log.Warn().Err(err).Int("raw_length", len(raw)).Msg("简历要素JSON解析失败，使用空结果")
		return types.EmptyResumeDetails()
	}

	details := types.EmptyResumeDetails()
	details.Skills = CoerceStringList(obj["skills"])
	details.Certifications = CoerceStringList(obj["certifications"])
	details.Qualifications = CoerceStringList(obj["qualifications"])
	if exp := CoerceString(obj["experience"]); exp != "" {
		details.Experience = exp
	}
	return details
}
