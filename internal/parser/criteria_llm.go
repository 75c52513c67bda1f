package parser

import (
	"context"
	"fmt"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/types"
)

// Completer 补全服务：发送 prompt，返回模型文本
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMCriteriaExtractor 通过补全服务提取招聘条件
type LLMCriteriaExtractor struct {
	completer Completer
}

// NewLLMCriteriaExtractor 创建 LLM 条件提取器
func NewLLMCriteriaExtractor(completer Completer) *LLMCriteriaExtractor {
	return &LLMCriteriaExtractor{completer: completer}
}

// Name 提取器名称
func (e *LLMCriteriaExtractor) Name() string { return "llm" }

// Extract 请求模型返回 {"criteria": [...]}
// JSON 解析失败时按行拆分原始输出；调用失败或没有可用条件时返回 [types.CriteriaExtractionFailed]
// 补全服务错误不会向上返回
func (e *LLMCriteriaExtractor) Extract(ctx context.Context, jobText string) ([]string, error) {
	log := logger.Ctx(ctx)

	raw, err := e.completer.Complete(ctx, fmt.Sprintf(criteriaPromptTemplate, jobText))
	if err != nil {
		log.Warn().Err(err).Msg("LLM提取招聘条件失败")
		return []string{types.CriteriaExtractionFailed}, nil
	}

	var criteria []string
	obj, parseErr := DecodeJSONObject(raw)
	if parseErr == nil {
		criteria = CoerceStringList(obj["criteria"])
	} else {
		log.Warn().Err(parseErr).Int("raw_length", len(raw)).Msg("招聘条件JSON解析失败，按行拆分原始输出")
		criteria = splitLines(CleanModelOutput(raw))
	}

	criteria = types.UsableCriteria(criteria)
	if len(criteria) == 0 {
		log.Warn().Msg("LLM没有返回可用的招聘条件")
		return []string{types.CriteriaExtractionFailed}, nil
	}
	return criteria, nil
}
