package scoring

import (
	"context"

	"resume-ranker/internal/constants"
	"resume-ranker/internal/logger"
	"resume-ranker/internal/metrics"
	"resume-ranker/internal/parser"
	"resume-ranker/internal/types"
)

// DetailsExtractor 从简历文本中抽取结构化要素
type DetailsExtractor interface {
	ExtractDetails(ctx context.Context, resumeText string) types.ResumeDetails
}

// 模型返回的四个分数字段
var scoreFields = [4]string{
	"skills_score",
	"experience_score",
	"certifications_score",
	"qualifications_score",
}

// ModelScoring 通过补全服务打分
// 每次评分先抽取简历要素，再发起一次评分调用；任何失败都降级为 0 分
type ModelScoring struct {
	completer parser.Completer
	details   DetailsExtractor
}

// NewModelScoring 创建模型评分策略
func NewModelScoring(completer parser.Completer, details DetailsExtractor) *ModelScoring {
	return &ModelScoring{completer: completer, details: details}
}

// Name 策略名称
func (m *ModelScoring) Name() string { return constants.StrategyModel }

// Score 抽取简历要素后评分
func (m *ModelScoring) Score(ctx context.Context, resumeText string, criteria types.JobCriteria) types.CategoryScores {
	details := m.details.ExtractDetails(ctx, resumeText)
	return m.score(ctx, types.UsableCriteria(criteria.All()), criteria.JobDescription, details)
}

// ScoreDetails 根据招聘条件和已抽取的简历要素评分，从不返回错误
func (m *ModelScoring) ScoreDetails(ctx context.Context, criteria []string, details types.ResumeDetails) types.CategoryScores {
	return m.score(ctx, criteria, "", details)
}

func (m *ModelScoring) score(ctx context.Context, criteria []string, jobDescription string, details types.ResumeDetails) types.CategoryScores {
	log := logger.Ctx(ctx)

	raw, err := m.completer.Complete(ctx, buildScorePrompt(criteria, jobDescription, details))
	if err != nil {
		metrics.ModelScoreDegraded.WithLabelValues("call_failed").Inc()
		log.Warn().Err(err).Msg("模型评分调用失败，按0分处理")
		return types.ZeroScores()
	}

	obj, err := parser.DecodeJSONObject(raw)
	if err != nil {
		metrics.ModelScoreDegraded.WithLabelValues("unparseable").Inc()
		log.Warn().Err(err).Int("raw_length", len(raw)).Msg("模型评分结果无法解析，按0分处理")
		return types.ZeroScores()
	}

	var values [4]int
	for i, field := range scoreFields {
		v, present := obj[field]
		if !present {
			metrics.ModelScoreDegraded.WithLabelValues("missing_field").Inc()
			log.Warn().Str("field", field).Msg("模型评分缺少字段，按0分处理")
			continue
		}
		n, ok := parser.CoerceInt(v)
		if !ok {
			metrics.ModelScoreDegraded.WithLabelValues("not_numeric").Inc()
			log.Warn().Str("field", field).Interface("value", v).Msg("模型评分字段不是数字，按0分处理")
			continue
		}
		if n != types.ClampScore(n) {
			metrics.ModelScoreDegraded.WithLabelValues("out_of_range").Inc()
			log.Warn().Str("field", field).Int("raw", n).Msg("模型评分越界，已截断到0-5")
		}
		values[i] = n
	}

	return types.NewCategoryScores(values[0], values[1], values[2], values[3])
}
