package scoring

import (
	"context"

	"resume-ranker/internal/types"
)

// Strategy 评分策略：把简历文本和招聘条件转换为四个类别的分数
// 实现不会返回错误，失败时降级为零分
type Strategy interface {
	Name() string
	Score(ctx context.Context, resumeText string, criteria types.JobCriteria) types.CategoryScores
}

var (
	_ Strategy = (*KeywordScoring)(nil)
	_ Strategy = (*ModelScoring)(nil)
)
