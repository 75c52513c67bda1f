package scoring

import (
	"context"
	"strings"

	"resume-ranker/internal/constants"
	"resume-ranker/internal/types"
)

// KeywordScoring 按关键词出现次数打分，每个类别最多 5 分
type KeywordScoring struct{}

// NewKeywordScoring 创建关键词评分策略
func NewKeywordScoring() *KeywordScoring {
	return &KeywordScoring{}
}

// Name 策略名称
func (k *KeywordScoring) Name() string { return constants.StrategyKeyword }

// Score 使用分类条件打分；只有扁平条件时全部计入技能类别
func (k *KeywordScoring) Score(_ context.Context, resumeText string, criteria types.JobCriteria) types.CategoryScores {
	categorized := criteria.Categorized
	if categorized.IsEmpty() && len(criteria.Flat) > 0 {
		categorized.Skills = types.UsableCriteria(criteria.Flat)
	}
	return k.ScoreCategories(resumeText, categorized)
}

// ScoreCategories 对每个类别统计各关键词在简历中出现的次数（不区分大小写，不去重），截断到 5
func (k *KeywordScoring) ScoreCategories(resumeText string, c types.CategorizedCriteria) types.CategoryScores {
	lower := strings.ToLower(resumeText)
	return types.NewCategoryScores(
		countTerms(lower, c.Skills),
		countTerms(lower, c.Experience),
		countTerms(lower, c.Certifications),
		countTerms(lower, c.Qualifications),
	)
}

func countTerms(lowerText string, terms []string) int {
	total := 0
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		// strings.Count 对空串返回 len+1
		if term == "" {
			continue
		}
		total += strings.Count(lowerText, term)
		if total > types.MaxCategoryScore {
			return types.MaxCategoryScore
		}
	}
	return total
}
