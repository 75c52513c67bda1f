package parser

import (
	"context"
	"strings"

	"resume-ranker/internal/types"
)

// criteriaKeywords 出现任意一个即视为招聘条件行
var criteriaKeywords = []string{"experience", "certification", "skill", "qualification"}

// KeywordCriteriaExtractor 按关键词筛选职位描述中的行
type KeywordCriteriaExtractor struct{}

// NewKeywordCriteriaExtractor 创建关键词条件提取器
func NewKeywordCriteriaExtractor() *KeywordCriteriaExtractor {
	return &KeywordCriteriaExtractor{}
}

// Name 提取器名称
func (k *KeywordCriteriaExtractor) Name() string { return "keyword" }

// Extract 返回包含关键词的行（去掉首尾空白，保持原顺序）
// 一行都没有时返回 [types.NoCriteriaFound]，不会返回空列表
func (k *KeywordCriteriaExtractor) Extract(ctx context.Context, jobText string) ([]string, error) {
	var criteria []string
	for _, line := range strings.Split(jobText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range criteriaKeywords {
			if strings.Contains(lower, kw) {
				criteria = append(criteria, line)
				break
			}
		}
	}
	if len(criteria) == 0 {
		return []string{types.NoCriteriaFound}, nil
	}
	return criteria, nil
}
