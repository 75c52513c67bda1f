package parser

import (
	"context"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/metrics"
	"resume-ranker/internal/types"
	"resume-ranker/pkg/utils"
)

// CriteriaExtractor 从职位描述文本中提取招聘条件
type CriteriaExtractor interface {
	Extract(ctx context.Context, jobText string) ([]string, error)
}

// CriteriaCache 招聘条件缓存，键为职位描述文本的 MD5
// Get 未命中时返回 (nil, false, nil)
type CriteriaCache interface {
	GetCriteria(ctx context.Context, textMD5 string) ([]string, bool, error)
	SetCriteria(ctx context.Context, textMD5 string, criteria []string) error
}

// CachingCriteriaExtractor 为任意条件提取器加缓存；哨兵结果不缓存，缓存故障只记日志
type CachingCriteriaExtractor struct {
	next  CriteriaExtractor
	cache CriteriaCache
}

// NewCachingCriteriaExtractor 创建带缓存的条件提取器
func NewCachingCriteriaExtractor(next CriteriaExtractor, cache CriteriaCache) *CachingCriteriaExtractor {
	return &CachingCriteriaExtractor{next: next, cache: cache}
}

// Extract 先查缓存，未命中再调用下游提取器
func (c *CachingCriteriaExtractor) Extract(ctx context.Context, jobText string) ([]string, error) {
	log := logger.Ctx(ctx)
	key := utils.CalculateTextMD5(jobText)

	cached, ok, err := c.cache.GetCriteria(ctx, key)
	switch {
	case err != nil:
		metrics.CriteriaCacheLookups.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("md5", key).Msg("读取招聘条件缓存失败")
	case ok && len(types.UsableCriteria(cached)) > 0:
		metrics.CriteriaCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.CriteriaCacheLookups.WithLabelValues("miss").Inc()
	}

	criteria, err := c.next.Extract(ctx, jobText)
	if err != nil {
		return nil, err
	}

	if len(types.UsableCriteria(criteria)) == len(criteria) && len(criteria) > 0 {
		if err := c.cache.SetCriteria(ctx, key, criteria); err != nil {
			log.Warn().Err(err).Str("md5", key).Msg("写入招聘条件缓存失败")
		}
	}
	return criteria, nil
}
