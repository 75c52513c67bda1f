package processor

import (
	"context"

	"resume-ranker/internal/results"
	"resume-ranker/internal/scoring"
	"resume-ranker/internal/types"
)

//
// 文档解析相关接口
//

// TextExtractor 从上传的文档中提取纯文本
// 类型不支持、文档损坏或没有文本时返回 *types.ExtractionError
type TextExtractor interface {
	Extract(ctx context.Context, file types.UploadedFile) (string, error)
}

// CriteriaExtractor 从职位描述中提取招聘条件
type CriteriaExtractor interface {
	Extract(ctx context.Context, jobText string) ([]string, error)
}

//
// 结果存储相关接口
//

// ResultWriter 批次结果的持久化存储
type ResultWriter interface {
	Write(ctx context.Context, set types.ResultSet, policy results.WritePolicy) error
	FileName() string
}

// BatchObserver 批次写入成功后的附加处理（归档、历史记录、事件通知）
// 返回的错误只记录日志，不影响请求结果
type BatchObserver interface {
	OnBatchScored(ctx context.Context, set types.ResultSet, strategy string) error
}

// BatchRequest 一次评分请求
type BatchRequest struct {
	Files    []types.UploadedFile
	Criteria types.JobCriteria
	Strategy scoring.Strategy
	Label    types.LabelColumn
	Policy   results.WritePolicy
}
