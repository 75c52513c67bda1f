package constants

import "time"

const (
	// ServiceName 服务名称，用于日志、追踪和指标
	ServiceName = "resume-ranker"

	// DefaultCSVFileName 默认结果文件名
	DefaultCSVFileName = "resume_scores.csv"

	// 结果相关的访问路径
	DownloadURL     = "/download-resume-scores"
	DownloadXLSXURL = "/download-resume-scores.xlsx"
	ViewResultsURL  = "/view-results"

	// 批次历史，:id 为批次号
	BatchURL        = "/batches/:id"
	BatchArchiveURL = "/batches/:id/csv"

	// CriteriaCacheDuration 模型提取的招聘条件缓存时长
	CriteriaCacheDuration = 24 * time.Hour
)

// 支持的文档 MIME 类型
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeDOC  = "application/msword"
)

// 返回给调用方的固定提示
const (
	MsgOnlyPDFAndDOCX      = "Only PDF and DOCX files are supported."
	MsgNoTextExtracted     = "No text extracted from the document."
	MsgUnsupportedFileType = "Unsupported file type: %s"
	MsgNoTextExtractedFrom = "No text extracted from %s"
	MsgNoCategoryProvided  = "At least one category (skills, experience, certifications, qualifications) must be provided."
	MsgNoCriteriaProvided  = "No job criteria provided."
	MsgNoFilesUploaded     = "No files uploaded."
	MsgRankCompleted       = "Scoring completed!"
	MsgScoreCompleted      = "Scoring completed! Data saved."
)

// 评分策略名称
const (
	StrategyKeyword = "keyword"
	StrategyModel   = "model"
)
