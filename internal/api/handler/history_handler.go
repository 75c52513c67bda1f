package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/storage"
	"resume-ranker/internal/storage/models"
	"resume-ranker/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// DefaultArchiveURLExpiry 归档快照预签名地址的默认有效期
const DefaultArchiveURLExpiry = 15 * time.Minute

var (
	errHistoryUnavailable = errors.New("score history is not configured")
	errArchiveNotFound    = errors.New("no archived snapshot for this batch")
)

// BatchHistory 评分历史查询
type BatchHistory interface {
	GetScoreBatch(ctx context.Context, batchID string) (models.ScoreBatch, error)
}

// ArchiveReader 读取批次的 CSV 归档快照
type ArchiveReader interface {
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)
}

var (
	_ BatchHistory  = (*storage.MySQL)(nil)
	_ ArchiveReader = (*storage.MinIO)(nil)
)

// HistoryHandler 查询已保存的评分批次
type HistoryHandler struct {
	history   BatchHistory
	archive   ArchiveReader // 未配置对象存储时为 nil
	urlExpiry time.Duration
}

// NewHistoryHandler 创建历史查询处理器
func NewHistoryHandler(history BatchHistory, archive ArchiveReader, urlExpiry time.Duration) *HistoryHandler {
	if urlExpiry <= 0 {
		urlExpiry = DefaultArchiveURLExpiry
	}
	return &HistoryHandler{history: history, archive: archive, urlExpiry: urlExpiry}
}

// BatchResponse 批次历史的响应体
type BatchResponse struct {
	BatchID     string           `json:"batch_id"`
	Strategy    string           `json:"strategy"`
	LabelColumn string           `json:"label_column"`
	ResumeCount int              `json:"resume_count"`
	Criteria    []string         `json:"criteria"`
	CSVFileName string           `json:"csv_filename"`
	ArchiveURL  string           `json:"archive_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Scores      []types.ScoreRow `json:"scores"`
}

// GetBatch GET /batches/:id
func (h *HistoryHandler) GetBatch(ctx context.Context, c *app.RequestContext) {
	batch, err := h.loadBatch(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	resp := BatchResponse{
		BatchID:     batch.BatchID,
		Strategy:    batch.Strategy,
		LabelColumn: batch.LabelColumn,
		ResumeCount: batch.ResumeCount,
		Criteria:    []string{},
		CSVFileName: batch.CSVFile,
		CreatedAt:   batch.CreatedAt,
		Scores:      batchResultSet(batch).ScoreRows(),
	}
	if len(batch.CriteriaJSON) > 0 {
		if err := json.Unmarshal(batch.CriteriaJSON, &resp.Criteria); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("batch_id", batch.BatchID).Msg("批次招聘条件无法解析")
		}
	}
	if batch.ArchiveKey != "" && h.archive != nil {
		url, err := h.archive.GetPresignedURL(ctx, batch.ArchiveKey, h.urlExpiry)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("object", batch.ArchiveKey).Msg("生成归档下载地址失败")
		} else {
			resp.ArchiveURL = url
		}
	}
	c.JSON(consts.StatusOK, resp)
}

// DownloadArchive GET /batches/:id/csv，返回该批次写入后归档的 CSV 快照
func (h *HistoryHandler) DownloadArchive(ctx context.Context, c *app.RequestContext) {
	batch, err := h.loadBatch(ctx, c.Param("id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if batch.ArchiveKey == "" || h.archive == nil {
		writeError(ctx, c, fmt.Errorf("%w: %s", errArchiveNotFound, batch.BatchID))
		return
	}

	data, err := h.archive.DownloadFile(ctx, batch.ArchiveKey)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, batch.BatchID))
	c.Data(consts.StatusOK, "text/csv", data)
}

func (h *HistoryHandler) loadBatch(ctx context.Context, batchID string) (models.ScoreBatch, error) {
	if h == nil || h.history == nil {
		return models.ScoreBatch{}, errHistoryUnavailable
	}
	if batchID == "" {
		return models.ScoreBatch{}, types.NewValidationError("batch id is required")
	}
	return h.history.GetScoreBatch(ctx, batchID)
}

// batchResultSet 把历史记录还原为结果集，行标签沿用批次保存时的列
func batchResultSet(batch models.ScoreBatch) types.ResultSet {
	set := types.ResultSet{
		BatchID: batch.BatchID,
		Label:   types.LabelColumn(batch.LabelColumn),
		Results: make([]types.CandidateResult, 0, len(batch.Records)),
	}
	for _, r := range batch.Records {
		set.Results = append(set.Results, types.CandidateResult{
			FileName:      r.FileName,
			CandidateName: r.CandidateName,
			Scores: types.CategoryScores{
				Skills:         r.SkillsScore,
				Experience:     r.ExperienceScore,
				Certifications: r.CertificationsScore,
				Qualifications: r.QualificationsScore,
				Total:          r.TotalScore,
			},
		})
	}
	return set
}
