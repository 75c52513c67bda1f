package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"resume-ranker/internal/constants"
	"resume-ranker/internal/logger"
	"resume-ranker/internal/parser"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/results"
	"resume-ranker/internal/scoring"
	"resume-ranker/internal/storage"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"
)

// Ranker 批次评分服务
type Ranker interface {
	ExtractCriteria(ctx context.Context, file types.UploadedFile) ([]string, error)
	RankBatch(ctx context.Context, req processor.BatchRequest) (types.ResultSet, error)
	ResultFileName() string
}

// ResultReader 读取结果文件
type ResultReader interface {
	Read(ctx context.Context) ([]string, [][]string, error)
	Bytes(ctx context.Context) ([]byte, error)
}

var _ Ranker = (*processor.Ranker)(nil)
var _ ResultReader = (*results.CSVStore)(nil)

// ScoreHandler 评分相关的 HTTP 处理器
type ScoreHandler struct {
	ranker        Ranker
	reader        ResultReader
	rankStrategy  scoring.Strategy
	modelStrategy scoring.Strategy // 补全服务未配置时为 nil
}

// NewScoreHandler 创建评分处理器
// rankStrategy 用于 /rank-resumes，modelStrategy 用于 /score-resumes
func NewScoreHandler(ranker Ranker, reader ResultReader, rankStrategy, modelStrategy scoring.Strategy) *ScoreHandler {
	return &ScoreHandler{
		ranker:        ranker,
		reader:        reader,
		rankStrategy:  rankStrategy,
		modelStrategy: modelStrategy,
	}
}

// ScoreResponse 评分接口的响应体
type ScoreResponse struct {
	Message     string           `json:"message"`
	BatchID     string           `json:"batch_id"`
	CSVFileName string           `json:"csv_filename"`
	DownloadURL string           `json:"download_url"`
	ViewResults string           `json:"view_results"`
	Scores      []types.ScoreRow `json:"scores"`
}

// ExtractCriteria POST /extract-criteria
func (h *ScoreHandler) ExtractCriteria(ctx context.Context, c *app.RequestContext) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(ctx, c, types.NewValidationError(constants.MsgNoFilesUploaded))
		return
	}
	file, err := readUploadedFile(fh)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	criteria, err := h.ranker.ExtractCriteria(ctx, file)
	if err != nil {
		writeError(ctx, c, criteriaClientError(err))
		return
	}
	c.JSON(consts.StatusOK, utils.H{"criteria": criteria})
}

// criteriaClientError 职位描述接口使用不含文件名的固定提示
func criteriaClientError(err error) error {
	var extErr *types.ExtractionError
	if !errors.As(err, &extErr) {
		return err
	}
	switch extErr.Op {
	case "detect":
		return types.NewUnsupportedTypeError(extErr.FileName, extErr.MIMEType, constants.MsgOnlyPDFAndDOCX)
	case "extract":
		return types.NewEmptyTextError(extErr.FileName, extErr.MIMEType, constants.MsgNoTextExtracted)
	}
	return err
}

// RankResumes POST /rank-resumes
func (h *ScoreHandler) RankResumes(ctx context.Context, c *app.RequestContext) {
	form, err := c.MultipartForm()
	if err != nil {
		writeError(ctx, c, types.NewValidationError(constants.MsgNoFilesUploaded))
		return
	}

	criteria := types.CategorizedCriteria{
		Skills:         formValues(c, form, "skills"),
		Experience:     formValues(c, form, "experience"),
		Certifications: formValues(c, form, "certifications"),
		Qualifications: formValues(c, form, "qualifications"),
	}
	if criteria.IsEmpty() {
		writeError(ctx, c, types.NewValidationError(constants.MsgNoCategoryProvided))
		return
	}

	files, err := readUploadedFiles(form, "files")
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	set, err := h.ranker.RankBatch(ctx, processor.BatchRequest{
		Files:    files,
		Criteria: types.JobCriteria{Categorized: criteria},
		Strategy: h.rankStrategy,
		Label:    types.LabelCandidateName,
		Policy:   results.PolicyOverwrite,
	})
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, h.response(constants.MsgRankCompleted, set))
}

// ScoreResumes POST /score-resumes
func (h *ScoreHandler) ScoreResumes(ctx context.Context, c *app.RequestContext) {
	if h.modelStrategy == nil {
		writeError(ctx, c, types.ErrCompletionUnavailable)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		writeError(ctx, c, types.NewValidationError(constants.MsgNoFilesUploaded))
		return
	}

	criteria := types.UsableCriteria(formValues(c, form, "criteria"))
	if len(criteria) == 0 {
		writeError(ctx, c, types.NewValidationError(constants.MsgNoCriteriaProvided))
		return
	}
	var jobDescription string
	if jd := formValues(c, form, "job_description"); len(jd) > 0 {
		jobDescription = jd[0]
	}

	files, err := readUploadedFiles(form, "files")
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	set, err := h.ranker.RankBatch(ctx, processor.BatchRequest{
		Files:    files,
		Criteria: types.JobCriteria{Flat: criteria, JobDescription: jobDescription},
		Strategy: h.modelStrategy,
		Label:    types.LabelFileName,
		Policy:   results.PolicyAppend,
	})
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, h.response(constants.MsgScoreCompleted, set))
}

func (h *ScoreHandler) response(message string, set types.ResultSet) ScoreResponse {
	return ScoreResponse{
		Message:     message,
		BatchID:     set.BatchID,
		CSVFileName: h.ranker.ResultFileName(),
		DownloadURL: constants.DownloadURL,
		ViewResults: constants.ViewResultsURL,
		Scores:      set.ScoreRows(),
	}
}

// ViewResults GET /view-results
func (h *ScoreHandler) ViewResults(ctx context.Context, c *app.RequestContext) {
	header, rows, err := h.reader.Read(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	var buf bytes.Buffer
	err = results.RenderHTML(&buf, results.PageData{
		Title:       "Resume Scores",
		Header:      header,
		Rows:        rows,
		DownloadURL: constants.DownloadURL,
		XLSXURL:     constants.DownloadXLSXURL,
	})
	if err != nil {
		writeError(ctx, c, fmt.Errorf("渲染结果页面失败: %w", err))
		return
	}
	c.Data(consts.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// DownloadCSV GET /download-resume-scores
func (h *ScoreHandler) DownloadCSV(ctx context.Context, c *app.RequestContext) {
	data, err := h.reader.Bytes(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.ranker.ResultFileName()))
	c.Data(consts.StatusOK, "text/csv", data)
}

// DownloadXLSX GET /download-resume-scores.xlsx
func (h *ScoreHandler) DownloadXLSX(ctx context.Context, c *app.RequestContext) {
	header, rows, err := h.reader.Read(ctx)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	data, err := results.ExportXLSX(header, rows)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	name := strings.TrimSuffix(h.ranker.ResultFileName(), ".csv") + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(consts.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Health GET /health
func (h *ScoreHandler) Health(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// formValues 收集表单和查询参数中同名字段的全部非空值
func formValues(c *app.RequestContext, form *multipart.Form, key string) []string {
	var out []string
	if form != nil {
		for _, v := range form.Value[key] {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	for _, raw := range c.QueryArgs().PeekAll(key) {
		if v := strings.TrimSpace(string(raw)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func readUploadedFiles(form *multipart.Form, field string) ([]types.UploadedFile, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, types.NewValidationError(constants.MsgNoFilesUploaded)
	}
	files := make([]types.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readUploadedFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// readUploadedFile 读取上传文件，MIME 类型取自该部分的 Content-Type 头
func readUploadedFile(fh *multipart.FileHeader) (types.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return types.UploadedFile{}, fmt.Errorf("打开上传文件 %s 失败: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return types.UploadedFile{}, fmt.Errorf("读取上传文件 %s 失败: %w", fh.Filename, err)
	}
	return types.UploadedFile{
		FileName: fh.Filename,
		MIMEType: parser.NormalizeMIMEType(fh.Header.Get("Content-Type")),
		Data:     data,
	}, nil
}

// writeError 按错误类别映射状态码，响应体为 {"detail": ...}
func writeError(ctx context.Context, c *app.RequestContext, err error) {
	status := consts.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrExtraction), errors.Is(err, types.ErrValidation):
		status = consts.StatusBadRequest
	case errors.Is(err, types.ErrCompletionUnavailable), errors.Is(err, errHistoryUnavailable):
		status = consts.StatusServiceUnavailable
	case errors.Is(err, storage.ErrBatchNotFound), errors.Is(err, errArchiveNotFound):
		status = consts.StatusNotFound
	}
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)

	event := logger.Ctx(ctx).Warn()
	if status >= consts.StatusInternalServerError {
		event = logger.Ctx(ctx).Error()
	}
	event.Err(err).Int("status", status).Str("path", string(c.Path())).Msg("请求处理失败")

	c.JSON(status, utils.H{"detail": types.ClientMessage(err)})
}
