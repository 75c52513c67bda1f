package parser

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"resume-ranker/internal/constants"
	"resume-ranker/internal/logger"
	"resume-ranker/internal/metrics"
	"resume-ranker/internal/types"
)

// FormatExtractor 从单一格式的文档字节中提取纯文本
type FormatExtractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType, uri string) (string, error)
}

// DocumentExtractor 按 MIME 类型分派到具体的格式提取器
// 只接受 PDF、DOCX 和 DOC，其他类型返回 ExtractionError
type DocumentExtractor struct {
	byMIME  map[string]FormatExtractor
	timeout time.Duration
}

// DocumentOption DocumentExtractor 的配置选项
type DocumentOption func(*DocumentExtractor)

// WithFormatExtractor 为指定 MIME 类型注册提取器
func WithFormatExtractor(mimeType string, extractor FormatExtractor) DocumentOption {
	return func(d *DocumentExtractor) {
		d.byMIME[NormalizeMIMEType(mimeType)] = extractor
	}
}

// WithExtractTimeout 设置单个文档的提取超时
func WithExtractTimeout(timeout time.Duration) DocumentOption {
	return func(d *DocumentExtractor) {
		d.timeout = timeout
	}
}

// NewDocumentExtractor 创建文档提取器
func NewDocumentExtractor(options ...DocumentOption) *DocumentExtractor {
	d := &DocumentExtractor{
		byMIME:  make(map[string]FormatExtractor),
		timeout: 60 * time.Second,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// NewBuiltinDocumentExtractor PDF 使用 Eino 解析，DOCX/DOC 使用内置 OOXML 解析
func NewBuiltinDocumentExtractor(pdfExtractor FormatExtractor, options ...DocumentOption) *DocumentExtractor {
	docx := NewDocxTextExtractor()
	opts := []DocumentOption{
		WithFormatExtractor(constants.MIMETypePDF, pdfExtractor),
		WithFormatExtractor(constants.MIMETypeDOCX, docx),
		WithFormatExtractor(constants.MIMETypeDOC, docx),
	}
	return NewDocumentExtractor(append(opts, options...)...)
}

// NewTikaDocumentExtractor 三种类型都交给 Tika 服务
func NewTikaDocumentExtractor(tika FormatExtractor, options ...DocumentOption) *DocumentExtractor {
	opts := []DocumentOption{
		WithFormatExtractor(constants.MIMETypePDF, tika),
		WithFormatExtractor(constants.MIMETypeDOCX, tika),
		WithFormatExtractor(constants.MIMETypeDOC, tika),
	}
	return NewDocumentExtractor(append(opts, options...)...)
}

// Supports 判断 MIME 类型是否受支持
func (d *DocumentExtractor) Supports(mimeType string) bool {
	_, ok := d.byMIME[NormalizeMIMEType(mimeType)]
	return ok
}

// Extract 提取上传文档的文本
// 不支持的类型、解析失败以及提取结果为空都返回 *types.ExtractionError
func (d *DocumentExtractor) Extract(ctx context.Context, file types.UploadedFile) (string, error) {
	mimeType := NormalizeMIMEType(file.MIMEType)
	extractor, ok := d.byMIME[mimeType]
	if !ok {
		metrics.ExtractionFailures.WithLabelValues("unsupported").Inc()
		return "", types.NewUnsupportedTypeError(file.FileName, mimeType,
			fmt.Sprintf(constants.MsgUnsupportedFileType, file.FileName))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := extractor.ExtractText(ctx, file.Data, mimeType, file.FileName)
	if err != nil {
		metrics.ExtractionFailures.WithLabelValues(mimeType).Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("file", file.FileName).Str("mime", mimeType).Msg("文档解析失败")
		return "", types.NewParseFailure(file.FileName, mimeType, err)
	}

	text = NormalizeText(text)
	if text == "" {
		metrics.ExtractionFailures.WithLabelValues(mimeType).Inc()
		return "", types.NewEmptyTextError(file.FileName, mimeType,
			fmt.Sprintf(constants.MsgNoTextExtractedFrom, file.FileName))
	}

	logger.Ctx(ctx).Debug().Str("file", file.FileName).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("文档解析完成")
	return text, nil
}

// NormalizeMIMEType 去掉参数并转为小写，例如 "application/pdf; charset=binary" -> "application/pdf"
func NormalizeMIMEType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// NormalizeText 去掉 BOM 和非法 UTF-8，并去掉首尾空白
func NormalizeText(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ToValidUTF8(text, "")
	return strings.TrimSpace(text)
}
