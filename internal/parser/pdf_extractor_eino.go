package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"resume-ranker/internal/logger"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithPDFTimeout 设置单个PDF的解析超时
func WithPDFTimeout(timeout time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器
// 不按页面分割，以获取整个文档的连续文本
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser:  p,
		timeout: 30 * time.Second,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractText 实现 FormatExtractor
func (e *EinoPDFTextExtractor) ExtractText(ctx context.Context, data []byte, mimeType, uri string) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{
			"source_file_name": uri,
			"extraction_time":  startTime.Format(time.RFC3339),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("eino PDF parser failed for URI %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino PDF parser returned no documents for URI %s", uri)
	}

	// 以防返回了多个文档，按顺序合并
	var builder strings.Builder
	for i, doc := range docs {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(doc.Content)
	}

	logger.Ctx(ctx).Debug().
		Str("uri", uri).
		Int("documents", len(docs)).
		Int("chars", builder.Len()).
		Dur("elapsed", time.Since(startTime)).
		Msg("PDF提取完成")
	return builder.String(), nil
}

var _ FormatExtractor = (*EinoPDFTextExtractor)(nil)
