package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxDocumentPart = "word/document.xml"

// DocxTextExtractor 读取 OOXML 包中的 word/document.xml，按段落输出文本
// 每个非空段落去掉首尾空白后占一行
type DocxTextExtractor struct {
	maxPartSize int64
}

// NewDocxTextExtractor 创建 DOCX 文本提取器
func NewDocxTextExtractor() *DocxTextExtractor {
	return &DocxTextExtractor{maxPartSize: 64 << 20}
}

// ExtractText 实现 FormatExtractor
func (d *DocxTextExtractor) ExtractText(ctx context.Context, data []byte, mimeType, uri string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("打开DOCX失败(不是有效的OOXML包): %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxDocumentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", errors.New("DOCX中没有 word/document.xml")
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("读取 word/document.xml 失败: %w", err)
	}
	defer rc.Close()

	paragraphs, err := readDocxParagraphs(ctx, io.LimitReader(rc, d.maxPartSize))
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

// readDocxParagraphs 逐个 token 解析，收集 <w:p> 内 <w:t> 的文本
func readDocxParagraphs(ctx context.Context, r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	flush := func() {
		if p := strings.TrimSpace(current.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析 word/document.xml 失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	flush()
	return paragraphs, nil
}

var _ FormatExtractor = (*DocxTextExtractor)(nil)
