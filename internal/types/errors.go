package types

import (
	"errors"
	"fmt"
	"strings"
)

// 基础错误类型
var (
	ErrExtraction            = errors.New("document extraction failed")
	ErrCompletion            = errors.New("completion service failed")
	ErrCompletionUnavailable = errors.New("completion service is not configured")
	ErrStorage               = errors.New("result storage failed")
	ErrValidation            = errors.New("invalid request")
)

// ExtractionError 文档无法解析或类型不受支持，属于调用方错误
type ExtractionError struct {
	FileName string
	MIMEType string
	Op       string
	Message  string // 返回给调用方的说明
	BaseErr  error
}

func (e *ExtractionError) Error() string {
	if e.BaseErr != nil {
		return fmt.Sprintf("%s (操作:%s, 文件:%s, 类型:%s): %v", e.Message, e.Op, e.FileName, e.MIMEType, e.BaseErr)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s, 类型:%s)", e.Message, e.Op, e.FileName, e.MIMEType)
}

func (e *ExtractionError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is，所有 ExtractionError 都匹配 ErrExtraction
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// NewUnsupportedTypeError 不支持的 MIME 类型
func NewUnsupportedTypeError(fileName, mimeType, message string) error {
	return &ExtractionError{
		FileName: fileName,
		MIMEType: mimeType,
		Op:       "detect",
		Message:  message,
	}
}

// NewEmptyTextError 文档中没有提取到文本
func NewEmptyTextError(fileName, mimeType, message string) error {
	return &ExtractionError{
		FileName: fileName,
		MIMEType: mimeType,
		Op:       "extract",
		Message:  message,
	}
}

// NewParseFailure 文档损坏或无法读取
func NewParseFailure(fileName, mimeType string, err error) error {
	return &ExtractionError{
		FileName: fileName,
		MIMEType: mimeType,
		Op:       "parse",
		Message:  fmt.Sprintf("Failed to extract text from %s", fileName),
		BaseErr:  err,
	}
}

// CompletionError 补全服务调用失败，不会返回给 HTTP 调用方
type CompletionError struct {
	Operation string
	Err       error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion %s: %v", e.Operation, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletion
}

// NewCompletionError 包装补全服务错误
func NewCompletionError(operation string, err error) error {
	return &CompletionError{Operation: operation, Err: err}
}

// StorageError 结果文件读写失败，属于服务端错误
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError 包装存储错误
func NewStorageError(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

// NewValidationError 请求参数校验失败
func NewValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// ClientMessage 返回适合直接展示给调用方的错误信息
func ClientMessage(err error) string {
	var extErr *ExtractionError
	if errors.As(err, &extErr) && extErr.Message != "" {
		return extErr.Message
	}
	if errors.Is(err, ErrValidation) {
		return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	}
	return err.Error()
}
