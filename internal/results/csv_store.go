package results

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/types"
)

// WritePolicy 决定一次批次写入时如何处理已有文件
type WritePolicy int

const (
	// PolicyOverwrite 新的排名会话：清空后写表头和全部行
	PolicyOverwrite WritePolicy = iota
	// PolicyAppend 跨会话累积：文件存在时只追加数据行
	PolicyAppend
)

func (p WritePolicy) String() string {
	if p == PolicyAppend {
		return "append"
	}
	return "overwrite"
}

// CSVStore 评分结果的 CSV 文件存储
// 每个 HTTP 批次只写一次；写操作互斥，读操作可以并发
type CSVStore struct {
	path string
	mu   sync.RWMutex
}

// NewCSVStore 创建 CSV 存储，path 为空时使用默认文件名
func NewCSVStore(path string) *CSVStore {
	if path == "" {
		path = "resume_scores.csv"
	}
	return &CSVStore{path: path}
}

// Path 结果文件路径
func (s *CSVStore) Path() string { return s.path }

// FileName 结果文件名，用于响应和下载
func (s *CSVStore) FileName() string { return filepath.Base(s.path) }

// Write 按策略写入一个批次；不做去重，同名文件的重复上传会产生重复行
func (s *CSVStore) Write(ctx context.Context, set types.ResultSet, policy WritePolicy) error {
	if err := ctx.Err(); err != nil {
		return types.NewStorageError("write", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return types.NewStorageError("mkdir", dir, err)
		}
	}

	writeHeader := true
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if policy == PolicyAppend {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
			writeHeader = false
		}
	}

	f, err := os.OpenFile(s.path, flags, 0644)
	if err != nil {
		return types.NewStorageError("open", s.path, err)
	}

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(set.Header()); err != nil {
			f.Close()
			return types.NewStorageError("write", s.path, err)
		}
	}
	if err := w.WriteAll(set.Rows()); err != nil {
		f.Close()
		return types.NewStorageError("write", s.path, err)
	}
	if err := f.Close(); err != nil {
		return types.NewStorageError("close", s.path, err)
	}

	logger.Ctx(ctx).Debug().
		Str("path", s.path).
		Str("policy", policy.String()).
		Int("rows", len(set.Results)).
		Bool("header", writeHeader).
		Msg("评分结果已写入CSV")
	return nil
}

// Read 读取表头和所有数据行；文件不存在时返回包装了 os.ErrNotExist 的 StorageError
func (s *CSVStore) Read(ctx context.Context) ([]string, [][]string, error) {
	data, err := s.Bytes(ctx)
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, types.NewStorageError("parse", s.path, err)
	}
	if len(records) == 0 {
		return nil, nil, types.NewStorageError("parse", s.path, errors.New("结果文件为空"))
	}
	return records[0], records[1:], nil
}

// Bytes 返回结果文件的原始内容
func (s *CSVStore) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewStorageError("read", s.path, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.NewStorageError("read", s.path, fmt.Errorf("尚无评分结果: %w", os.ErrNotExist))
		}
		return nil, types.NewStorageError("read", s.path, err)
	}
	return data, nil
}
