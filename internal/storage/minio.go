package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"resume-ranker/internal/config"
	"resume-ranker/internal/logger"
	"resume-ranker/pkg/utils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// ResultArchive 评分结果快照的对象存储
type ResultArchive interface {
	// ArchiveResults 上传一个批次写入后的 CSV 快照，返回对象键
	ArchiveResults(ctx context.Context, batchID string, csvData []byte) (string, error)
	// GetPresignedURL 获取归档对象的临时下载地址
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	// DownloadFile 读取归档对象内容
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)
}

// 确保MinIO实现了ResultArchive接口
var _ ResultArchive = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
}

// NewMinIO 创建MinIO客户端，确保结果存储桶存在并设置过期规则
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint 不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	bucket := cfg.ResultsBucket
	if bucket == "" {
		bucket = "resume-scores"
	}

	m := &MinIO{client: client, cfg: cfg, bucket: bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.ensureBucketExists(ctx, bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保结果存储桶 %s 存在失败: %w", bucket, err)
	}

	if cfg.ResultExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, bucket, "expire-score-archives", cfg.ResultExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", bucket).Msg("设置存储桶生命周期失败")
		}
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	logger.Info().Str("bucket", bucketName).Msg("已创建存储桶")
	return nil
}

// setupBucketLifecycle 为指定存储桶设置生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, cfg)
}

// ArchiveObjectKey 归档对象键：scores/YYYY/MM/DD/<batchID>.csv
func ArchiveObjectKey(batchID string, at time.Time) string {
	return path.Join("scores", at.UTC().Format("2006/01/02"), batchID+".csv")
}

// ArchiveResults 上传结果文件快照，对象元数据中带上内容 MD5
func (m *MinIO) ArchiveResults(ctx context.Context, batchID string, csvData []byte) (string, error) {
	objectName := ArchiveObjectKey(batchID, time.Now())
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(csvData), int64(len(csvData)), minio.PutObjectOptions{
		ContentType:  "text/csv",
		UserMetadata: map[string]string{"content-md5-hex": utils.CalculateMD5(csvData)},
	})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, objectName, err)
	}
	return objectName, nil
}

// DownloadFile 下载归档对象
func (m *MinIO) DownloadFile(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.bucket, objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", m.bucket, objectName, err)
	}
	return data, nil
}

// GetPresignedURL 获取预签名URL
func (m *MinIO) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成MinIO预签名URL失败: %w", err)
	}
	return u.String(), nil
}
