package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-ranker/internal/config"
	"resume-ranker/internal/logger"
)

// Storage 存储管理器，聚合所有可选的外部存储依赖
// 每个组件只有在配置了地址时才会初始化，未配置的字段为 nil
type Storage struct {
	// 对象存储，用于归档结果 CSV
	MinIO *MinIO

	// 消息队列，用于发布批次评分事件
	RabbitMQ *RabbitMQ

	// 关系型数据库，用于保存评分历史
	MySQL *MySQL

	// 键值存储，用于缓存招聘条件
	Redis *Redis
}

// NewStorage 创建存储管理器
// 单个组件初始化失败只记录警告，全部配置的组件都失败时返回错误
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var (
		err        error
		configured int
		initErrors []string
	)

	if cfg.MinIO.Endpoint != "" {
		configured++
		storage.MinIO, err = NewMinIO(&cfg.MinIO)
		if err != nil {
			logger.Warn().Err(err).Str("endpoint", cfg.MinIO.Endpoint).Msg("初始化MinIO失败")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		} else {
			logger.Info().Str("bucket", cfg.MinIO.ResultsBucket).Msg("MinIO客户端初始化成功")
		}
	}

	if cfg.RabbitMQ.URL != "" {
		configured++
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if cfg.MySQL.Host != "" {
		configured++
		storage.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			logger.Warn().Err(err).Str("host", cfg.MySQL.Host).Msg("初始化MySQL失败")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		configured++
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		logger.Debug().Msg("Redis未配置, 跳过初始化")
	}

	if configured > 0 && len(initErrors) == configured {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	if len(initErrors) > 0 {
		logger.Warn().Strs("errors", initErrors).Msg("部分存储组件初始化失败")
	}

	return storage, nil
}

// Close 关闭所有连接，nil 管理器也可以安全调用
func (s *Storage) Close() {
	if s == nil {
		return
	}
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
