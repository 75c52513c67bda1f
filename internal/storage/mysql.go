package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-ranker/internal/config"
	applogger "resume-ranker/internal/logger"
	"resume-ranker/internal/storage/models"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"
	"resume-ranker/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("resume-ranker/storage/mysql")

// ErrBatchNotFound 批次不存在
var ErrBatchNotFound = errors.New("score batch not found")

// ScoreHistory 评分历史的持久化接口
type ScoreHistory interface {
	SaveScoreBatch(ctx context.Context, batch models.ScoreBatch) error
}

// ScoreHistoryReader 按批次号查询评分历史
type ScoreHistoryReader interface {
	GetScoreBatch(ctx context.Context, batchID string) (models.ScoreBatch, error)
}

var (
	_ ScoreHistory       = (*MySQL)(nil)
	_ ScoreHistoryReader = (*MySQL)(nil)
)

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，添加超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Info // 默认Info级别
	}

	// GORM配置增强
	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,                             // 禁用自动外键创建
		Logger:                                   newGormLogger(logLevel),          // 通过zerolog输出SQL日志
		PrepareStmt:                              true,                             // 开启预编译语句缓存
		NowFunc: func() time.Time {
			return time.Now().Local() // 使用本地时间作为默认时间
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)                                           // 最大空闲连接数
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)                                           // 最大打开连接数
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute) // 连接最大生命周期
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute) // 空闲连接最大生命周期

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	// 注册OpenTelemetry追踪插件
	if err := db.Use(newGormTracing(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	// 使用 GORM 的 AutoMigrate 功能自动迁移表结构
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB, _ := db.DB() // 尝试获取底层 *sql.DB 以关闭
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	applogger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

func newGormLogger(level logger.LogLevel) logger.Interface {
	return logger.New(&applogger.Logger, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	// 保存当前的日志级别
	currentLogger := m.db.Logger

	// 创建一个静默的logger以关闭SQL日志打印
	silentLogger := newGormLogger(logger.Silent)

	// 创建一个使用静默日志记录器的DB会话
	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	// 列出所有需要迁移的模型
	err := silentDB.AutoMigrate(
		&models.ScoreBatch{},
		&models.ScoreRecord{},
	)

	// 恢复原来的日志记录器
	m.db = m.db.Session(&gorm.Session{Logger: currentLogger})

	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	applogger.Debug().Msg("GORM数据库结构迁移成功")
	return nil
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// NewScoreBatch 把结果集转换为批次记录和逐条评分记录
func NewScoreBatch(set types.ResultSet, strategy, csvFile, archiveKey string) models.ScoreBatch {
	batch := models.ScoreBatch{
		BatchID:      set.BatchID,
		Strategy:     strategy,
		LabelColumn:  string(set.Label),
		ResumeCount:  len(set.Results),
		CriteriaJSON: utils.ConvertArrayToJSON(set.Criteria),
		CSVFile:      csvFile,
		ArchiveKey:   archiveKey,
		Records:      make([]models.ScoreRecord, 0, len(set.Results)),
	}
	for i, r := range set.Results {
		batch.Records = append(batch.Records, models.ScoreRecord{
			BatchID:             set.BatchID,
			Position:            i,
			FileName:            r.FileName,
			CandidateName:       r.CandidateName,
			SkillsScore:         r.Scores.Skills,
			ExperienceScore:     r.Scores.Experience,
			CertificationsScore: r.Scores.Certifications,
			QualificationsScore: r.Scores.Qualifications,
			TotalScore:          r.Scores.Total,
		})
	}
	return batch
}

// SaveScoreBatch 在一个事务中保存批次及其全部评分记录
func (m *MySQL) SaveScoreBatch(ctx context.Context, batch models.ScoreBatch) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveScoreBatch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", batch.BatchID),
		attribute.Int("batch.records", len(batch.Records)),
	)

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records := batch.Records
		batch.Records = nil
		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("保存评分批次失败: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 100).Error; err != nil {
			return fmt.Errorf("保存评分记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetScoreBatch 查询批次及其评分记录，记录按上传顺序排列
func (m *MySQL) GetScoreBatch(ctx context.Context, batchID string) (models.ScoreBatch, error) {
	var batch models.ScoreBatch
	err := m.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("batch_id = ?", batchID).
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ScoreBatch{}, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	if err != nil {
		return models.ScoreBatch{}, fmt.Errorf("查询评分批次失败: %w", err)
	}
	return batch, nil
}
