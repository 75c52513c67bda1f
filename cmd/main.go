package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-ranker/internal/api/handler"
	"resume-ranker/internal/api/router"
	"resume-ranker/internal/completion"
	"resume-ranker/internal/config"
	"resume-ranker/internal/constants"
	"resume-ranker/internal/logger"
	"resume-ranker/internal/parser"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/results"
	"resume-ranker/internal/scoring"
	"resume-ranker/internal/storage"
	"resume-ranker/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	var (
		configPath        string
		writeSampleConfig string
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时自动查找")
	pflag.StringVar(&writeSampleConfig, "write-sample-config", "", "写出示例配置文件后退出")
	pflag.Parse()

	if writeSampleConfig != "" {
		if err := config.CreateSampleConfig(writeSampleConfig); err != nil {
			fmt.Fprintf(os.Stderr, "写入示例配置失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("示例配置已写入 %s\n", writeSampleConfig)
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("日志文件不可用，仅输出到控制台")
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	logger.Info().Str("version", version).Str("address", cfg.Server.Address).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serverOpts []hertzconfig.Option
	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			ServiceName:    firstNonEmpty(cfg.Tracing.ServiceName, constants.ServiceName),
			ServiceVersion: version,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化链路追踪失败")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("关闭链路追踪失败")
			}
		}()
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	completer, err := completion.NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化补全服务失败")
	}

	extractor, err := newDocumentExtractor(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文档解析器失败")
	}

	var criteriaExtractor processor.CriteriaExtractor = parser.NewKeywordCriteriaExtractor()
	if cfg.Scoring.CriteriaExtractor == "llm" && completer != nil {
		var llmExtractor parser.CriteriaExtractor = parser.NewLLMCriteriaExtractor(completer.ForOperation("criteria"))
		if storageManager.Redis != nil {
			llmExtractor = parser.NewCachingCriteriaExtractor(llmExtractor, storageManager.Redis)
		}
		criteriaExtractor = llmExtractor
	}
	logger.Info().Str("criteria_extractor", cfg.Scoring.CriteriaExtractor).Msg("招聘条件提取器就绪")

	var modelStrategy scoring.Strategy
	if completer != nil {
		modelStrategy = scoring.NewModelScoring(
			completer.ForOperation("score"),
			parser.NewLLMResumeDetailsExtractor(completer.ForOperation("resume_details")),
		)
	}
	var rankStrategy scoring.Strategy = scoring.NewKeywordScoring()
	if cfg.Scoring.RankStrategy == constants.StrategyModel && modelStrategy != nil {
		rankStrategy = modelStrategy
	}

	store := results.NewCSVStore(cfg.Results.CSVPath)
	compOpts := []processor.ComponentOpt{
		processor.WithExtractor(extractor),
		processor.WithCriteriaExtractor(criteriaExtractor),
		processor.WithResultWriter(store),
	}
	recorder := storage.NewBatchRecorderFromStorage(storageManager, store,
		cfg.RabbitMQ.ResultsExchange, cfg.RabbitMQ.BatchScoredRoutingKey)
	if recorder != nil {
		compOpts = append(compOpts, processor.WithObserver(recorder))
	}

	ranker, err := processor.CreateRanker(compOpts, []processor.SettingOpt{
		processor.WithConcurrency(cfg.Scoring.Concurrency),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化Ranker失败")
	}

	serverOpts = append(serverOpts,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodyMB<<20),
		server.WithExitWaitTime(5*time.Second),
	)
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracerOpt, tc := hertztracing.NewServerTracer()
		serverOpts = append(serverOpts, tracerOpt)
		tracerCfg = tc
	}

	h := server.New(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}

	var historyHandler *handler.HistoryHandler
	if storageManager.MySQL != nil {
		var archive handler.ArchiveReader
		if storageManager.MinIO != nil {
			archive = storageManager.MinIO
		}
		historyHandler = handler.NewHistoryHandler(storageManager.MySQL, archive,
			config.GetDuration(cfg.MinIO.ArchiveURLExpiry, handler.DefaultArchiveURLExpiry))
	}

	scoreHandler := handler.NewScoreHandler(ranker, store, rankStrategy, modelStrategy)
	router.RegisterRoutes(h, scoreHandler, router.Options{
		APIKeys:       cfg.Server.APIKeys,
		EnableMetrics: true,
		History:       historyHandler,
	})
	logger.Info().
		Str("rank_strategy", rankStrategy.Name()).
		Bool("model_scoring", modelStrategy != nil).
		Bool("history", historyHandler != nil).
		Str("csv", store.Path()).
		Msg("HTTP路由注册成功")

	go func() {
		if err := h.Run(); err != nil {
			logger.Error().Err(err).Msg("HTTP服务器退出")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// newDocumentExtractor 按配置选择 Tika 或内置解析器
func newDocumentExtractor(ctx context.Context, cfg *config.Config) (*parser.DocumentExtractor, error) {
	var opts []parser.DocumentOption
	if cfg.Extractor.TimeoutSeconds > 0 {
		opts = append(opts, parser.WithExtractTimeout(time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second))
	}

	if cfg.Extractor.Type == "tika" {
		logger.Info().Str("url", cfg.Extractor.TikaServerURL).Msg("使用Tika文档解析器")
		tika := parser.NewTikaTextExtractor(cfg.Extractor.TikaServerURL,
			parser.WithTimeout(time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second))
		return parser.NewTikaDocumentExtractor(tika, opts...), nil
	}

	pdf, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithPDFTimeout(config.GetDuration(cfg.Extractor.PDFTimeout, 30*time.Second)))
	if err != nil {
		return nil, fmt.Errorf("创建Eino PDF提取器失败: %w", err)
	}
	logger.Info().Msg("使用内置文档解析器(Eino PDF + OOXML)")
	return parser.NewBuiltinDocumentExtractor(pdf, opts...), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
