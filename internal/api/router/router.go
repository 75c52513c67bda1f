package router

import (
	"context"
	"time"

	"resume-ranker/internal/api/handler"
	"resume-ranker/internal/constants"
	"resume-ranker/internal/logger"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options 路由选项
type Options struct {
	// APIKeys 非空时 POST 接口需要 X-API-Key 头
	APIKeys []string
	// EnableMetrics 是否暴露 /metrics
	EnableMetrics bool
	// History 非空时注册批次历史查询接口
	History *handler.HistoryHandler
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, scoreHandler *handler.ScoreHandler, opts Options) {
	h.Use(RequestLogger())

	h.GET("/health", scoreHandler.Health)
	if opts.EnableMetrics {
		h.GET("/metrics", MetricsHandler())
	}

	h.GET(constants.ViewResultsURL, scoreHandler.ViewResults)
	h.GET(constants.DownloadURL, scoreHandler.DownloadCSV)
	h.GET(constants.DownloadXLSXURL, scoreHandler.DownloadXLSX)

	scoring := h.Group("/")
	if len(opts.APIKeys) > 0 {
		scoring.Use(APIKeyAuth(opts.APIKeys))
	}
	scoring.POST("/extract-criteria", scoreHandler.ExtractCriteria)
	scoring.POST("/rank-resumes", scoreHandler.RankResumes)
	scoring.POST("/score-resumes", scoreHandler.ScoreResumes)

	if opts.History != nil {
		scoring.GET(constants.BatchURL, opts.History.GetBatch)
		scoring.GET(constants.BatchArchiveURL, opts.History.DownloadArchive)
	}
}

// APIKeyAuth 校验 X-API-Key 头
func APIKeyAuth(keys []string) app.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:X-API-Key", ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			_, ok := allowed[key]
			return ok, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			logger.Ctx(ctx).Warn().Str("path", string(c.Path())).Msg("API密钥校验失败")
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"detail": "Invalid or missing API key."})
		}),
	)
}

// MetricsHandler 把 promhttp 的 net/http 处理器转接到 hertz
func MetricsHandler() app.HandlerFunc {
	ph := promhttp.Handler()
	return func(ctx context.Context, c *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&c.Request)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("转换指标请求失败")
			c.AbortWithStatus(consts.StatusInternalServerError)
			return
		}
		ph.ServeHTTP(adaptor.GetCompatResponseWriter(&c.Response), req.WithContext(ctx))
	}
}

// RequestLogger 记录每个请求的方法、路径、状态码和耗时
func RequestLogger() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		ctx = logger.WithContext(ctx)
		c.Next(ctx)

		status := c.Response.StatusCode()
		event := logger.Info()
		if status >= consts.StatusInternalServerError {
			event = logger.Error()
		} else if status >= consts.StatusBadRequest {
			event = logger.Warn()
		}
		event.
			Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("请求完成")
	}
}
