package common

import (
	"context"
	"time"

	commonHandler "blog_post_api/internal/pkg/common"
	"blog_post_api/internal/pkg/middleware"
	"blog_post_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	ttl := time.Duration(ctx.Config.Storage.SignedTTL) * time.Second

	var recorder commonHandler.UploadRecorder
	if ctx.Metrics != nil {
		recorder = ctx.Metrics
	}
	h := commonHandler.NewCommonHandler(ctx.Uploader, ttl, recorder, ctx.Logger)

	if ctx.DB != nil {
		h.AddCheck("database", func(c context.Context) error {
			sqlDB, err := ctx.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(c)
		})
	}
	if ctx.Redis != nil {
		h.AddCheck("redis", func(c context.Context) error {
			return ctx.Redis.Ping(c).Err()
		})
	}

	setupRoutes(ctx.Router, h, ctx.Config.App.Env != "prod")
	return nil
}

func setupRoutes(r *gin.Engine, h *commonHandler.CommonHandler, swagger bool) {
	r.POST("/api/upload", middleware.AuthMiddleware(), h.UploadFile)
	r.GET("/api/media/o/*key", h.Media)
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
