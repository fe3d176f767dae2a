package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "blog_post_api/docs"
	_ "blog_post_api/internal/domain/common"
	_ "blog_post_api/internal/domain/post"
	_ "blog_post_api/internal/domain/user"
	"blog_post_api/internal/pkg/config"
	"blog_post_api/internal/pkg/middleware"
	"blog_post_api/internal/pkg/notify"
	"blog_post_api/internal/pkg/push"
	"blog_post_api/internal/pkg/registry"
	"blog_post_api/internal/pkg/uploader"
	"blog_post_api/internal/pkg/worker"
	"blog_post_api/pkg/cache"
	"blog_post_api/pkg/database"
	"blog_post_api/pkg/logger"
	"blog_post_api/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// @title Blog Post API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. 配置与日志
	config.LoadConfig()
	cfg := &config.GlobalConfig

	zl, err := logger.InitLogger(cfg.App.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// 2. 基础设施
	db, err := database.InitDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		zl.Fatal("Failed to connect database", zap.Error(err))
	}
	reportDB, err := database.InitReportDB(cfg.Database)
	if err != nil {
		// 统计不可用时分类计数为 0，不影响主流程
		zl.Warn("Report database unavailable", zap.Error(err))
	}
	rdb, err := database.InitRedis(cfg.Redis)
	if err != nil {
		zl.Fatal("Failed to connect redis", zap.Error(err))
	}

	collector := metrics.GetGlobalCollector()

	poolMonitor, err := database.NewGormPoolMonitor(db, database.PoolMonitorConfig{
		Name:           "primary",
		Interval:       15 * time.Second,
		AlertThreshold: 40,
		MaxWait:        5 * time.Second,
	}, collector, zl)
	if err != nil {
		zl.Fatal("Failed to init pool monitor", zap.Error(err))
	}
	poolMonitor.Start()
	defer poolMonitor.Stop()

	store, err := newObjectStore(cfg)
	if err != nil {
		zl.Fatal("Failed to init object storage", zap.Error(err))
	}
	up := uploader.NewUploader(store, cfg.Server.PublicURL, cfg.Storage.Prefix, cfg.Upload.MaxBytes)

	var notifier *worker.WorkerPool
	if cfg.PushEnabled() {
		sender, err := push.NewAliyunPushService(cfg.Push)
		if err != nil {
			zl.Fatal("Failed to init push service", zap.Error(err))
		}
		notifier = worker.NewWorkerPool(sender, cfg.Push.Workers, 256, zl, collector)
		notifier.Start()
	} else {
		zl.Info("Push not configured, author notifications disabled")
	}

	// 3. 路由与中间件
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(collector))
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"},
			ExposeHeaders:    []string{"X-Trace-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)
	r.Use(middleware.RateLimitMiddleware(limiter))

	// 4. 模块初始化
	moduleCtx := &registry.ModuleContext{
		Config:   cfg,
		Logger:   zl,
		DB:       db,
		ReportDB: reportDB,
		Redis:    rdb,
		Router:   r,
		Cache:    cache.NewRedisCache(rdb, cfg.App.Env),
		Broker:   notify.NewRedisBroker(rdb, zl),
		Uploader: up,
		Metrics:  collector,
		Notifier: notifier,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		zl.Fatal("Failed to init modules", zap.Error(err))
	}

	// 5. 启动与优雅退出
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	if notifier != nil {
		notifier.Stop()
	}
	if err := database.CloseDatabase(db); err != nil {
		zl.Warn("Close database", zap.Error(err))
	}
	if reportDB != nil {
		_ = reportDB.Close()
	}
	if err := rdb.Close(); err != nil {
		zl.Warn("Close redis", zap.Error(err))
	}
	zl.Info("Server exited")
}

// newObjectStore 按配置选择图片存储，memory 仅用于本地开发
func newObjectStore(cfg *config.Config) (uploader.ObjectStore, error) {
	if cfg.Storage.Driver == "memory" {
		return uploader.NewMemoryStore(), nil
	}
	return uploader.NewAliyunOSSStore(cfg.OSS)
}
