package registry

import (
	"fmt"
	"sort"

	"blog_post_api/internal/pkg/config"
	"blog_post_api/internal/pkg/notify"
	"blog_post_api/internal/pkg/uploader"
	"blog_post_api/internal/pkg/worker"
	"blog_post_api/pkg/cache"
	"blog_post_api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文，由 cmd/server 组装
type ModuleContext struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	ReportDB *sqlx.DB
	Redis    *redis.Client
	Router   *gin.Engine
	Cache    cache.CacheService
	Broker   notify.Broker
	Uploader *uploader.Uploader
	Metrics  *metrics.MetricsCollector
	// Notifier 未配置推送时为 nil
	Notifier *worker.WorkerPool
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块，重名后者覆盖
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// ordered 按优先级排序，同优先级按名称保证顺序稳定
func ordered() []Module {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})
	return modules
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	for _, module := range ordered() {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
		if ctx.Logger != nil {
			ctx.Logger.Info("module initialized", zap.String("module", module.Name()))
		}
	}
	return nil
}
