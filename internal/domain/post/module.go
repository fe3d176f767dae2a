package post

import (
	"time"

	"blog_post_api/internal/domain/post/handler"
	"blog_post_api/internal/domain/post/repository"
	"blog_post_api/internal/domain/post/service"
	"blog_post_api/internal/pkg/middleware"
	"blog_post_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// PostModule 帖子、评论、分类和搜索
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	// 依赖 user 模块提供的会话
	return 10
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewPostRepository(ctx.DB)

	deps := service.Deps{
		Categories: ctx.Config.Blog.Categories,
		Broker:     ctx.Broker,
		Logger:     ctx.Logger,
	}
	if ctx.ReportDB != nil {
		deps.Reporter = repository.NewCategoryReporter(ctx.ReportDB)
	}
	if ctx.Notifier != nil {
		deps.Notifier = ctx.Notifier
	}
	if ctx.Metrics != nil {
		deps.Metrics = ctx.Metrics
	}

	var postService service.PostService = service.NewPostService(repo, ctx.Uploader, deps)
	if ctx.Config.Cache.Enabled && ctx.Cache != nil {
		ttl := time.Duration(ctx.Config.Cache.TTL) * time.Second
		var recorder service.CacheRecorder
		if ctx.Metrics != nil {
			recorder = ctx.Metrics
		}
		postService = service.NewCachedPostService(postService, ctx.Cache, ttl, recorder, ctx.Logger)
	}

	postHandler := handler.NewPostHandler(postService, ctx.Logger)
	var liveRecorder handler.LiveRecorder
	if ctx.Metrics != nil {
		liveRecorder = ctx.Metrics
	}
	liveHandler := handler.NewLiveHandler(ctx.Broker, ctx.Config.Server.CORSOrigins, liveRecorder, ctx.Logger)

	// 2. 路由注册
	setupRoutes(ctx.Router, postHandler, liveHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PostHandler, live *handler.LiveHandler) {
	api := r.Group("/api")

	// 公开路由
	blog := api.Group("/blog-post")
	{
		blog.GET("/get-all-posts", h.GetAllPosts)
		blog.GET("/blog-details", h.GetBlogDetails)
		blog.GET("/comments", h.GetComments)
		blog.GET("/live", live.Live)
	}
	api.GET("/category", h.GetByCategory)
	api.GET("/search", h.Search)
	api.GET("/categories", h.GetCategories)

	// 需要登录
	authed := blog.Group("", middleware.AuthMiddleware())
	{
		authed.POST("/add-post", h.AddPost)
		authed.PUT("/update-post", h.UpdatePost)
		authed.DELETE("/delete-post", h.DeletePost)
		authed.POST("/comments", h.AddComment)
	}
}
