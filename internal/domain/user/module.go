package user

import (
	"blog_post_api/internal/domain/user/handler"
	"blog_post_api/internal/domain/user/repository"
	"blog_post_api/internal/domain/user/service"
	"blog_post_api/internal/pkg/oauth"
	"blog_post_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 第三方登录与会话
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 会话是其他模块的前提
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	provider := oauth.NewGitHubProvider(ctx.Config.OAuth.GitHub)
	authService := service.NewAuthService(userRepo, provider)
	secure := ctx.Config.App.Env == "prod"
	authHandler := handler.NewAuthHandler(authService, ctx.Config.OAuth.SuccessRedirect, secure, ctx.Logger)

	// 2. 路由注册
	setupRoutes(ctx.Router, authHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.AuthHandler) {
	authGroup := r.Group("/api/auth")
	{
		authGroup.GET("/providers", h.Providers)
		authGroup.GET("/signin/github", h.SignIn)
		authGroup.POST("/signin/github", h.SignIn)
		authGroup.GET("/callback/github", h.Callback)
		authGroup.GET("/session", h.Session)
		authGroup.POST("/signout", h.SignOut)
	}
}
