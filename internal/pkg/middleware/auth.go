package middleware

import (
	"net/http"
	"strings"

	"blog_post_api/internal/pkg/identity"
	"blog_post_api/pkg/response"
	"blog_post_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SessionCookie 会话 cookie 名称
const SessionCookie = "blog_session"

const (
	ctxIdentity  = "identity"
	ctxUserImage = "userImage"
)

// SessionToken 优先取 Authorization: Bearer，其次取会话 cookie
func SessionToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// loadSession 解析会话并写入上下文
func loadSession(c *gin.Context) bool {
	token := SessionToken(c)
	if token == "" {
		return false
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return false
	}
	id := claims.Identity()
	if id.IsZero() {
		return false
	}
	c.Set(ctxIdentity, id)
	c.Set(ctxUserImage, claims.Image)
	return true
}

// AuthMiddleware 要求已登录
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loadSession(c) {
			response.Error(c, http.StatusUnauthorized, response.MsgUnauthorized)
			return
		}
		c.Next()
	}
}

// CurrentIdentity 当前请求的登录身份
func CurrentIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}

// CurrentUserImage 会话中的头像 URL
func CurrentUserImage(c *gin.Context) string {
	return c.GetString(ctxUserImage)
}
