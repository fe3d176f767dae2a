package handler

import (
	"net/http"
	"time"

	"blog_post_api/internal/domain/user/service"
	"blog_post_api/internal/pkg/middleware"
	"blog_post_api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	stateCookie = "blog_oauth_state"
	stateTTL    = 10 * time.Minute
)

// AuthHandler 登录、回调、会话查询和退出
type AuthHandler struct {
	service         service.AuthService
	successRedirect string
	secureCookie    bool
	log             *zap.Logger
}

// NewAuthHandler successRedirect 为空时回调直接返回 JSON
func NewAuthHandler(s service.AuthService, successRedirect string, secureCookie bool, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		service:         s,
		successRedirect: successRedirect,
		secureCookie:    secureCookie,
		log:             log,
	}
}

// Providers 可用登录方式
// @Summary 登录方式列表
// @Tags Auth
// @Produce json
// @Router /auth/providers [get]
func (h *AuthHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"github": gin.H{
			"id":          "github",
			"name":        "GitHub",
			"type":        "oauth",
			"signinUrl":   "/api/auth/signin/github",
			"callbackUrl": "/api/auth/callback/github",
		},
	})
}

// SignIn 跳转到 GitHub 授权页
// @Summary GitHub 登录
// @Tags Auth
// @Router /auth/signin/github [get]
func (h *AuthHandler) SignIn(c *gin.Context) {
	state := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int(stateTTL.Seconds()), "/api/auth", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.service.SignInURL(state))
}

// Callback GitHub 授权回调
// @Summary GitHub 登录回调
// @Tags Auth
// @Param code query string true "授权码"
// @Param state query string true "state"
// @Success 200 {object} response.Response{data=service.Session}
// @Router /auth/callback/github [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		response.Error(c, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}
	c.SetCookie(stateCookie, "", -1, "/api/auth", "", h.secureCookie, true)

	session, err := h.service.Callback(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.log.Warn("oauth callback failed", zap.Error(err))
		response.Error(c, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	maxAge := int(time.Until(session.Expires).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, session.Token, maxAge, "/", "", h.secureCookie, true)

	if h.successRedirect != "" {
		c.Redirect(http.StatusFound, h.successRedirect)
		return
	}
	response.Success(c, gin.H{
		"user":    session.User,
		"expires": session.Expires,
		"token":   session.Token,
	})
}

// Session 当前会话，未登录返回 {}
// @Summary 查询会话
// @Tags Auth
// @Produce json
// @Success 200 {object} service.Session
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	session, err := h.service.Session(middleware.SessionToken(c))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, session)
}

// SignOut 清除会话 cookie
// @Summary 退出登录
// @Tags Auth
// @Success 200 {object} response.Response
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	response.OK(c, "Signed out")
}
