package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应（带数据）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// OK 成功响应（仅提示信息）
func OK(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: msg,
	})
}

// Fail 业务失败响应 (HTTP 200, success=false)
func Fail(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{
		Success: false,
		Message: msg,
	})
}

// Error 传输层错误响应（鉴权、限流）
func Error(c *gin.Context, httpCode int, msg string) {
	c.AbortWithStatusJSON(httpCode, Response{
		Success: false,
		Message: msg,
	})
}
