package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"blog_post_api/internal/pkg/uploader"
	"blog_post_api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadRecorder 上传结果计数
type UploadRecorder interface {
	RecordUpload(success bool)
}

// CommonHandler 上传、图片读取和健康检查
type CommonHandler struct {
	uploader  *uploader.Uploader
	signedTTL time.Duration
	checks    map[string]func(ctx context.Context) error
	metrics   UploadRecorder
	log       *zap.Logger
}

func NewCommonHandler(up *uploader.Uploader, signedTTL time.Duration, metrics UploadRecorder, log *zap.Logger) *CommonHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommonHandler{
		uploader:  up,
		signedTTL: signedTTL,
		checks:    make(map[string]func(ctx context.Context) error),
		metrics:   metrics,
		log:       log,
	}
}

// AddCheck 注册健康检查项
func (h *CommonHandler) AddCheck(name string, check func(ctx context.Context) error) {
	h.checks[name] = check
}

func (h *CommonHandler) record(success bool) {
	if h.metrics != nil {
		h.metrics.RecordUpload(success)
	}
}

// UploadFile 上传图片
// @Summary 上传图片 (file 单个，files 批量)
// @Tags Common
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "File"
// @Param files formData file false "Files"
// @Success 200 {object} response.Response{data=string} "URL，批量时为 URL 数组"
// @Router /upload [post]
func (h *CommonHandler) UploadFile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, response.MsgUploadFailed)
		return
	}

	if files := form.File["file"]; len(files) > 0 {
		url, err := h.uploader.UploadFile(c.Request.Context(), files[0])
		h.record(err == nil)
		if err != nil {
			h.uploadFailed(c, err)
			return
		}
		response.Success(c, url)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.Fail(c, response.MsgUploadFailed)
		return
	}

	urls, err := h.uploadAll(c.Request.Context(), files)
	if err != nil {
		h.uploadFailed(c, err)
		return
	}
	response.Success(c, urls)
}

// uploadAll 并发上传，结果顺序与请求一致
func (h *CommonHandler) uploadAll(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, len(files))

	var (
		wg        sync.WaitGroup
		errOnce   sync.Once
		uploadErr error
	)

	// 限制并发数为 5
	sem := make(chan struct{}, 5)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			url, err := h.uploader.UploadFile(ctx, f)
			h.record(err == nil)
			if err != nil {
				errOnce.Do(func() { uploadErr = err })
				return
			}
			urls[index] = url
		}(i, file)
	}

	wg.Wait()
	return urls, uploadErr
}

func (h *CommonHandler) uploadFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, uploader.ErrFileTooLarge):
		response.Fail(c, "Image is too large.")
	case errors.Is(err, uploader.ErrUnsupportedType):
		response.Fail(c, "Only image files can be uploaded.")
	default:
		h.log.Error("upload failed", zap.Error(err))
		response.Fail(c, response.MsgUploadFailed)
	}
}

// Media 读取图片：支持签名直链的存储 302 跳转，否则直接回源
// @Summary 读取图片
// @Tags Common
// @Param key path string true "对象 key"
// @Router /media/o/{key} [get]
func (h *CommonHandler) Media(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.Status(http.StatusNotFound)
		return
	}

	store := h.uploader.Store()
	if signer, ok := store.(uploader.URLSigner); ok {
		signed, err := signer.SignURL(key, h.signedTTL)
		if err != nil {
			h.log.Error("sign media url failed", zap.String("key", key), zap.Error(err))
			c.Status(http.StatusBadGateway)
			return
		}
		c.Redirect(http.StatusFound, signed)
		return
	}

	body, contentType, err := store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, uploader.ErrObjectNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.log.Error("read media failed", zap.String("key", key), zap.Error(err))
		c.Status(http.StatusBadGateway)
		return
	}
	defer body.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

// Healthz 依次执行健康检查
// @Summary 健康检查
// @Tags Common
// @Router /healthz [get]
func (h *CommonHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"success": healthy, "data": status})
}
