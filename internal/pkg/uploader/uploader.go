package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrFileTooLarge     = errors.New("file is too large")
	ErrUnsupportedType  = errors.New("only image uploads are allowed")
	ErrInvalidImageURL  = errors.New("image url does not contain a storage path")
	errUploaderNotReady = errors.New("uploader not initialized")
)

// mediaPath 对外图片 URL 的路径前缀，"/o/" 之后是转义后的对象 key
const mediaPath = "/api/media/o/"

// Uploader 图片上传网关
type Uploader struct {
	store         ObjectStore
	publicBaseURL string
	prefix        string
	maxBytes      int64
}

func NewUploader(store ObjectStore, publicBaseURL, prefix string, maxBytes int64) *Uploader {
	return &Uploader{
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		prefix:        strings.Trim(prefix, "/"),
		maxBytes:      maxBytes,
	}
}

// Store 底层对象存储
func (u *Uploader) Store() ObjectStore {
	return u.store
}

// UploadFile 上传图片，返回公开访问 URL
// key 形如 blog/<uuid>，上传失败直接返回底层错误，不重试
func (u *Uploader) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if u == nil || u.store == nil {
		return "", errUploaderNotReady
	}
	if u.maxBytes > 0 && file.Size > u.maxBytes {
		return "", ErrFileTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrUnsupportedType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	key := u.newKey()
	if err := u.store.Put(ctx, key, src, mtype.String()); err != nil {
		return "", err
	}

	return u.PublicURL(key), nil
}

// PublicURL 对象 key -> 公开 URL
func (u *Uploader) PublicURL(key string) string {
	return fmt.Sprintf("%s%s%s?alt=media", u.publicBaseURL, mediaPath, url.PathEscape(key))
}

// DeleteByURL 根据公开 URL 删除对象
func (u *Uploader) DeleteByURL(ctx context.Context, imageURL string) error {
	key, err := KeyFromURL(imageURL)
	if err != nil {
		return err
	}
	return u.store.Delete(ctx, key)
}

func (u *Uploader) newKey() string {
	if u.prefix == "" {
		return uuid.New().String()
	}
	return u.prefix + "/" + uuid.New().String()
}

// KeyFromURL 从公开 URL 中解析对象 key
// 取 "/o/" 之后、"?" 之前的部分并做 URL 解码
func KeyFromURL(imageURL string) (string, error) {
	parts := strings.SplitN(imageURL, "/o/", 2)
	if len(parts) != 2 {
		return "", ErrInvalidImageURL
	}

	encoded := strings.SplitN(parts[1], "?", 2)[0]
	if encoded == "" {
		return "", ErrInvalidImageURL
	}

	key, err := url.PathUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	return key, nil
}
