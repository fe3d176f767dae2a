package uploader

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore 外部对象存储
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// URLSigner 支持签名直链的存储（读取时直接 302 到存储端）
type URLSigner interface {
	SignURL(key string, ttl time.Duration) (string, error)
}
