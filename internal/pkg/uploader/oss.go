package uploader

import (
	"context"
	"io"
	"time"

	"blog_post_api/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// AliyunOSSStore 阿里云 OSS 实现
type AliyunOSSStore struct {
	client *oss.Client
	bucket *oss.Bucket
}

func NewAliyunOSSStore(cfg config.OSSConfig) (*AliyunOSSStore, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSStore{
		client: client,
		bucket: bucket,
	}, nil
}

func (s *AliyunOSSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	return s.bucket.PutObject(key, r, oss.ContentType(contentType), oss.WithContext(ctx))
}

func (s *AliyunOSSStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	body, err := s.bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		if svcErr, ok := err.(oss.ServiceError); ok && svcErr.StatusCode == 404 {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	return body, "", nil
}

// Delete OSS 删除不存在的对象也返回成功
func (s *AliyunOSSStore) Delete(ctx context.Context, key string) error {
	return s.bucket.DeleteObject(key, oss.WithContext(ctx))
}

// SignURL bucket 为私有读，图片通过签名 URL 访问
func (s *AliyunOSSStore) SignURL(key string, ttl time.Duration) (string, error) {
	return s.bucket.SignURL(key, oss.HTTPGet, int64(ttl.Seconds()))
}
