package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"blog_post_api/internal/domain/post/model"
	"blog_post_api/internal/pkg/identity"
	"blog_post_api/pkg/cache"
	"blog_post_api/pkg/utils"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	PostCacheKeyPrefix = "post:"
	postListKey        = PostCacheKeyPrefix + "list:"
	postDetailKey      = PostCacheKeyPrefix + "detail:"
	postCategoryKey    = PostCacheKeyPrefix + "category:"
	postCategoriesKey  = PostCacheKeyPrefix + "categories"
)

// CacheRecorder 缓存命中统计
type CacheRecorder interface {
	RecordCacheOperation(keyPrefix string, hit bool)
}

// CachedPostService 读接口走缓存，任何写操作清空全部帖子缓存
type CachedPostService struct {
	PostService
	cache   cache.CacheService
	ttl     time.Duration
	metrics CacheRecorder
	log     *zap.Logger

	// 每次写操作加一，加载期间发生过写入的结果不回填
	gen atomic.Uint64
}

func NewCachedPostService(inner PostService, c cache.CacheService, ttl time.Duration, metrics CacheRecorder, log *zap.Logger) PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedPostService{
		PostService: inner,
		cache:       c,
		ttl:         ttl,
		metrics:     metrics,
		log:         log,
	}
}

func (s *CachedPostService) record(prefix string, hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(prefix, hit)
	}
}

// cached 通用读穿透
func cached[T any](ctx context.Context, s *CachedPostService, prefix, key string, load func() (T, error)) (T, error) {
	var value T
	if err := s.cache.Get(ctx, key, &value); err == nil {
		s.record(prefix, true)
		return value, nil
	}
	s.record(prefix, false)

	start := s.gen.Load()
	value, err := load()
	if err != nil {
		return value, err
	}
	if s.gen.Load() != start {
		return value, nil
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// invalidate 清除所有帖子相关缓存
func (s *CachedPostService) invalidate(ctx context.Context) {
	s.gen.Add(1)
	if err := s.cache.InvalidatePattern(ctx, PostCacheKeyPrefix+"*"); err != nil {
		s.log.Warn("cache invalidate failed", zap.Error(err))
	}
}

func (s *CachedPostService) ListPosts(ctx context.Context, p utils.Pagination) ([]model.PostView, error) {
	key := fmt.Sprintf("%s%d:%d", postListKey, p.Page, p.Limit)
	return cached(ctx, s, "post_list", key, func() ([]model.PostView, error) {
		return s.PostService.ListPosts(ctx, p)
	})
}

func (s *CachedPostService) GetPost(ctx context.Context, id uint) (*model.PostView, error) {
	key := fmt.Sprintf("%s%d", postDetailKey, id)
	return cached(ctx, s, "post_detail", key, func() (*model.PostView, error) {
		return s.PostService.GetPost(ctx, id)
	})
}

func (s *CachedPostService) ListByCategory(ctx context.Context, category string) ([]model.PostView, error) {
	return cached(ctx, s, "post_category", postCategoryKey+category, func() ([]model.PostView, error) {
		return s.PostService.ListByCategory(ctx, category)
	})
}

func (s *CachedPostService) Categories(ctx context.Context) ([]model.CategoryView, error) {
	return cached(ctx, s, "post_categories", postCategoriesKey, func() ([]model.CategoryView, error) {
		return s.PostService.Categories(ctx)
	})
}

func (s *CachedPostService) CreatePost(ctx context.Context, author identity.Identity, userImage string, in CreatePostInput) error {
	if err := s.PostService.CreatePost(ctx, author, userImage, in); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedPostService) UpdateComments(ctx context.Context, caller identity.Identity, postID uint, submitted []string) (int, error) {
	n, err := s.PostService.UpdateComments(ctx, caller, postID, submitted)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return n, nil
}

func (s *CachedPostService) AddComment(ctx context.Context, caller identity.Identity, postID uint, text string) error {
	if err := s.PostService.AddComment(ctx, caller, postID, text); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedPostService) DeletePost(ctx context.Context, caller identity.Identity, postID uint) error {
	if err := s.PostService.DeletePost(ctx, caller, postID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}
