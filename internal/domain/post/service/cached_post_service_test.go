package service

import (
	"context"
	"testing"
	"time"

	"blog_post_api/internal/domain/post/model"
	"blog_post_api/internal/domain/post/repository"
	"blog_post_api/internal/pkg/uploader"
	"blog_post_api/pkg/cache"
	"blog_post_api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheCounter struct {
	hits, misses int
}

func (c *cacheCounter) RecordCacheOperation(prefix string, hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func TestCachedPostServiceInvalidatesOnWrite(t *testing.T) {
	repo := repository.NewMemoryPostRepository()
	up := uploader.NewUploader(uploader.NewMemoryStore(), "http://localhost:8080", "blog", 0)
	counter := &cacheCounter{}
	svc := NewCachedPostService(NewPostService(repo, up, Deps{}), cache.NewMemoryCache(), time.Minute, counter, nil)
	ctx := context.Background()

	require.NoError(t, svc.CreatePost(ctx, alice, "", validInput()))

	post, err := svc.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, post.Comments)

	_, err = svc.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.hits)

	require.NoError(t, svc.AddComment(ctx, bob, 1, "Fresh comment"))

	post, err = svc.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fresh comment|bob_456"}, post.Comments)
	assert.Equal(t, 2, counter.misses)
}

func TestCachedPostServiceDoesNotCacheErrors(t *testing.T) {
	repo := repository.NewMemoryPostRepository()
	up := uploader.NewUploader(uploader.NewMemoryStore(), "http://localhost:8080", "blog", 0)
	svc := NewCachedPostService(NewPostService(repo, up, Deps{}), cache.NewMemoryCache(), time.Minute, nil, nil)
	ctx := context.Background()

	_, err := svc.GetPost(ctx, 1)
	assert.ErrorIs(t, err, ErrPostNotFound)

	require.NoError(t, svc.CreatePost(ctx, alice, "", validInput()))
	post, err := svc.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)

	posts, err := svc.ListPosts(ctx, utils.Pagination{})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

// racingService 在读取完成、回填缓存之前插入一次写操作
type racingService struct {
	PostService
	during func()
}

func (r *racingService) GetPost(ctx context.Context, id uint) (*model.PostView, error) {
	view, err := r.PostService.GetPost(ctx, id)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return view, err
}

func TestCachedPostServiceSkipsFillAfterConcurrentWrite(t *testing.T) {
	repo := repository.NewMemoryPostRepository()
	up := uploader.NewUploader(uploader.NewMemoryStore(), "http://localhost:8080", "blog", 0)
	inner := &racingService{PostService: NewPostService(repo, up, Deps{})}
	svc := NewCachedPostService(inner, cache.NewMemoryCache(), time.Hour, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.CreatePost(ctx, alice, "", validInput()))
	inner.during = func() {
		require.NoError(t, svc.AddComment(ctx, bob, 1, "Written mid-load"))
	}

	stale, err := svc.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stale.Comments)

	fresh, err := svc.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Written mid-load|bob_456"}, fresh.Comments)
}
