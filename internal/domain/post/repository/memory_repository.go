package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"blog_post_api/internal/domain/post/model"

	"gorm.io/gorm"
)

// MemoryPostRepository 进程内实现，用于本地调试和测试
// 整个仓库一把锁，AppendComments 的语义与数据库行锁一致
type MemoryPostRepository struct {
	mu            sync.Mutex
	posts         map[uint]*model.Post
	order         []uint
	nextPostID    uint
	nextCommentID uint
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[uint]*model.Post)}
}

// clone 返回副本，调用方修改不影响仓库
func clone(p *model.Post) model.Post {
	cp := *p
	cp.Comments = append([]model.Comment(nil), p.Comments...)
	return cp
}

func (r *MemoryPostRepository) Create(ctx context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextPostID++
	now := time.Now()
	post.ID = r.nextPostID
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Comments = nil

	stored := clone(post)
	r.posts[post.ID] = &stored
	r.order = append(r.order, post.ID)
	return nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := clone(p)
	return &cp, nil
}

func (r *MemoryPostRepository) filter(match func(*model.Post) bool) []model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts := make([]model.Post, 0)
	for _, id := range r.order {
		if p := r.posts[id]; match(p) {
			posts = append(posts, clone(p))
		}
	}
	return posts
}

func (r *MemoryPostRepository) List(ctx context.Context, offset, limit int) ([]model.Post, error) {
	posts := r.filter(func(*model.Post) bool { return true })
	if limit <= 0 {
		return posts, nil
	}
	if offset >= len(posts) {
		return []model.Post{}, nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end], nil
}

func (r *MemoryPostRepository) ListByCategory(ctx context.Context, category string) ([]model.Post, error) {
	return r.filter(func(p *model.Post) bool { return p.Category == category }), nil
}

func (r *MemoryPostRepository) Search(ctx context.Context, query string) ([]model.Post, error) {
	q := strings.ToLower(query)
	return r.filter(func(p *model.Post) bool {
		return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q)
	}), nil
}

func (r *MemoryPostRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.posts, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryPostRepository) AppendComments(ctx context.Context, postID uint, build AppendFunc) (*model.Post, []model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}

	snapshot := clone(p)
	added, err := build(&snapshot, snapshot.Comments)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	for i := range added {
		r.nextCommentID++
		added[i].ID = r.nextCommentID
		added[i].PostID = postID
		added[i].CreatedAt = now
	}
	p.Comments = append(p.Comments, added...)

	cp := clone(p)
	return &cp, added, nil
}

// CategoryCounts 同时实现 CategoryReporter
func (r *MemoryPostRepository) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int64)
	for _, p := range r.posts {
		counts[p.Category]++
	}
	return counts, nil
}
