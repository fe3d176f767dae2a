package repository

import (
	"context"
	"strings"

	"blog_post_api/internal/domain/post/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppendFunc 在行锁内根据已存评论计算需要追加的评论
type AppendFunc func(post *model.Post, stored []model.Comment) ([]model.Comment, error)

// PostRepository 帖子与评论存储
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	// List limit <= 0 时不分页
	List(ctx context.Context, offset, limit int) ([]model.Post, error)
	ListByCategory(ctx context.Context, category string) ([]model.Post, error)
	Search(ctx context.Context, query string) ([]model.Post, error)
	Delete(ctx context.Context, id uint) error

	AppendComments(ctx context.Context, postID uint, build AppendFunc) (*model.Post, []model.Comment, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// --- Post ---

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit("Comments").Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Preload("Comments", orderedComments).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	query := r.db.WithContext(ctx).Preload("Comments", orderedComments).Order("id ASC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByCategory(ctx context.Context, category string) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.WithContext(ctx).Preload("Comments", orderedComments).
		Where("category = ?", category).
		Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Search 标题或正文包含 query，不区分大小写
func (r *postRepository) Search(ctx context.Context, query string) ([]model.Post, error) {
	var posts []model.Post
	pattern := "%" + escapeLike(query) + "%"
	err := r.db.WithContext(ctx).Preload("Comments", orderedComments).
		Where("title ILIKE ? OR description ILIKE ?", pattern, pattern).
		Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，postgres 默认转义符为反斜杠
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Delete 先删评论再删帖子，帖子不存在返回 gorm.ErrRecordNotFound
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// --- Comment ---

// AppendComments 锁住帖子行后读取已有评论，由 build 决定追加内容
// 并发提交在行锁上串行化，每个提交都基于最新的评论列表计算
func (r *postRepository) AppendComments(ctx context.Context, postID uint, build AppendFunc) (*model.Post, []model.Comment, error) {
	var (
		post  model.Post
		added []model.Comment
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", postID).First(&post).Error; err != nil {
			return err
		}

		var stored []model.Comment
		if err := tx.Where("post_id = ?", postID).Order("id ASC").Find(&stored).Error; err != nil {
			return err
		}

		var err error
		added, err = build(&post, stored)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			return nil
		}

		for i := range added {
			added[i].PostID = postID
		}
		if err := tx.Create(&added).Error; err != nil {
			return err
		}
		post.Comments = append(stored, added...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &post, added, nil
}
