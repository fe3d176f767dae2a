package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"blog_post_api/internal/domain/post/model"
	"blog_post_api/internal/domain/post/repository"
	"blog_post_api/internal/pkg/config"
	"blog_post_api/internal/pkg/identity"
	"blog_post_api/internal/pkg/notify"
	"blog_post_api/internal/pkg/worker"
	"blog_post_api/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatePostInput 发帖输入
type CreatePostInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Category    string `json:"category"`
}

// PostService 帖子服务接口
type PostService interface {
	CreatePost(ctx context.Context, author identity.Identity, userImage string, in CreatePostInput) error
	ListPosts(ctx context.Context, p utils.Pagination) ([]model.PostView, error)
	GetPost(ctx context.Context, id uint) (*model.PostView, error)
	ListByCategory(ctx context.Context, category string) ([]model.PostView, error)
	Search(ctx context.Context, query string) ([]model.PostView, error)
	// UpdateComments 提交的列表视为 "客户端看到的快照 + 新增尾部"，只追加尾部
	UpdateComments(ctx context.Context, caller identity.Identity, postID uint, submitted []string) (int, error)
	AddComment(ctx context.Context, caller identity.Identity, postID uint, text string) error
	ListComments(ctx context.Context, postID uint) ([]model.CommentView, error)
	DeletePost(ctx context.Context, caller identity.Identity, postID uint) error
	Categories(ctx context.Context) ([]model.CategoryView, error)
}

// ImageStore 删除帖子图片
type ImageStore interface {
	DeleteByURL(ctx context.Context, imageURL string) error
}

// Notifier 作者通知队列
type Notifier interface {
	AddTask(task worker.NotificationTask)
}

// Recorder 业务指标
type Recorder interface {
	RecordPostCreated()
	RecordPostDeleted()
	RecordCommentsAdded(n int)
}

// Deps 可选依赖，为 nil 时跳过对应功能
type Deps struct {
	Reporter   repository.CategoryReporter
	Categories []config.CategoryConfig
	Broker     notify.Broker
	Notifier   Notifier
	Metrics    Recorder
	Logger     *zap.Logger
}

type postService struct {
	repo   repository.PostRepository
	images ImageStore
	deps   Deps
	log    *zap.Logger
}

func NewPostService(repo repository.PostRepository, images ImageStore, deps Deps) PostService {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &postService{repo: repo, images: images, deps: deps, log: log}
}

func textLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// validatePost 按顺序校验，只返回第一个失败项
func validatePost(in CreatePostInput) error {
	switch {
	case strings.TrimSpace(in.Image) == "":
		return invalid(msgImageRequired)
	case textLen(in.Title) < minTitleLen:
		return invalid(msgTitleRequired)
	case textLen(in.Title) > maxTitleLen:
		return invalid(msgTitleTooLong)
	case textLen(in.Description) < minDescriptionLen:
		return invalid(msgDescriptionRequired)
	case strings.TrimSpace(in.Category) == "":
		return invalid(msgCategoryRequired)
	}
	return nil
}

func (s *postService) CreatePost(ctx context.Context, author identity.Identity, userImage string, in CreatePostInput) error {
	if err := validatePost(in); err != nil {
		return err
	}

	post := &model.Post{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Image:         in.Image,
		Category:      strings.TrimSpace(in.Category),
		AuthorName:    author.Name,
		AuthorSubject: author.Subject,
		UserImage:     userImage,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordPostCreated()
	}
	s.log.Info("post created", zap.Uint("post_id", post.ID), zap.String("author", author.Composite()))
	return nil
}

func (s *postService) ListPosts(ctx context.Context, p utils.Pagination) ([]model.PostView, error) {
	offset, limit := 0, 0
	if p.Requested() {
		offset, limit = p.GetPageOffset()
	}
	posts, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return model.NewPostViews(posts), nil
}

func (s *postService) getPost(ctx context.Context, id uint) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

func (s *postService) GetPost(ctx context.Context, id uint) (*model.PostView, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	view := model.NewPostView(post)
	return &view, nil
}

func (s *postService) ListByCategory(ctx context.Context, category string) ([]model.PostView, error) {
	posts, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list category %q: %w", category, err)
	}
	return model.NewPostViews(posts), nil
}

// NormalizeQuery 去首尾空白、合并连续空白并转小写
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func (s *postService) Search(ctx context.Context, query string) ([]model.PostView, error) {
	posts, err := s.repo.Search(ctx, NormalizeQuery(query))
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return model.NewPostViews(posts), nil
}

// newTail 计算提交列表相对已存列表新增的部分
// 提交列表 = 调用者看到的快照 + 新评论。快照可能落后于已存列表，
// 公共前缀之后与已存评论重复的元素按次数抵消，不会重复写入
func newTail(caller identity.Identity, postID uint, stored []model.Comment, submitted []string) ([]model.Comment, error) {
	prefix := 0
	for prefix < len(stored) && prefix < len(submitted) && stored[prefix].Encoded() == submitted[prefix] {
		prefix++
	}

	seen := make(map[string]int, len(stored)-prefix)
	for i := prefix; i < len(stored); i++ {
		seen[stored[i].Encoded()]++
	}

	added := make([]model.Comment, 0, len(submitted)-prefix)
	for _, encoded := range submitted[prefix:] {
		if seen[encoded] > 0 {
			seen[encoded]--
			continue
		}
		text, err := callerText(caller, encoded)
		if err != nil {
			return nil, err
		}
		if textLen(text) < minCommentLen {
			return nil, invalid(msgCommentTooShort)
		}
		added = append(added, model.NewComment(postID, text, caller))
	}
	if len(added) == 0 {
		return nil, invalid(msgNoNewComment)
	}
	return added, nil
}

// callerText 取出调用者本人评论的正文
// 显示名里可能带 "|"，按调用者完整标识做后缀匹配，不能只按最后一个分隔符切
func callerText(caller identity.Identity, encoded string) (string, error) {
	suffix := identity.EncodeComment("", caller)
	if strings.HasSuffix(encoded, suffix) {
		return strings.TrimSuffix(encoded, suffix), nil
	}
	if _, _, err := identity.DecodeComment(encoded); err != nil {
		return "", invalid(msgInvalidComment)
	}
	return "", invalid(msgForeignComment)
}

func (s *postService) UpdateComments(ctx context.Context, caller identity.Identity, postID uint, submitted []string) (int, error) {
	post, added, err := s.repo.AppendComments(ctx, postID, func(_ *model.Post, stored []model.Comment) ([]model.Comment, error) {
		return newTail(caller, postID, stored, submitted)
	})
	if err != nil {
		return 0, s.appendError(postID, err)
	}

	s.afterAppend(ctx, caller, post, added)
	return len(added), nil
}

func (s *postService) AddComment(ctx context.Context, caller identity.Identity, postID uint, text string) error {
	if textLen(text) < minCommentLen {
		return invalid(msgCommentTooShort)
	}

	post, added, err := s.repo.AppendComments(ctx, postID, func(*model.Post, []model.Comment) ([]model.Comment, error) {
		return []model.Comment{model.NewComment(postID, text, caller)}, nil
	})
	if err != nil {
		return s.appendError(postID, err)
	}

	s.afterAppend(ctx, caller, post, added)
	return nil
}

func (s *postService) appendError(postID uint, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrPostNotFound
	default:
		return fmt.Errorf("append comments to post %d: %w", postID, err)
	}
}

// afterAppend 评论写入后的副作用：实时推送、作者通知、指标
// 都是尽力而为，失败只记日志
func (s *postService) afterAppend(ctx context.Context, caller identity.Identity, post *model.Post, added []model.Comment) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordCommentsAdded(len(added))
	}

	if s.deps.Broker != nil {
		views := make([]model.CommentView, 0, len(added))
		for i := range added {
			views = append(views, model.NewCommentView(&added[i], post.Author()))
		}
		data, _ := json.Marshal(views)
		event := notify.Event{Type: notify.EventCommentAdded, PostID: post.ID, Data: data}
		if err := s.deps.Broker.Publish(ctx, post.ID, event); err != nil {
			s.log.Warn("publish comment event failed", zap.Uint("post_id", post.ID), zap.Error(err))
		}
	}

	if s.deps.Notifier != nil && !caller.Equal(post.Author()) {
		s.deps.Notifier.AddTask(worker.NotificationTask{
			AuthorSubject: post.AuthorSubject,
			PostID:        post.ID,
			PostTitle:     post.Title,
			CommenterName: caller.Name,
		})
	}
}

func (s *postService) ListComments(ctx context.Context, postID uint) ([]model.CommentView, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	views := make([]model.CommentView, 0, len(post.Comments))
	for i := range post.Comments {
		views = append(views, model.NewCommentView(&post.Comments[i], post.Author()))
	}
	return views, nil
}

// DeletePost 只有作者可以删除
// 先删图片，图片 URL 无法解析或删除失败时保留帖子；图片删除后帖子删除失败不做补偿
func (s *postService) DeletePost(ctx context.Context, caller identity.Identity, postID uint) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if !caller.Equal(post.Author()) {
		return ErrNotAuthor
	}

	if err := s.images.DeleteByURL(ctx, post.Image); err != nil {
		if errors.Is(err, ErrInvalidImageURL) {
			return err
		}
		return fmt.Errorf("delete image of post %d: %w", postID, err)
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		s.log.Error("post image deleted but record delete failed",
			zap.Uint("post_id", postID),
			zap.String("image", post.Image),
			zap.Error(err),
		)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post %d: %w", postID, err)
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordPostDeleted()
	}
	if s.deps.Broker != nil {
		if err := s.deps.Broker.Publish(ctx, postID, notify.Event{Type: notify.EventPostDeleted, PostID: postID}); err != nil {
			s.log.Warn("publish delete event failed", zap.Uint("post_id", postID), zap.Error(err))
		}
	}
	return nil
}

// Categories 配置的分类及各自帖子数，未配置统计时计数为 0
func (s *postService) Categories(ctx context.Context) ([]model.CategoryView, error) {
	var counts map[string]int64
	if s.deps.Reporter != nil {
		c, err := s.deps.Reporter.CategoryCounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("category counts: %w", err)
		}
		counts = c
	}

	views := make([]model.CategoryView, 0, len(s.deps.Categories))
	for _, c := range s.deps.Categories {
		views = append(views, model.CategoryView{Value: c.Value, Label: c.Label, Count: counts[c.Value]})
	}
	return views, nil
}
