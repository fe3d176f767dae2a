package model

import (
	"time"

	"blog_post_api/internal/pkg/identity"
)

// PostView 对外的帖子结构
type PostView struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	UserID      string   `json:"userid"`
	UserImage   string   `json:"userimage"`
	Comments    []string `json:"comments"`
}

// NewPostView comments 永远不为 nil，JSON 中输出 []
func NewPostView(p *Post) PostView {
	comments := make([]string, 0, len(p.Comments))
	for i := range p.Comments {
		comments = append(comments, p.Comments[i].Encoded())
	}
	return PostView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Category:    p.Category,
		UserID:      p.Author().Composite(),
		UserImage:   p.UserImage,
		Comments:    comments,
	}
}

func NewPostViews(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		views = append(views, NewPostView(&posts[i]))
	}
	return views
}

// CommentView 结构化评论
type CommentView struct {
	ID          uint              `json:"id"`
	Text        string            `json:"text"`
	Author      identity.Identity `json:"author"`
	UserID      string            `json:"userid"`
	DisplayName string            `json:"displayName"`
	IsAuthor    bool              `json:"isAuthor"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func NewCommentView(c *Comment, postAuthor identity.Identity) CommentView {
	author := c.Author()
	return CommentView{
		ID:          c.ID,
		Text:        c.Text,
		Author:      author,
		UserID:      author.Composite(),
		DisplayName: author.Name,
		IsAuthor:    identity.IsAuthor(author, postAuthor),
		CreatedAt:   c.CreatedAt,
	}
}

// CategoryView 分类及帖子数
type CategoryView struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}
