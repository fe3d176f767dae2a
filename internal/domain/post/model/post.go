package model

import (
	"time"

	"blog_post_api/internal/pkg/identity"
	baseModel "blog_post_api/pkg/model"
)

// Post 博客帖子
// 作者身份拆成显示名和 subject 两列存储，对外再拼回 "<name>_<subject>"
type Post struct {
	baseModel.BaseModel
	Title         string `gorm:"size:255;not null" json:"title"`
	Description   string `gorm:"type:text;not null" json:"description"`
	Image         string `gorm:"size:1024;not null" json:"image"`
	Category      string `gorm:"size:64;index;not null" json:"category"`
	AuthorName    string `gorm:"size:255;not null" json:"authorName"`
	AuthorSubject string `gorm:"size:255;index;not null" json:"authorSubject"`
	UserImage     string `gorm:"size:1024" json:"userImage"`

	// 关联，按 id 升序即插入顺序
	Comments []Comment `gorm:"constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// Author 帖子作者
func (p *Post) Author() identity.Identity {
	return identity.Identity{Name: p.AuthorName, Subject: p.AuthorSubject}
}

// Comment 评论，只追加不修改
type Comment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostID        uint      `gorm:"index;not null" json:"postId"`
	AuthorName    string    `gorm:"size:255;not null" json:"authorName"`
	AuthorSubject string    `gorm:"size:255;not null" json:"authorSubject"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (c *Comment) Author() identity.Identity {
	return identity.Identity{Name: c.AuthorName, Subject: c.AuthorSubject}
}

// Encoded "<text>|<name>_<subject>"
func (c *Comment) Encoded() string {
	return identity.EncodeComment(c.Text, c.Author())
}

// NewComment 由正文和作者构造待插入的评论
func NewComment(postID uint, text string, author identity.Identity) Comment {
	return Comment{
		PostID:        postID,
		AuthorName:    author.Name,
		AuthorSubject: author.Subject,
		Text:          text,
	}
}
