package model

import (
	"blog_post_api/internal/pkg/identity"
	baseModel "blog_post_api/pkg/model"
)

// User 通过第三方登录的用户，subject 为登录提供方分配的唯一 ID
type User struct {
	baseModel.BaseModel
	Name    string `gorm:"size:255;not null" json:"name"`
	Subject string `gorm:"size:255;uniqueIndex;not null" json:"subject"`
	Email   string `gorm:"size:255" json:"email"`
	Image   string `gorm:"size:1024" json:"image"`
}

func (u *User) Identity() identity.Identity {
	return identity.Identity{Name: u.Name, Subject: u.Subject}
}
