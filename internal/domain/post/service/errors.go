package service

import (
	"errors"

	"blog_post_api/internal/pkg/uploader"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotAuthor    = errors.New("only the author can delete this post")
	// ErrInvalidImageURL 图片 URL 无法解析出对象 key，帖子不会被删除
	ErrInvalidImageURL = uploader.ErrInvalidImageURL
)

// ValidationError 输入校验失败，Message 直接返回给调用方
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// 校验文案
const (
	msgImageRequired       = "Image is required."
	msgTitleRequired       = "Title is required and must be at least 3 characters long."
	msgTitleTooLong        = "Title must be at most 255 characters long."
	msgDescriptionRequired = "Description is required and must be at least 50 characters long."
	msgCategoryRequired    = "Category is required."
	msgCommentTooShort     = "Comment must be at least 3 characters long."
	msgNoNewComment        = "No new comment to add"
	msgInvalidComment      = "Comment is malformed."
	msgForeignComment      = "You can only add comments as yourself."
)

const (
	minTitleLen       = 3
	maxTitleLen       = 255 // posts.title VARCHAR(255)
	minDescriptionLen = 50
	minCommentLen     = 3
)
