package identity

import (
	"errors"
	"strings"
)

const (
	// subjectSep 显示名与身份提供方 subject 之间的分隔符
	subjectSep = "_"
	// commentSep 评论正文与作者身份之间的分隔符
	commentSep = "|"
)

var (
	ErrInvalidComposite = errors.New("invalid composite identity")
	ErrInvalidComment   = errors.New("invalid encoded comment")
)

// Identity 用户身份：显示名 + 身份提供方分配的 subject
type Identity struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

// Composite 返回 "<name>_<subject>"，同名用户只靠 subject 区分
func (i Identity) Composite() string {
	return i.Name + subjectSep + i.Subject
}

// IsZero 是否为空身份
func (i Identity) IsZero() bool {
	return i.Name == "" && i.Subject == ""
}

// Equal 以 subject 为准；subject 缺失时退化为比较整体
func (i Identity) Equal(o Identity) bool {
	if i.Subject != "" || o.Subject != "" {
		return i.Subject == o.Subject
	}
	return i.Name == o.Name
}

// Parse 解析组合身份串
// 按最后一个 "_" 切分，显示名本身可以包含下划线
func Parse(composite string) (Identity, error) {
	idx := strings.LastIndex(composite, subjectSep)
	if idx <= 0 || idx == len(composite)-1 {
		return Identity{}, ErrInvalidComposite
	}
	return Identity{
		Name:    composite[:idx],
		Subject: composite[idx+1:],
	}, nil
}

// DisplayName 去掉 subject 后缀，解析失败时原样返回
func DisplayName(composite string) string {
	id, err := Parse(composite)
	if err != nil {
		return composite
	}
	return id.Name
}

// EncodeComment 编码为 "<text>|<name>_<subject>"
func EncodeComment(text string, author Identity) string {
	return text + commentSep + author.Composite()
}

// DecodeComment 解码评论串
// 按最后一个 "|" 切分，正文中允许出现 "|"
func DecodeComment(encoded string) (string, Identity, error) {
	idx := strings.LastIndex(encoded, commentSep)
	if idx < 0 {
		return "", Identity{}, ErrInvalidComment
	}
	author, err := Parse(encoded[idx+1:])
	if err != nil {
		return "", Identity{}, ErrInvalidComment
	}
	return encoded[:idx], author, nil
}

// IsAuthor 评论者是否为帖子作者（列表中显示 "(Author)"）
func IsAuthor(commenter, postAuthor Identity) bool {
	return commenter.Equal(postAuthor)
}
