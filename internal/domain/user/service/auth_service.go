package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog_post_api/internal/domain/user/model"
	"blog_post_api/internal/domain/user/repository"
	"blog_post_api/internal/pkg/identity"
	"blog_post_api/internal/pkg/oauth"
	"blog_post_api/pkg/utils"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// SessionUser 会话中的用户，Name 为组合身份 "<name>_<subject>"
type SessionUser struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session 登录会话
type Session struct {
	Token   string      `json:"-"`
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

// AuthService 第三方登录与会话
type AuthService interface {
	SignInURL(state string) string
	// Callback 授权码换取用户资料，落库后签发会话
	Callback(ctx context.Context, code string) (*Session, error)
	Session(token string) (*Session, error)
}

type authService struct {
	repo     repository.UserRepository
	provider oauth.Provider
}

func NewAuthService(repo repository.UserRepository, provider oauth.Provider) AuthService {
	return &authService{repo: repo, provider: provider}
}

func (s *authService) SignInURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

func (s *authService) Callback(ctx context.Context, code string) (*Session, error) {
	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:    profile.Name,
		Subject: profile.Subject,
		Email:   profile.Email,
		Image:   profile.AvatarURL,
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	// 组合身份只在签发会话时生成一次
	id := identity.Identity{Name: profile.Name, Subject: profile.Subject}
	token, expireAt, err := utils.GenerateToken(id, user.Email, user.Image)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &Session{
		Token:   token,
		User:    SessionUser{Name: id.Composite(), Email: user.Email, Image: user.Image},
		Expires: *expireAt,
	}, nil
}

func (s *authService) Session(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	session := &Session{
		Token: token,
		User:  SessionUser{Name: claims.Name, Email: claims.Email, Image: claims.Image},
	}
	if claims.ExpiresAt != nil {
		session.Expires = claims.ExpiresAt.Time
	}
	return session, nil
}
