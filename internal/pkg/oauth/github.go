package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"blog_post_api/internal/pkg/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Profile 登录提供方返回的用户资料
type Profile struct {
	Subject   string
	Name      string
	Email     string
	AvatarURL string
}

// Provider 第三方登录提供方
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

var ErrEmptyProfile = errors.New("provider returned an empty profile")

const githubUserAPI = "https://api.github.com/user"

// GitHubProvider GitHub OAuth2 登录
type GitHubProvider struct {
	conf    *oauth2.Config
	userAPI string
}

func NewGitHubProvider(cfg config.GitHubOAuthConfig) *GitHubProvider {
	return &GitHubProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userAPI: githubUserAPI,
	}
}

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Exchange 用授权码换取 token 并拉取用户资料
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return p.fetchProfile(ctx, p.conf.Client(ctx, token))
}

func (p *GitHubProvider) fetchProfile(ctx context.Context, client *http.Client) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userAPI, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if u.ID == 0 {
		return nil, ErrEmptyProfile
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &Profile{
		Subject:   strconv.FormatInt(u.ID, 10),
		Name:      name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}, nil
}
