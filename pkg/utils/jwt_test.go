package utils

import (
	"strings"
	"testing"

	"blog_post_api/internal/pkg/config"
	"blog_post_api/internal/pkg/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSecret(t *testing.T) {
	prev := config.GlobalConfig.JWT
	config.GlobalConfig.JWT = config.JWTConfig{Secret: strings.Repeat("k", 32), Expire: 1}
	t.Cleanup(func() { config.GlobalConfig.JWT = prev })
}

func TestGenerateAndParseToken(t *testing.T) {
	setupSecret(t)

	id := identity.Identity{Name: "alice", Subject: "123"}
	token, expireAt, err := GenerateToken(id, "alice@example.com", "https://avatars/alice.png")
	require.NoError(t, err)
	require.NotNil(t, expireAt)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice_123", claims.Name)
	assert.Equal(t, id, claims.Identity())
	assert.Equal(t, "https://avatars/alice.png", claims.Image)
}

func TestParseTokenWrongSecret(t *testing.T) {
	setupSecret(t)

	token, _, err := GenerateToken(identity.Identity{Name: "bob", Subject: "7"}, "", "")
	require.NoError(t, err)

	config.GlobalConfig.JWT.Secret = strings.Repeat("x", 32)
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestGetPageOffset(t *testing.T) {
	p := Pagination{Page: 0, Limit: 500}
	offset, limit := p.GetPageOffset()
	assert.Equal(t, 0, offset)
	assert.Equal(t, 100, limit)

	p = Pagination{Page: 3, Limit: 10}
	offset, limit = p.GetPageOffset()
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, limit)
}
