package push

import (
	"testing"

	"blog_post_api/internal/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestNewAliyunPushServiceRequiresConfig(t *testing.T) {
	_, err := NewAliyunPushService(config.PushConfig{})
	assert.ErrorIs(t, err, ErrPushNotConfigured)
}

func TestBuildRequest(t *testing.T) {
	req := buildRequest(42, "ACCOUNT", "123", "New comment", "bob commented", map[string]string{"postId": "7"})

	assert.Equal(t, "ACCOUNT", req.Target)
	assert.Equal(t, "123", req.TargetValue)
	assert.Equal(t, "NOTICE", req.PushType)
	assert.Equal(t, `{"postId":"7"}`, req.AndroidExtParameters)
	assert.Equal(t, req.AndroidExtParameters, req.IOSExtParameters)
}
