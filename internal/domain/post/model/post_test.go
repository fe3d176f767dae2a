package model

import (
	"encoding/json"
	"testing"

	"blog_post_api/internal/pkg/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostViewEmptyComments(t *testing.T) {
	p := &Post{Title: "Hello", AuthorName: "alice", AuthorSubject: "123"}
	p.ID = 1

	data, err := json.Marshal(NewPostView(p))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Hello","description":"","image":"","category":"","userid":"alice_123","userimage":"","comments":[]}`, string(data))
}

func TestNewPostViewEncodesComments(t *testing.T) {
	p := &Post{AuthorName: "alice", AuthorSubject: "123"}
	p.Comments = []Comment{
		NewComment(1, "Nice post", identity.Identity{Name: "alice", Subject: "123"}),
		NewComment(1, "a|b", identity.Identity{Name: "bob_x", Subject: "9"}),
	}

	view := NewPostView(p)
	assert.Equal(t, []string{"Nice post|alice_123", "a|b|bob_x_9"}, view.Comments)

	text, author, err := identity.DecodeComment(view.Comments[1])
	require.NoError(t, err)
	assert.Equal(t, "a|b", text)
	assert.Equal(t, "bob_x", author.Name)
}

func TestNewCommentViewMarksAuthor(t *testing.T) {
	postAuthor := identity.Identity{Name: "alice", Subject: "123"}
	c := NewComment(1, "hi there", identity.Identity{Name: "Alice Renamed", Subject: "123"})

	view := NewCommentView(&c, postAuthor)
	assert.True(t, view.IsAuthor)
	assert.Equal(t, "Alice Renamed", view.DisplayName)
	assert.Equal(t, "Alice Renamed_123", view.UserID)
}
