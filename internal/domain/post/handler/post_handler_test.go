package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog_post_api/internal/domain/post/model"
	"blog_post_api/internal/domain/post/repository"
	"blog_post_api/internal/domain/post/service"
	"blog_post_api/internal/pkg/config"
	"blog_post_api/internal/pkg/identity"
	"blog_post_api/internal/pkg/middleware"
	"blog_post_api/internal/pkg/notify"
	"blog_post_api/internal/pkg/uploader"
	"blog_post_api/pkg/response"
	"blog_post_api/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type postJSON struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	UserID      string   `json:"userid"`
	UserImage   string   `json:"userimage"`
	Comments    []string `json:"comments"`
}

type testEnv struct {
	router *gin.Engine
	store  *uploader.MemoryStore
	up     *uploader.Uploader
	broker *notify.MemoryBroker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.GlobalConfig.JWT
	config.GlobalConfig.JWT = config.JWTConfig{Secret: strings.Repeat("t", 32), Expire: 1}
	t.Cleanup(func() { config.GlobalConfig.JWT = prev })

	repo := repository.NewMemoryPostRepository()
	store := uploader.NewMemoryStore()
	up := uploader.NewUploader(store, "http://localhost:8080", "blog", 0)
	broker := notify.NewMemoryBroker()
	svc := service.NewPostService(repo, up, service.Deps{
		Reporter:   repo,
		Categories: []config.CategoryConfig{{Value: "data", Label: "Data"}},
		Broker:     broker,
	})

	h := NewPostHandler(svc, nil)
	live := NewLiveHandler(broker, nil, nil, nil)

	r := gin.New()
	api := r.Group("/api")
	blog := api.Group("/blog-post")
	blog.GET("/get-all-posts", h.GetAllPosts)
	blog.GET("/blog-details", h.GetBlogDetails)
	blog.GET("/comments", h.GetComments)
	blog.GET("/live", live.Live)
	authed := blog.Group("", middleware.AuthMiddleware())
	authed.POST("/add-post", h.AddPost)
	authed.PUT("/update-post", h.UpdatePost)
	authed.DELETE("/delete-post", h.DeletePost)
	authed.POST("/comments", h.AddComment)
	api.GET("/category", h.GetByCategory)
	api.GET("/search", h.Search)
	api.GET("/categories", h.GetCategories)

	return &testEnv{router: r, store: store, up: up, broker: broker}
}

func tokenFor(t *testing.T, id identity.Identity) string {
	t.Helper()
	token, _, err := utils.GenerateToken(id, "", "https://avatars/"+id.Name+".png")
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (e *testEnv) uploadImage(t *testing.T) string {
	t.Helper()
	require.NoError(t, e.store.Put(context.Background(), "blog/e2e", strings.NewReader("png"), "image/png"))
	return e.up.PublicURL("blog/e2e")
}

func validPost(image string) map[string]string {
	return map[string]string{
		"title":       "My first post",
		"description": strings.Repeat("A description that is long enough. ", 2),
		"image":       image,
		"category":    "data",
	}
}

func TestEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	alice := identity.Identity{Name: "alice", Subject: "123"}
	token := tokenFor(t, alice)
	image := env.uploadImage(t)

	code, res := env.do(t, http.MethodPost, "/api/blog-post/add-post", token, validPost(image))
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Success)
	assert.Equal(t, "New blog post added successfully", res.Message)

	_, res = env.do(t, http.MethodGet, "/api/blog-post/get-all-posts", "", nil)
	require.True(t, res.Success)
	var posts []postJSON
	require.NoError(t, json.Unmarshal(res.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "alice_123", posts[0].UserID)
	assert.Equal(t, "https://avatars/alice.png", posts[0].UserImage)
	assert.NotNil(t, posts[0].Comments)
	assert.Empty(t, posts[0].Comments)
	id := posts[0].ID

	_, res = env.do(t, http.MethodPut, "/api/blog-post/update-post", token, map[string]interface{}{
		"id":       id,
		"comments": []string{"Nice post|alice_123"},
	})
	assert.True(t, res.Success)
	assert.Equal(t, "Blog post updated", res.Message)

	_, res = env.do(t, http.MethodGet, "/api/blog-post/blog-details?blogID=1", "", nil)
	require.True(t, res.Success)
	var post postJSON
	require.NoError(t, json.Unmarshal(res.Data, &post))
	require.Len(t, post.Comments, 1)
	text, author, err := identity.DecodeComment(post.Comments[0])
	require.NoError(t, err)
	assert.Equal(t, "Nice post", text)
	assert.Equal(t, "alice_123", author.Composite())

	_, res = env.do(t, http.MethodDelete, "/api/blog-post/delete-post?id=1", token, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "Blog deleted successfully", res.Message)
	assert.False(t, env.store.Has("blog/e2e"))

	_, res = env.do(t, http.MethodGet, "/api/blog-post/blog-details?blogID=1", "", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to fetch the blog details! Please try again", res.Message)
}

func TestAddPostValidationMessages(t *testing.T) {
	env := newTestEnv(t)
	token := tokenFor(t, identity.Identity{Name: "alice", Subject: "123"})

	body := validPost("")
	code, res := env.do(t, http.MethodPost, "/api/blog-post/add-post", token, body)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, res.Success)
	assert.Equal(t, "Image is required.", res.Message)

	body = validPost("http://img/o/x")
	body["description"] = "short"
	_, res = env.do(t, http.MethodPost, "/api/blog-post/add-post", token, body)
	assert.Equal(t, "Description is required and must be at least 50 characters long.", res.Message)
}

func TestWritesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	code, res := env.do(t, http.MethodPost, "/api/blog-post/add-post", "", validPost("x"))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, res.Success)

	code, _ = env.do(t, http.MethodPut, "/api/blog-post/update-post", "", map[string]interface{}{"id": 1})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGetAllPostsEmpty(t *testing.T) {
	env := newTestEnv(t)

	_, res := env.do(t, http.MethodGet, "/api/blog-post/get-all-posts", "", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to fetch blog posts. Please try again", res.Message)
}

func TestUpdatePostShortCommentAndStringID(t *testing.T) {
	env := newTestEnv(t)
	bob := identity.Identity{Name: "bob", Subject: "456"}
	token := tokenFor(t, bob)
	env.do(t, http.MethodPost, "/api/blog-post/add-post", token, validPost(env.uploadImage(t)))

	_, res := env.do(t, http.MethodPut, "/api/blog-post/update-post", token, map[string]interface{}{
		"id":       "1",
		"comments": []string{"ok|bob_456"},
	})
	assert.False(t, res.Success)
	assert.Equal(t, "Comment must be at least 3 characters long.", res.Message)

	_, res = env.do(t, http.MethodPut, "/api/blog-post/update-post", token, map[string]interface{}{
		"id":       "999",
		"comments": []string{"valid comment|bob_456"},
	})
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to update the post! Please try again", res.Message)
}

func TestDeletePostByOtherUser(t *testing.T) {
	env := newTestEnv(t)
	owner := tokenFor(t, identity.Identity{Name: "alice", Subject: "123"})
	other := tokenFor(t, identity.Identity{Name: "alice", Subject: "999"})
	env.do(t, http.MethodPost, "/api/blog-post/add-post", owner, validPost(env.uploadImage(t)))

	_, res := env.do(t, http.MethodDelete, "/api/blog-post/delete-post?id=1", other, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "You can only delete your own posts", res.Message)
	assert.True(t, env.store.Has("blog/e2e"))
}

func TestDeletePostUnparseableImage(t *testing.T) {
	env := newTestEnv(t)
	token := tokenFor(t, identity.Identity{Name: "alice", Subject: "123"})
	env.do(t, http.MethodPost, "/api/blog-post/add-post", token, validPost("https://cdn.example/no-storage-path.png"))

	_, res := env.do(t, http.MethodDelete, "/api/blog-post/delete-post?id=1", token, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to delete the blog! Please try again", res.Message)

	_, res = env.do(t, http.MethodGet, "/api/blog-post/blog-details?blogID=1", "", nil)
	assert.True(t, res.Success)
}

func TestCategorySearchAndComments(t *testing.T) {
	env := newTestEnv(t)
	token := tokenFor(t, identity.Identity{Name: "alice", Subject: "123"})
	env.do(t, http.MethodPost, "/api/blog-post/add-post", token, validPost(env.uploadImage(t)))

	_, res := env.do(t, http.MethodGet, "/api/category?categoryID=data", "", nil)
	var posts []postJSON
	require.NoError(t, json.Unmarshal(res.Data, &posts))
	assert.Len(t, posts, 1)

	_, res = env.do(t, http.MethodGet, "/api/category?categoryID=science", "", nil)
	assert.True(t, res.Success)
	assert.JSONEq(t, `[]`, string(res.Data))

	_, res = env.do(t, http.MethodGet, "/api/search?query=%20%20FIRST%20%20post", "", nil)
	require.NoError(t, json.Unmarshal(res.Data, &posts))
	assert.Len(t, posts, 1)

	_, res = env.do(t, http.MethodPost, "/api/blog-post/comments", token, map[string]interface{}{"id": 1, "text": "Structured comment"})
	assert.True(t, res.Success)

	_, res = env.do(t, http.MethodGet, "/api/blog-post/comments?blogID=1", "", nil)
	var comments []struct {
		Text     string `json:"text"`
		UserID   string `json:"userid"`
		IsAuthor bool   `json:"isAuthor"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "alice_123", comments[0].UserID)
	assert.True(t, comments[0].IsAuthor)

	_, res = env.do(t, http.MethodGet, "/api/categories", "", nil)
	assert.JSONEq(t, `[{"value":"data","label":"Data","count":1}]`, string(res.Data))
}

func TestLiveReceivesComments(t *testing.T) {
	env := newTestEnv(t)
	token := tokenFor(t, identity.Identity{Name: "alice", Subject: "123"})
	env.do(t, http.MethodPost, "/api/blog-post/add-post", token, validPost(env.uploadImage(t)))

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/blog-post/live?blogID=1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 订阅在升级之后建立，等待其生效
	require.Eventually(t, func() bool { return env.broker.Subscribers(1) == 1 }, 2*time.Second, 10*time.Millisecond)

	_, res := env.do(t, http.MethodPost, "/api/blog-post/comments", token, map[string]interface{}{"id": 1, "text": "Live comment"})
	require.True(t, res.Success)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.EventCommentAdded, ev.Type)
	assert.Equal(t, uint(1), ev.PostID)
	assert.Contains(t, string(ev.Data), "Live comment")
}

type brokenSearch struct {
	service.PostService
}

func (brokenSearch) Search(context.Context, string) ([]model.PostView, error) {
	return nil, errors.New("connection reset")
}

func TestSearchFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/search", NewPostHandler(brokenSearch{}, nil).Search)

	req := httptest.NewRequest(http.MethodGet, "/api/search?query=go", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, response.MsgSearchFailed, res.Message)
}
