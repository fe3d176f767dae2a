package handler

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"blog_post_api/internal/domain/post/service"
	"blog_post_api/internal/pkg/middleware"
	"blog_post_api/pkg/response"
	"blog_post_api/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	service service.PostService
	log     *zap.Logger
}

func NewPostHandler(s service.PostService, log *zap.Logger) *PostHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostHandler{service: s, log: log}
}

// PostID 兼容数字和数字字符串两种 JSON 写法
type PostID uint

func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = PostID(v)
	return nil
}

// UpdatePostInput 更新评论输入
type UpdatePostInput struct {
	ID       PostID   `json:"id" swaggertype:"integer"`
	Comments []string `json:"comments"`
}

// AddCommentInput 追加单条评论
type AddCommentInput struct {
	ID   PostID `json:"id" swaggertype:"integer"`
	Text string `json:"text"`
}

func parseID(raw string) (uint, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// validationMessage 校验错误返回其文案
func validationMessage(err error) (string, bool) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	return "", false
}

// AddPost 发帖
// @Summary 发布帖子
// @Tags Blog
// @Accept json
// @Produce json
// @Param input body service.CreatePostInput true "帖子内容"
// @Success 200 {object} response.Response
// @Router /blog-post/add-post [post]
func (h *PostHandler) AddPost(c *gin.Context) {
	var input service.CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, response.MsgGenericWrite)
		return
	}

	author, _ := middleware.CurrentIdentity(c)
	err := h.service.CreatePost(c.Request.Context(), author, middleware.CurrentUserImage(c), input)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			response.Fail(c, msg)
			return
		}
		h.log.Error("add post failed", zap.Error(err))
		response.Fail(c, response.MsgGenericWrite)
		return
	}
	response.OK(c, response.MsgPostCreated)
}

// GetAllPosts 帖子列表
// @Summary 获取全部帖子
// @Tags Blog
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=[]model.PostView}
// @Router /blog-post/get-all-posts [get]
func (h *PostHandler) GetAllPosts(c *gin.Context) {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)

	posts, err := h.service.ListPosts(c.Request.Context(), p)
	if err != nil {
		h.log.Error("list posts failed", zap.Error(err))
		response.Fail(c, response.MsgGenericWrite)
		return
	}
	if len(posts) == 0 {
		response.Fail(c, response.MsgListFailed)
		return
	}
	response.Success(c, posts)
}

// GetBlogDetails 帖子详情
// @Summary 获取帖子详情
// @Tags Blog
// @Produce json
// @Param blogID query int true "Post ID"
// @Success 200 {object} response.Response{data=model.PostView}
// @Router /blog-post/blog-details [get]
func (h *PostHandler) GetBlogDetails(c *gin.Context) {
	id, ok := parseID(c.Query("blogID"))
	if !ok {
		response.Fail(c, response.MsgDetailsFailed)
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrPostNotFound) {
			h.log.Error("get post failed", zap.Uint("post_id", id), zap.Error(err))
		}
		response.Fail(c, response.MsgDetailsFailed)
		return
	}
	response.Success(c, post)
}

// UpdatePost 追加评论
// @Summary 更新帖子评论
// @Description comments 为客户端看到的评论列表加上新评论，服务端只追加新增部分
// @Tags Blog
// @Accept json
// @Produce json
// @Param input body UpdatePostInput true "评论列表"
// @Success 200 {object} response.Response
// @Router /blog-post/update-post [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var input UpdatePostInput
	if err := c.ShouldBindJSON(&input); err != nil || input.ID == 0 {
		response.Fail(c, response.MsgGenericWrite)
		return
	}

	caller, _ := middleware.CurrentIdentity(c)
	_, err := h.service.UpdateComments(c.Request.Context(), caller, uint(input.ID), input.Comments)
	if err != nil {
		h.commentError(c, uint(input.ID), err)
		return
	}
	response.OK(c, response.MsgPostUpdated)
}

func (h *PostHandler) commentError(c *gin.Context, postID uint, err error) {
	if msg, ok := validationMessage(err); ok {
		response.Fail(c, msg)
		return
	}
	if errors.Is(err, service.ErrPostNotFound) {
		response.Fail(c, response.MsgUpdateFailed)
		return
	}
	h.log.Error("append comments failed", zap.Uint("post_id", postID), zap.Error(err))
	response.Fail(c, response.MsgGenericWrite)
}

// DeletePost 删除帖子
// @Summary 删除帖子（仅作者）
// @Tags Blog
// @Produce json
// @Param id query int true "Post ID"
// @Success 200 {object} response.Response
// @Router /blog-post/delete-post [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c.Query("id"))
	if !ok {
		response.Fail(c, response.MsgDeleteFailed)
		return
	}

	caller, _ := middleware.CurrentIdentity(c)
	err := h.service.DeletePost(c.Request.Context(), caller, id)
	switch {
	case err == nil:
		response.OK(c, response.MsgPostDeleted)
	case errors.Is(err, service.ErrNotAuthor):
		response.Fail(c, response.MsgNotAuthor)
	case errors.Is(err, service.ErrPostNotFound):
		response.Fail(c, response.MsgDeleteFailed)
	default:
		h.log.Error("delete post failed", zap.Uint("post_id", id), zap.Error(err))
		response.Fail(c, response.MsgDeleteFailed)
	}
}

// GetByCategory 按分类筛选
// @Summary 按分类获取帖子
// @Tags Blog
// @Produce json
// @Param categoryID query string true "Category"
// @Success 200 {object} response.Response{data=[]model.PostView}
// @Router /category [get]
func (h *PostHandler) GetByCategory(c *gin.Context) {
	posts, err := h.service.ListByCategory(c.Request.Context(), c.Query("categoryID"))
	if err != nil {
		h.log.Error("list category failed", zap.Error(err))
		response.Fail(c, response.MsgGeneric)
		return
	}
	response.Success(c, posts)
}

// Search 搜索
// @Summary 按标题或正文搜索
// @Tags Blog
// @Produce json
// @Param query query string true "关键词"
// @Success 200 {object} response.Response{data=[]model.PostView}
// @Router /search [get]
func (h *PostHandler) Search(c *gin.Context) {
	posts, err := h.service.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.log.Error("search failed", zap.Error(err))
		response.Fail(c, response.MsgSearchFailed)
		return
	}
	response.Success(c, posts)
}

// AddComment 追加单条评论
// @Summary 发表评论
// @Tags Blog
// @Accept json
// @Produce json
// @Param input body AddCommentInput true "评论"
// @Success 200 {object} response.Response
// @Router /blog-post/comments [post]
func (h *PostHandler) AddComment(c *gin.Context) {
	var input AddCommentInput
	if err := c.ShouldBindJSON(&input); err != nil || input.ID == 0 {
		response.Fail(c, response.MsgGenericWrite)
		return
	}

	caller, _ := middleware.CurrentIdentity(c)
	if err := h.service.AddComment(c.Request.Context(), caller, uint(input.ID), input.Text); err != nil {
		h.commentError(c, uint(input.ID), err)
		return
	}
	response.OK(c, response.MsgCommentAdded)
}

// GetComments 结构化评论列表
// @Summary 获取评论列表
// @Tags Blog
// @Produce json
// @Param blogID query int true "Post ID"
// @Success 200 {object} response.Response{data=[]model.CommentView}
// @Router /blog-post/comments [get]
func (h *PostHandler) GetComments(c *gin.Context) {
	id, ok := parseID(c.Query("blogID"))
	if !ok {
		response.Fail(c, response.MsgDetailsFailed)
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrPostNotFound) {
			h.log.Error("list comments failed", zap.Uint("post_id", id), zap.Error(err))
		}
		response.Fail(c, response.MsgDetailsFailed)
		return
	}
	response.Success(c, comments)
}

// GetCategories 分类列表
// @Summary 获取分类及帖子数
// @Tags Blog
// @Produce json
// @Success 200 {object} response.Response{data=[]model.CategoryView}
// @Router /categories [get]
func (h *PostHandler) GetCategories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		h.log.Error("list categories failed", zap.Error(err))
		response.Fail(c, response.MsgCategoryFailed)
		return
	}
	response.Success(c, categories)
}
