package blog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/service"
	"github.com/siwachprerit/Drafted/internal/util"
)

// BlogHandler 处理帖子相关的HTTP请求
type BlogHandler struct {
	postService *service.PostService
	engine      *service.InteractionService
}

func NewBlogHandler(postService *service.PostService, engine *service.InteractionService) *BlogHandler {
	return &BlogHandler{
		postService: postService,
		engine:      engine,
	}
}

type createPostRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Content     string   `json:"content" binding:"required"`
	Tags        []string `json:"tags" binding:"omitempty,post_tags"`
	CoverImage  string   `json:"cover_image"`
	IsPublished bool     `json:"is_published"`
}

type updatePostRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Content     *string   `json:"content"`
	Tags        *[]string `json:"tags" binding:"omitempty,post_tags"`
	CoverImage  *string   `json:"cover_image"`
	IsPublished *bool     `json:"is_published"`
}

func (h *BlogHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Logger.Warn("创建帖子失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的帖子数据", err))
		return
	}

	post, err := h.postService.Create(c.Request.Context(), c.GetInt(middleware.ContextUserID), service.PostInput{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		CoverImage:  req.CoverImage,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccessWithStatus(c, http.StatusCreated, post, "帖子创建成功")
}

// ListPosts 支持 author 和 tag 查询参数
func (h *BlogHandler) ListPosts(c *gin.Context) {
	authorID := 0
	if author := c.Query("author"); author != "" {
		id, err := strconv.Atoi(author)
		if err != nil {
			errors.HandleError(c, errors.New(errors.ErrValidation, "无效的作者ID"))
			return
		}
		authorID = id
	}

	posts, err := h.postService.List(c.Request.Context(), authorID, c.Query("tag"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"posts": posts}, "")
}

func (h *BlogHandler) GetTags(c *gin.Context) {
	tags, err := h.postService.Tags(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"tags": tags}, "")
}

// ListMine 返回当前用户的全部帖子，包括草稿
func (h *BlogHandler) ListMine(c *gin.Context) {
	posts, err := h.postService.ListMine(c.Request.Context(), c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"posts": posts}, "")
}

func (h *BlogHandler) ListSaved(c *gin.Context) {
	posts, err := h.postService.ListSaved(c.Request.Context(), c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"posts": posts}, "")
}

func (h *BlogHandler) GetPost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	post, err := h.postService.GetByID(c.Request.Context(), id, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, post, "")
}

func (h *BlogHandler) GetPostBySlug(c *gin.Context) {
	post, err := h.postService.GetBySlug(c.Request.Context(), c.Param("slug"), c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, post, "")
}

func (h *BlogHandler) GetRelated(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	posts, err := h.postService.Related(c.Request.Context(), id, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"posts": posts}, "")
}

func (h *BlogHandler) IncrementViews(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	views, err := h.postService.IncrementViews(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"views": views}, "")
}

// GetForEdit 只有作者可以获取
func (h *BlogHandler) GetForEdit(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	post, err := h.postService.GetForEdit(c.Request.Context(), id, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, post, "")
}

func (h *BlogHandler) UpdatePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Logger.Warn("更新帖子失败，无效的请求数据", zap.Error(err), zap.Int("post_id", id))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的帖子数据", err))
		return
	}

	post, err := h.postService.Update(c.Request.Context(), id, c.GetInt(middleware.ContextUserID), service.PostUpdate{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		CoverImage:  req.CoverImage,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, post, "帖子更新成功")
}

func (h *BlogHandler) DeletePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	if err := h.postService.Delete(c.Request.Context(), id, c.GetInt(middleware.ContextUserID)); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "帖子已删除")
}

func postIDParam(c *gin.Context) (int, bool) {
	return intParam(c, "id", "无效的帖子ID")
}

func intParam(c *gin.Context, name, message string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.New(errors.ErrValidation, message))
		return 0, false
	}
	return id, true
}
