package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogd/blogd/middleware"
	"github.com/blogd/blogd/monitoring"
	"github.com/blogd/blogd/services"
	"github.com/blogd/blogd/utils"
)

// BlogController serves blog creation, listings, search and comments.
type BlogController struct {
	content *services.ContentService
}

// NewBlogController creates a new BlogController instance.
func NewBlogController(content *services.ContentService) *BlogController {
	return &BlogController{content: content}
}

// CreateBlog stores a blog for the logged-in user.
func (b *BlogController) CreateBlog(ctx *gin.Context) {
	author, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req services.CreateBlogInput
	if !bindJSON(ctx, &req) {
		return
	}

	blog, err := b.content.CreateBlog(ctx.Request.Context(), author, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	monitoring.BlogsCreated.Inc()
	utils.Created(ctx, gin.H{"blog_id": blog.ID, "created_at": blog.CreatedAt})
}

// SearchBlogs matches a tag from the query string (GET) or the JSON body (POST).
func (b *BlogController) SearchBlogs(ctx *gin.Context) {
	var req struct {
		Tag string `json:"tag"`
	}
	if ctx.Request.Method == http.MethodPost && !bindJSON(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Tag) == "" {
		req.Tag = ctx.Query("tag")
	}

	blogs, err := b.content.SearchBlogs(ctx.Request.Context(), req.Tag)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"tag": strings.TrimSpace(req.Tag), "count": len(blogs), "blogs": blogs})
}

// GetBlog returns one blog with its comments.
func (b *BlogController) GetBlog(ctx *gin.Context) {
	id, ok := blogIDParam(ctx)
	if !ok {
		return
	}
	detail, err := b.content.GetBlog(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, detail)
}

// AddComment records the logged-in user's comment on a blog.
func (b *BlogController) AddComment(ctx *gin.Context) {
	commenter, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	id, ok := blogIDParam(ctx)
	if !ok {
		return
	}
	var req services.AddCommentInput
	if !bindJSON(ctx, &req) {
		return
	}

	comment, err := b.content.AddComment(ctx.Request.Context(), commenter, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	monitoring.CommentsCreated.WithLabelValues(string(comment.Sentiment)).Inc()
	utils.Created(ctx, gin.H{"comment_id": comment.ID, "created_at": comment.CreatedAt})
}

// MyBlogs lists the logged-in user's blogs.
func (b *BlogController) MyBlogs(ctx *gin.Context) {
	username, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	blogs, err := b.content.MyBlogs(ctx.Request.Context(), username)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"count": len(blogs), "blogs": blogs})
}

// RecentBlogs lists the newest blogs, ?limit=N.
func (b *BlogController) RecentBlogs(ctx *gin.Context) {
	limit := 0
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(ctx, &services.Error{
				Kind:    services.ErrValidation,
				Message: "invalid input",
				Fields:  []services.FieldError{{Field: "limit", Message: "must be an integer"}},
			})
			return
		}
		limit = n
	}
	blogs, err := b.content.RecentBlogs(ctx.Request.Context(), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"count": len(blogs), "blogs": blogs})
}

func blogIDParam(ctx *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid blog id")
		return 0, false
	}
	return id, true
}
