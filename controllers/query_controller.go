package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/services"
	"github.com/blogd/blogd/utils"
)

// QueryController exposes the analytical queries as POST /api/blog/query1..7.
type QueryController struct {
	queries *services.QueryService
}

// NewQueryController creates a QueryController.
func NewQueryController(queries *services.QueryService) *QueryController {
	return &QueryController{queries: queries}
}

func usersPayload(users []models.UserSummary) gin.H {
	return gin.H{"count": len(users), "users": users}
}

// SameDayTagPair is query 1: body {tagX, tagY}.
func (q *QueryController) SameDayTagPair(ctx *gin.Context) {
	var req struct {
		TagX string `json:"tagX"`
		TagY string `json:"tagY"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	users, err := q.queries.SameDayTagPair(ctx.Request.Context(), req.TagX, req.TagY)
	if err != nil {
		respondError(ctx, err)
		return
	}
	payload := usersPayload(users)
	payload["tagX"], payload["tagY"] = req.TagX, req.TagY
	utils.Success(ctx, payload)
}

// MostBlogsOnDate is query 2: body {date}; today when omitted.
func (q *QueryController) MostBlogsOnDate(ctx *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	users, date, err := q.queries.MostBlogsOnDate(ctx.Request.Context(), req.Date)
	if err != nil {
		respondError(ctx, err)
		return
	}
	payload := usersPayload(users)
	payload["date"] = date
	utils.Success(ctx, payload)
}

// FollowedByBoth is query 3: body {userX, userY}.
func (q *QueryController) FollowedByBoth(ctx *gin.Context) {
	var req struct {
		UserX string `json:"userX"`
		UserY string `json:"userY"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	users, err := q.queries.FollowedByBoth(ctx.Request.Context(), req.UserX, req.UserY)
	if err != nil {
		respondError(ctx, err)
		return
	}
	payload := usersPayload(users)
	payload["userX"], payload["userY"] = req.UserX, req.UserY
	utils.Success(ctx, payload)
}

// NeverPosted is query 4.
func (q *QueryController) NeverPosted(ctx *gin.Context) {
	users, err := q.queries.NeverPosted(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, usersPayload(users))
}

// PositiveOnlyBlogs is query 5: body {username}.
func (q *QueryController) PositiveOnlyBlogs(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	blogs, err := q.queries.PositiveOnlyBlogs(ctx.Request.Context(), req.Username)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"username": req.Username, "count": len(blogs), "blogs": blogs})
}

// OnlyNegativeCommenters is query 6.
func (q *QueryController) OnlyNegativeCommenters(ctx *gin.Context) {
	users, err := q.queries.OnlyNegativeCommenters(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, usersPayload(users))
}

// NoNegativeReceived is query 7.
func (q *QueryController) NoNegativeReceived(ctx *gin.Context) {
	users, err := q.queries.NoNegativeReceived(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, usersPayload(users))
}
