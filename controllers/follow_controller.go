package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogd/blogd/middleware"
	"github.com/blogd/blogd/services"
	"github.com/blogd/blogd/utils"
)

// FollowController manages follow edges between users.
type FollowController struct {
	follows *services.FollowService
}

// NewFollowController creates a FollowController.
func NewFollowController(follows *services.FollowService) *FollowController {
	return &FollowController{follows: follows}
}

// Follow makes the logged-in user follow :username.
func (f *FollowController) Follow(ctx *gin.Context) {
	follower, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	followed := ctx.Param("username")
	if err := f.follows.Follow(ctx.Request.Context(), follower, followed); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"follower": follower, "followed": followed})
}

// Unfollow removes the edge from the logged-in user to :username.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	follower, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	followed := ctx.Param("username")
	if err := f.follows.Unfollow(ctx.Request.Context(), follower, followed); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"follower": follower, "unfollowed": followed})
}

// Following lists who :username follows.
func (f *FollowController) Following(ctx *gin.Context) {
	users, err := f.follows.Following(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, usersPayload(users))
}

// Followers lists who follows :username.
func (f *FollowController) Followers(ctx *gin.Context) {
	users, err := f.follows.Followers(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, usersPayload(users))
}
