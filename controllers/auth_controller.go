package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/middleware"
	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/monitoring"
	"github.com/blogd/blogd/services"
	"github.com/blogd/blogd/utils"
)

// AuthController handles registration, login, logout and the current session.
type AuthController struct {
	identity *services.IdentityService
}

// NewAuthController creates an AuthController.
func NewAuthController(identity *services.IdentityService) *AuthController {
	return &AuthController{identity: identity}
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := a.identity.Register(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	monitoring.RegisterSuccess.Inc()
	utils.Created(ctx, gin.H{"username": user.Username})
}

// Login verifies credentials, issues a session token and sets the session cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := a.identity.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		monitoring.LoginFailure.WithLabelValues(loginFailureReason(err)).Inc()
		respondError(ctx, err)
		return
	}

	cfg := config.Get()
	token, claims, err := utils.GenerateToken(user.Username, cfg.SessionTTL())
	if err != nil {
		utils.Logger.Error("issue session token", zap.String("username", user.Username), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to create session")
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cfg.CookieName, token, int(cfg.SessionTTL().Seconds()), "/", "", cfg.CookieSecure, true)
	monitoring.LoginSuccess.Inc()
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time,
		"user":       sanitizeUserResponse(*user),
	})
}

// Logout revokes the presented session, if any, and clears the cookie. It always succeeds.
func (a *AuthController) Logout(ctx *gin.Context) {
	if tokenString, claims, ok := middleware.CurrentSession(ctx); ok {
		utils.BlacklistToken(utils.TokenKey(tokenString, claims), claims.ExpiresAt.Time)
	}
	cfg := config.Get()
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
	utils.Respond(ctx, http.StatusOK, 0, "logged out", nil)
}

// Me returns the account bound to the current session.
func (a *AuthController) Me(ctx *gin.Context) {
	username, ok := middleware.CurrentUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	user, err := a.identity.GetUser(ctx.Request.Context(), username)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, sanitizeUserResponse(*user))
}

func sanitizeUserResponse(u models.User) gin.H {
	return gin.H{
		"username":   u.Username,
		"firstName":  u.FirstName,
		"lastName":   u.LastName,
		"email":      u.Email,
		"phone":      u.Phone,
		"created_at": u.CreatedAt,
	}
}

func loginFailureReason(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "invalid_input"
	case errors.Is(err, services.ErrNotFound):
		return "unknown_user"
	case errors.Is(err, services.ErrUnauthorized):
		return "wrong_password"
	}
	return "error"
}
