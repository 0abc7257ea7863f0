package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogd/blogd/monitoring"
	"github.com/blogd/blogd/services"
	"github.com/blogd/blogd/utils"
)

// respondError maps a service error onto the response envelope.
// Storage failures are logged with their cause and answered without detail.
func respondError(ctx *gin.Context, err error) {
	se, ok := services.AsError(err)
	if !ok {
		se = &services.Error{Kind: services.ErrStorage, Message: "unexpected failure", Cause: err}
	}

	switch {
	case errors.Is(se, services.ErrValidation):
		utils.Respond(ctx, http.StatusBadRequest, 40001, se.Message, gin.H{"errors": se.Fields})
	case errors.Is(se, services.ErrConflict):
		monitoring.RuleRejections.WithLabelValues("conflict").Inc()
		utils.Respond(ctx, http.StatusConflict, 40901, se.Message, gin.H{"conflicts": se.Fields})
	case errors.Is(se, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, se.Message)
	case errors.Is(se, services.ErrUnauthorized):
		utils.Error(ctx, http.StatusUnauthorized, 40111, se.Message)
	case errors.Is(se, services.ErrForbidden):
		monitoring.RuleRejections.WithLabelValues("forbidden").Inc()
		utils.Error(ctx, http.StatusForbidden, 40301, se.Message)
	case errors.Is(se, services.ErrRateLimited):
		monitoring.RuleRejections.WithLabelValues("daily_cap").Inc()
		utils.Error(ctx, http.StatusTooManyRequests, 42902, se.Message)
	default:
		utils.Logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", ctx.GetString(utils.RequestIDKey)),
			zap.Error(se))
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

// bindJSON decodes the request body into out. An empty body leaves out untouched.
func bindJSON(ctx *gin.Context, out any) bool {
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		utils.Respond(ctx, http.StatusBadRequest, 40000, "invalid request payload", gin.H{"errors": []services.FieldError{
			{Field: "body", Message: err.Error()},
		}})
		return false
	}
	return true
}
