package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/utils"
)

const (
	// ContextUsernameKey stores the authenticated username inside Gin context.
	ContextUsernameKey = "username"
	// ContextClaimsKey stores the parsed session claims.
	ContextClaimsKey = "session_claims"
	// ContextTokenKey stores the raw session token.
	ContextTokenKey = "session_token"
)

// SessionToken extracts the session token from the Authorization header or, failing that, the session cookie.
func SessionToken(ctx *gin.Context) string {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := ctx.Cookie(config.Get().CookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// AuthRequired ensures the request carries a valid, unrevoked session.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := SessionToken(ctx)
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "login required")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid session")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(utils.TokenKey(tokenString, claims)) {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "session revoked")
			ctx.Abort()
			return
		}

		setSession(ctx, tokenString, claims)
		ctx.Next()
	}
}

// OptionalSession attaches a presented, valid session to the context and never aborts.
// Revoked sessions are attached too so that logout stays idempotent.
func OptionalSession() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tokenString := SessionToken(ctx); tokenString != "" {
			if claims, err := utils.ParseToken(tokenString); err == nil {
				setSession(ctx, tokenString, claims)
			}
		}
		ctx.Next()
	}
}

func setSession(ctx *gin.Context, tokenString string, claims *utils.Claims) {
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextClaimsKey, claims)
	ctx.Set(ContextTokenKey, tokenString)
}

// CurrentSession returns the raw token and claims attached by AuthRequired or OptionalSession.
func CurrentSession(ctx *gin.Context) (string, *utils.Claims, bool) {
	v, _ := ctx.Get(ContextClaimsKey)
	claims, ok := v.(*utils.Claims)
	if !ok || claims == nil {
		return "", nil, false
	}
	return ctx.GetString(ContextTokenKey), claims, true
}

// CurrentUsername returns the username set by AuthRequired.
func CurrentUsername(ctx *gin.Context) (string, bool) {
	v := ctx.GetString(ContextUsernameKey)
	return v, v != ""
}
