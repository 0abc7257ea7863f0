package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/controllers"
	"github.com/blogd/blogd/middleware"
	"github.com/blogd/blogd/monitoring"
	"github.com/blogd/blogd/services"
	"github.com/blogd/blogd/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(svc *services.Services) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Access log goes to its own rolling file; without a path it joins the application log
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
		if err != nil {
			utils.Logger.Warn("access log unavailable, using application log", zap.Error(err))
		} else {
			accessLog = gl
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDKey},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDKey},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if cfg.MetricsEnabled {
		r.Use(monitoring.Middleware())
		r.GET("/metrics", monitoring.Handler())
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(svc.Identity)
	blogController := controllers.NewBlogController(svc.Content)
	queryController := controllers.NewQueryController(svc.Queries)
	followController := controllers.NewFollowController(svc.Follows)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/logout", middleware.OptionalSession(), authController.Logout)
	authGroup.POST("/logout", middleware.OptionalSession(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	blogGroup := api.Group("/blog")
	blogGroup.GET("/search", blogController.SearchBlogs)
	blogGroup.POST("/search", blogController.SearchBlogs)
	blogGroup.GET("/recent", blogController.RecentBlogs)
	blogGroup.GET("/my-blogs", middleware.AuthRequired(), blogController.MyBlogs)
	blogGroup.POST("/create", middleware.AuthRequired(), blogController.CreateBlog)
	blogGroup.GET("/:id", blogController.GetBlog)
	blogGroup.POST("/:id/comment", middleware.AuthRequired(), blogController.AddComment)

	blogGroup.POST("/query1", queryController.SameDayTagPair)
	blogGroup.POST("/query2", queryController.MostBlogsOnDate)
	blogGroup.POST("/query3", queryController.FollowedByBoth)
	blogGroup.POST("/query4", queryController.NeverPosted)
	blogGroup.POST("/query5", queryController.PositiveOnlyBlogs)
	blogGroup.POST("/query6", queryController.OnlyNegativeCommenters)
	blogGroup.POST("/query7", queryController.NoNegativeReceived)

	userGroup := api.Group("/user")
	userGroup.POST("/follow/:username", middleware.AuthRequired(), followController.Follow)
	userGroup.DELETE("/follow/:username", middleware.AuthRequired(), followController.Unfollow)
	userGroup.GET("/:username/following", followController.Following)
	userGroup.GET("/:username/followers", followController.Followers)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
