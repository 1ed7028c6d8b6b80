// Package api 组装 HTTP 路由
package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/siwachprerit/Drafted/config"
	"github.com/siwachprerit/Drafted/internal/api/admin"
	"github.com/siwachprerit/Drafted/internal/api/blog"
	"github.com/siwachprerit/Drafted/internal/api/notification"
	"github.com/siwachprerit/Drafted/internal/api/socket"
	"github.com/siwachprerit/Drafted/internal/api/upload"
	"github.com/siwachprerit/Drafted/internal/api/user"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/presence"
	"github.com/siwachprerit/Drafted/internal/service"
	"github.com/siwachprerit/Drafted/internal/storage"
)

// Dependencies 是路由需要的全部服务
type Dependencies struct {
	Users         *service.UserService
	Posts         *service.PostService
	Notifications *service.NotificationService
	Engine        *service.InteractionService
	Hub           *presence.Hub
	Storage       storage.Uploader
	Monitor       *middleware.ErrorMonitor
}

// NewRouter 注册中间件和所有路由
func NewRouter(cfg config.Config, deps Dependencies) *gin.Engine {
	if deps.Monitor == nil {
		deps.Monitor = middleware.NewErrorMonitor()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(deps.Monitor))
	r.Use(cors.New(corsConfig(cfg)))

	if cfg.StorageDriver == "local" && cfg.LocalStoragePath != "" {
		r.Static("/uploads", cfg.LocalStoragePath)
	}

	authHandler := user.NewAuthHandler(deps.Users)
	profileHandler := user.NewProfileHandler(deps.Users)
	userHandler := user.NewUserHandler(deps.Engine)
	blogHandler := blog.NewBlogHandler(deps.Posts, deps.Engine)
	notificationHandler := notification.NewNotificationHandler(deps.Notifications)
	var counter admin.ConnectionCounter
	if deps.Hub != nil {
		counter = deps.Hub
	}
	adminHandler := admin.NewAdminHandler(deps.Monitor, counter)

	requireAuth := middleware.AuthMiddleware(deps.Users)
	optionalAuth := middleware.OptionalAuth(deps.Users)

	if deps.Hub != nil {
		r.GET("/ws", socket.NewSocketHandler(deps.Hub, deps.Users).Connect)
	}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
			auth.DELETE("/me", requireAuth, authHandler.DeleteAccount)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.POST("/refresh-token", requireAuth, authHandler.RefreshToken)
		}

		blogs := api.Group("/blogs")
		{
			blogs.POST("", requireAuth, blogHandler.CreatePost)
			blogs.GET("", optionalAuth, blogHandler.ListPosts)
			blogs.GET("/tags", blogHandler.GetTags)
			blogs.GET("/my", requireAuth, blogHandler.ListMine)
			blogs.GET("/saved", requireAuth, blogHandler.ListSaved)
			blogs.GET("/slug/:slug", optionalAuth, blogHandler.GetPostBySlug)
			blogs.GET("/:id/related", optionalAuth, blogHandler.GetRelated)
			blogs.GET("/:id", optionalAuth, blogHandler.GetPost)
			blogs.POST("/:id/view", blogHandler.IncrementViews)
			blogs.GET("/:id/edit", requireAuth, blogHandler.GetForEdit)
			blogs.PUT("/:id", requireAuth, blogHandler.UpdatePost)
			blogs.DELETE("/:id", requireAuth, blogHandler.DeletePost)
			blogs.POST("/:id/like", requireAuth, blogHandler.ToggleLike)
			blogs.POST("/:id/comment", requireAuth, blogHandler.AddComment)
			blogs.DELETE("/:id/comment/:commentId", requireAuth, blogHandler.DeleteComment)
			blogs.POST("/:id/save", requireAuth, blogHandler.ToggleSave)
		}

		users := api.Group("/users")
		{
			users.GET("/suggestions", requireAuth, profileHandler.Suggestions)
			users.POST("/:id/follow", requireAuth, userHandler.ToggleFollow)
			users.GET("/:id", optionalAuth, profileHandler.GetProfile)
			users.GET("/:id/followers", optionalAuth, profileHandler.Followers)
			users.GET("/:id/following", optionalAuth, profileHandler.Following)
		}

		notifications := api.Group("/notifications", requireAuth)
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PATCH("/read", notificationHandler.MarkAllRead)
			notifications.DELETE("/all", notificationHandler.DeleteAll)
			notifications.DELETE("/:id", notificationHandler.DeleteOne)
		}

		if deps.Storage != nil {
			api.POST("/upload", requireAuth, upload.NewUploadHandler(deps.Storage).UploadImage)
		}

		adminRoutes := api.Group("/admin", requireAuth, middleware.AdminMiddleware(deps.Users))
		{
			adminRoutes.GET("/errors", adminHandler.GetErrorStats)
			adminRoutes.GET("/stats", adminHandler.GetSystemStats)
		}
	}

	return r
}

func corsConfig(cfg config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins(cfg.FrontendURL)
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		middleware.HeaderRequestID,
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		middleware.HeaderRequestID,
	}
	return corsConfig
}

// allowedOrigins FRONTEND_URL 可以用逗号分隔多个地址
func allowedOrigins(frontendURL string) []string {
	var origins []string
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"http://localhost:5173"}
	}
	return origins
}

// AllowedOrigins 供 websocket 握手复用同一份来源配置
func AllowedOrigins(cfg config.Config) []string {
	return allowedOrigins(cfg.FrontendURL)
}
