package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studentdesk/student-api/internal/app/controllers"
	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/middleware"
	"github.com/studentdesk/student-api/internal/pkg/websocket"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Auth      *controllers.AuthController
	Users     *controllers.UserController
	Students  *controllers.StudentController
	Chat      *controllers.ChatController
	Files     *controllers.FileController
	Audit     *controllers.AuditController
	WebSocket *websocket.Handler

	AuthMiddleware *middleware.AuthMiddleware
	AuthLimiter    *middleware.LimiterStore
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, wsPath string, h Handlers) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	// STOMP sessions authenticate in their CONNECT frame, not on the upgrade.
	router.GET(wsPath, h.WebSocket.ServeWS)

	api := router.Group("/api")

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		limited := auth.Group("")
		limited.Use(middleware.RateLimit(h.AuthLimiter))
		limited.POST("/register", h.Auth.Register)
		limited.POST("/login", h.Auth.Login)

		auth.GET("/me", h.AuthMiddleware.JWTAuth(), h.Auth.Me)
	}

	// --- Authenticated Routes Group ---
	authenticated := api.Group("")
	authenticated.Use(h.AuthMiddleware.JWTAuth())
	{
		authenticated.GET("/users", h.Users.ListUsers)

		students := authenticated.Group("/students")
		{
			students.GET("", h.Students.List)
			students.GET("/courses", h.Students.GroupByCourse)
			students.GET("/:id", h.Students.Get)

			admin := students.Group("")
			admin.Use(h.AuthMiddleware.RoleRequired(models.RoleAdmin))
			{
				admin.POST("", h.Students.Create)
				admin.PUT("/:id", h.Students.Update)
				admin.DELETE("/:id", h.Students.Delete)
			}
		}

		authenticated.GET("/chat/messages/:otherUsername", h.Chat.GetConversation)

		files := authenticated.Group("/files")
		{
			files.POST("/upload", h.Files.Upload)
			files.GET("", h.Files.List)
			files.GET("/:filename", h.Files.Download)
		}
	}

	audit := router.Group("/audit")
	audit.Use(h.AuthMiddleware.JWTAuth(), h.AuthMiddleware.RoleRequired(models.RoleAdmin))
	{
		audit.GET("/logs", h.Audit.GetLogs)
	}

	router.NoRoute(middleware.NoRoute)
}
