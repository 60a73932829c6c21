package routes

import (
	"log"
	"net/http"
	"strconv"

	"quizhub/handlers"
	"quizhub/middleware"
	"quizhub/models"
	"quizhub/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	categoryHandler *handlers.CategoryHandler,
	materialHandler *handlers.MaterialHandler,
	questionSetHandler *handlers.QuestionSetHandler,
	quizHandler *handlers.QuizHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	adminHandler *handlers.AdminHandler,
	hub *services.Hub,
	authService *services.AuthService,
	jwtSecret string,
) {
	router.Use(middleware.CORS())

	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Public quiz flow for participants
		quiz := api.Group("/quiz")
		{
			quiz.POST("/validate-pin", quizHandler.ValidatePin)
			quiz.POST("/start", quizHandler.StartSession)
			quiz.GET("/session/:sessionId/remaining", quizHandler.GetRemainingTime)
			quiz.PUT("/session/:sessionId/progress", quizHandler.UpdateProgress)
			quiz.POST("/submit", quizHandler.SubmitResult)
			quiz.PUT("/answers/:resultId", quizHandler.SubmitAnswers)
			quiz.GET("/results/:resultId", quizHandler.GetResult)
		}

		// Public leaderboard reads
		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		api.GET("/leaderboard/categories", leaderboardHandler.GetCategoryStats)
		api.GET("/leaderboard/materials", leaderboardHandler.GetMaterialStats)

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret, authService))
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/profile", authHandler.GetProfile)
			protected.PUT("/auth/profile", authHandler.UpdateProfile)

			categories := protected.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.GET("/:id", categoryHandler.Get)
				categories.POST("", categoryHandler.Create)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			materials := protected.Group("/materials")
			{
				materials.GET("", materialHandler.List)
				materials.GET("/:id", materialHandler.Get)
				materials.POST("", materialHandler.Create)
				materials.PUT("/:id", materialHandler.Update)
				materials.DELETE("/:id", materialHandler.Delete)
			}

			sets := protected.Group("/question-sets")
			{
				sets.GET("", questionSetHandler.List)
				sets.GET("/:id", questionSetHandler.Get)
				sets.POST("", questionSetHandler.Create)
				sets.PUT("/:id", questionSetHandler.Update)
				sets.DELETE("/:id", questionSetHandler.Delete)
				sets.POST("/:id/reset-leaderboard", leaderboardHandler.ResetByQuestionSet)
			}

			protected.GET("/sessions/audit", leaderboardHandler.GetSessionAudit)
			protected.POST("/leaderboard/reset-mine", leaderboardHandler.ResetByCreator)

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/overview", adminHandler.GetOverview)
				admin.GET("/users", adminHandler.ListUsers)
				admin.PUT("/users/role", adminHandler.UpdateUserRole)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
				admin.POST("/leaderboard/reset", leaderboardHandler.Reset)
			}
		}
	}

	// WebSocket endpoint for live leaderboard updates. Watchers subscribe to
	// one creator's boards, optionally narrowed to a single question set.
	router.GET("/ws/leaderboard/:creatorId", func(c *gin.Context) {
		creatorID64, err := strconv.ParseUint(c.Param("creatorId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid creator ID"})
			return
		}
		creatorID := uint(creatorID64)

		var questionSetID *uint
		if raw := c.Query("question_set_id"); raw != "" {
			setID64, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question_set_id"})
				return
			}
			setID := uint(setID64)
			questionSetID = &setID
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for creator %d: %v", creatorID, err)
			return
		}

		log.Printf("WebSocket leaderboard watcher connected for creator %d", creatorID)
		hub.RegisterClient(conn, creatorID, questionSetID)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
