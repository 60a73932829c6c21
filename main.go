package main

import (
	"log"

	"quizhub/config"
	"quizhub/handlers"
	"quizhub/models"
	"quizhub/routes"
	"quizhub/services"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Material{},
		&models.QuestionSet{},
		&models.Question{},
		&models.Session{},
		&models.Result{},
		&models.AnswerDetail{},
		&models.ResetMarker{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	clock := clockwork.NewRealClock()

	// Initialize services
	authService := services.NewAuthService(db, redisClient, cfg.JWTSecret, clock)
	categoryService := services.NewCategoryService(db)
	materialService := services.NewMaterialService(db)
	questionSetService := services.NewQuestionSetService(db)
	sessionService := services.NewSessionService(db, clock)
	resultService := services.NewResultService(db, clock)
	leaderboardService := services.NewLeaderboardService(db, clock)
	adminService := services.NewAdminService(db)

	// Initialize WebSocket hub
	hub := services.NewHub(leaderboardService)
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	materialHandler := handlers.NewMaterialHandler(materialService)
	questionSetHandler := handlers.NewQuestionSetHandler(questionSetService)
	quizHandler := handlers.NewQuizHandler(sessionService, resultService, hub)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Setup Gin router
	router := gin.Default()

	// Setup routes
	routes.SetupRoutes(
		router,
		authHandler,
		categoryHandler,
		materialHandler,
		questionSetHandler,
		quizHandler,
		leaderboardHandler,
		adminHandler,
		hub,
		authService,
		cfg.JWTSecret,
	)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.BindAddress + ":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
