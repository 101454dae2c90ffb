package main

import (
	"log"
	"os"
	"time"

	"github.com/campuslink/buspass-backend/internal/database"
	"github.com/campuslink/buspass-backend/internal/handlers"
	"github.com/campuslink/buspass-backend/internal/middleware"
	"github.com/campuslink/buspass-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	// Initialize database with better error handling
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis (optional - directory listings fall back to the DB)
	if err := services.InitRedis(); err != nil {
		log.Printf("Redis initialization warning: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
			auth.POST("/logout", handlers.Logout())
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/users/profile", handlers.GetProfile(db))

			protected.GET("/routes", handlers.GetRoutes(db))
			protected.POST("/routes", handlers.CreateRoute(db))

			protected.GET("/buses", handlers.GetBuses(db))
			protected.POST("/buses", handlers.CreateBus(db))

			protected.GET("/drivers", handlers.GetDrivers(db))

			protected.GET("/passes", handlers.GetPasses(db))
			protected.POST("/passes", handlers.CreatePass(db, hub))
			protected.PATCH("/passes/:id", handlers.DecidePass(db, hub))
			protected.DELETE("/passes/:id", handlers.DeletePass(db))

			protected.GET("/payments", handlers.GetPayments(db))
			protected.POST("/payments", handlers.CreatePayment(db, hub))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
