package main

import (
	"context"
	"log"
	"net/http"

	"warehouse_backend/config"
	"warehouse_backend/internal/database"
	"warehouse_backend/internal/router"
	"warehouse_backend/internal/socket"
	"warehouse_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize Logger
	utils.InitLogger() // Initialize zerolog

	// .env is optional; real deployments use environment variables directly.
	if err := godotenv.Load(); err != nil {
		utils.LogDebug("No .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize Database
	database.InitDB(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User,
		cfg.Postgres.Password, cfg.Postgres.DBName, cfg.Postgres.SSLMode, cfg.Postgres.SchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"host": cfg.Postgres.Host, "db": cfg.Postgres.DBName})

	// Initialize Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	utils.LogInfo("Redis initialized", map[string]interface{}{"addr": cfg.Redis.Addr})

	engine := gin.Default()

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Setup all application routes
	hub := socket.NewHub()
	dbConn := database.GetDB()
	tracker := router.Setup(engine, dbConn, redisClient, hub, router.Options{
		StrictTransitions: cfg.Orders.StrictTransitions,
	})

	// Periodically drop tracked items whose orders reached a terminal status.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go tracker.Run(sweepCtx, cfg.Tracker.SweepInterval)

	utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})

	if err := engine.Run(":" + cfg.Server.Port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
