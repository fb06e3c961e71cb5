package router

import (
	"database/sql"

	"warehouse_backend/internal/handlers"
	"warehouse_backend/internal/middleware"
	"warehouse_backend/internal/repositories"
	"warehouse_backend/internal/services"
	"warehouse_backend/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Options carries the toggles the router needs from configuration.
type Options struct {
	StrictTransitions bool
}

// Setup initializes the routing for the application and wires repositories,
// services and handlers together. It returns the tracker so the caller can
// start its periodic sweep.
func Setup(engine *gin.Engine, db *sql.DB, redisClient *redis.Client, hub *socket.Hub, opts Options) *services.TrackerService {
	// Initialize Repositories
	inventoryRepo := repositories.NewInventoryRepository(db)
	usageRepo := repositories.NewStockUsageRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	orderedItemStore := repositories.NewRedisOrderedItemStore(redisClient)

	// Initialize Services
	categoryService := services.NewCategoryService()
	inventoryService := services.NewInventoryService(inventoryRepo, usageRepo, categoryService, db)
	supplierService := services.NewSupplierService(supplierRepo, categoryService, db)
	reconciliationService := services.NewReconciliationService(inventoryRepo, db)
	trackerService := services.NewTrackerService(orderedItemStore, orderRepo)
	recommendationService := services.NewRecommendationService()
	orderService := services.NewOrderService(orderRepo, supplierRepo, categoryService, reconciliationService, trackerService, hub, opts.StrictTransitions)

	// Initialize Handlers
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	supplierHandler := handlers.NewSupplierHandler(supplierService)
	orderHandler := handlers.NewOrderHandler(orderService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService, categoryService, trackerService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	engine.GET("/ws", wsHandler.ServeWs)

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupSupplierRoutes(authenticated, supplierHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupRecommendationRoutes(authenticated, recommendationHandler)
	}

	return trackerService
}
