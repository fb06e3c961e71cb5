package router

import (
	"warehouse_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupInventoryRoutes sets up the inventory item routes.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory-items")
	{
		inventoryRoutes.POST("", inventoryHandler.CreateInventoryItem)
		inventoryRoutes.GET("", inventoryHandler.GetInventoryItems)
		inventoryRoutes.GET("/:id", inventoryHandler.GetInventoryItemByID)
		inventoryRoutes.PUT("/:id", inventoryHandler.UpdateInventoryItem)
		inventoryRoutes.DELETE("/:id", inventoryHandler.DeleteInventoryItem)
		inventoryRoutes.POST("/:id/use-stock", inventoryHandler.UseStock)
		inventoryRoutes.GET("/:id/usage", inventoryHandler.GetUsageHistory)
	}
}

// SetupSupplierRoutes sets up the supplier routes.
func SetupSupplierRoutes(authenticatedGroup *gin.RouterGroup, supplierHandler *handlers.SupplierHandler) {
	supplierRoutes := authenticatedGroup.Group("/suppliers")
	{
		supplierRoutes.POST("", supplierHandler.CreateSupplier)
		supplierRoutes.GET("", supplierHandler.GetSuppliers)
		supplierRoutes.GET("/:id", supplierHandler.GetSupplierByID)
		supplierRoutes.PUT("/:id", supplierHandler.UpdateSupplier)
		supplierRoutes.DELETE("/:id", supplierHandler.DeleteSupplier)
	}
}

// SetupOrderRoutes sets up the supplier order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		orderRoutes.PUT("/:id/items", orderHandler.EditOrderItems)
		orderRoutes.DELETE("/:id", orderHandler.DeleteOrder)
	}
}

// SetupRecommendationRoutes sets up the category and restock routes.
func SetupRecommendationRoutes(authenticatedGroup *gin.RouterGroup, recommendationHandler *handlers.RecommendationHandler) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.GET("", recommendationHandler.GetCategories)
		categoryRoutes.POST("/classify", recommendationHandler.Classify)
	}

	restockRoutes := authenticatedGroup.Group("/restock")
	{
		restockRoutes.POST("/suggestions", recommendationHandler.BuildSuggestions)
		restockRoutes.GET("/ordered-items", recommendationHandler.GetOrderedItems)
	}
}
