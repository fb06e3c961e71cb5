package handlers

import (
	"net/http"

	"warehouse_backend/internal/models"
	"warehouse_backend/internal/services"
	"warehouse_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RecommendationHandler holds the recommendation engine, the classifier and
// the outstanding-suggestion tracker.
type RecommendationHandler struct {
	recommendationService services.RecommendationService
	categoryService       services.CategoryService
	tracker               *services.TrackerService
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(rs services.RecommendationService, cs services.CategoryService, tracker *services.TrackerService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: rs,
		categoryService:       cs,
		tracker:               tracker,
	}
}

// GetCategories returns the canonical category list.
func (h *RecommendationHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.categoryService.CanonicalCategories()})
}

// ClassifyRequest carries an item name and an optional fallback category.
type ClassifyRequest struct {
	Name             string `json:"name" binding:"required"`
	FallbackCategory string `json:"fallback_category"`
}

// Classify resolves an item name to a canonical category.
func (h *RecommendationHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Classify: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	category := h.categoryService.Classify(req.Name, req.FallbackCategory)
	c.JSON(http.StatusOK, gin.H{"name": req.Name, "category": category})
}

// BuildSuggestionsRequest carries the forecast rows produced by the
// forecasting collaborator service.
type BuildSuggestionsRequest struct {
	Predictions []models.StockPrediction `json:"predictions" binding:"required"`
}

// BuildSuggestions turns stock predictions into ranked restock suggestions.
// Suggestions for items that already sit in an active order are flagged, and
// hidden entirely when actionable_only=true.
func (h *RecommendationHandler) BuildSuggestions(c *gin.Context) {
	var req BuildSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "BuildSuggestions: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	suggestions := h.recommendationService.BuildSuggestions(req.Predictions)

	for i := range suggestions {
		itemID, err := utils.StrToInt64(suggestions[i].ID)
		if err != nil {
			continue // forecast rows for items not yet in inventory
		}
		ordered, err := h.tracker.IsOrdered(c.Request.Context(), itemID)
		if err != nil {
			utils.LogError(err, "BuildSuggestions: Tracker lookup failed")
			continue
		}
		suggestions[i].AlreadyOrdered = ordered
	}

	if c.Query("actionable_only") == "true" {
		filtered := make([]models.RestockSuggestion, 0, len(suggestions))
		for _, s := range h.recommendationService.ActionableOnly(suggestions) {
			if !s.AlreadyOrdered {
				filtered = append(filtered, s)
			}
		}
		suggestions = filtered
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetOrderedItems returns the IDs of items currently covered by an active
// order, i.e. the set the tracker uses to suppress duplicate suggestions.
func (h *RecommendationHandler) GetOrderedItems(c *gin.Context) {
	ids, err := h.tracker.OrderedItemIDs(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetOrderedItems: Error from tracker.OrderedItemIDs")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch ordered items.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ordered_item_ids": ids})
}
