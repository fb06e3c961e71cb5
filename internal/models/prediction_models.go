package models

// Urgency buckets for restock suggestions, derived from predicted days
// until stock runs low.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// StockPrediction is the per-item consumption forecast supplied by the
// external forecasting collaborator. Read-only to this service.
type StockPrediction struct {
	ProductID             string     `json:"product_id" binding:"required"`
	Name                  string     `json:"name" binding:"required"`
	Category              string     `json:"category"`
	CurrentQuantity       int        `json:"current_quantity" binding:"min=0"`
	DailyConsumption      float64    `json:"daily_consumption" binding:"min=0"`
	PredictedDaysUntilLow int        `json:"predicted_days_until_low" binding:"min=0"`
	ConfidenceScore       float64    `json:"confidence_score"`
	Price                 float64    `json:"price"`
	Dimensions            Dimensions `json:"dimensions"`
}

// RestockSuggestion is a derived, never-persisted reorder recommendation.
// A fresh set supersedes the previous one on every recommendation cycle.
type RestockSuggestion struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	CurrentQuantity       int        `json:"current_quantity"`
	RecommendedQuantity   int        `json:"recommended_quantity"`
	Price                 float64    `json:"price"`
	Category              string     `json:"category"`
	Urgency               string     `json:"urgency"`
	Confidence            float64    `json:"confidence"`
	PredictedDaysUntilLow int        `json:"predicted_days_until_low"`
	DailyConsumption      float64    `json:"daily_consumption"`
	Dimensions            Dimensions `json:"dimensions"`
	AlreadyOrdered        bool       `json:"already_ordered"`
}
