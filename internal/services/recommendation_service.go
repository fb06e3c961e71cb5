package services

import (
	"math"
	"sort"

	"warehouse_backend/internal/models"
)

// safetyStockDays is the fixed consumption horizon the target stock covers.
const safetyStockDays = 10

// Urgency thresholds on predicted days until low.
const (
	highUrgencyDays   = 7
	mediumUrgencyDays = 14
)

// RecommendationService turns a snapshot of stock predictions into ranked
// restock suggestions. It is a pure computation: identical prediction sets
// produce identical output, and nothing is persisted.
type RecommendationService interface {
	BuildSuggestions(predictions []models.StockPrediction) []models.RestockSuggestion
	ActionableOnly(suggestions []models.RestockSuggestion) []models.RestockSuggestion
}

type recommendationService struct{}

// NewRecommendationService creates a new instance of RecommendationService.
func NewRecommendationService() RecommendationService {
	return &recommendationService{}
}

func (s *recommendationService) BuildSuggestions(predictions []models.StockPrediction) []models.RestockSuggestion {
	suggestions := make([]models.RestockSuggestion, 0, len(predictions))
	for _, p := range predictions {
		targetStock := int(math.Ceil(p.DailyConsumption * safetyStockDays))

		recommended := 0
		if p.PredictedDaysUntilLow < highUrgencyDays || p.CurrentQuantity < targetStock {
			recommended = targetStock - p.CurrentQuantity
			if recommended < 0 {
				recommended = 0
			}
		}

		urgency := models.UrgencyLow
		if p.PredictedDaysUntilLow < highUrgencyDays {
			urgency = models.UrgencyHigh
		} else if p.PredictedDaysUntilLow < mediumUrgencyDays {
			urgency = models.UrgencyMedium
		}

		suggestions = append(suggestions, models.RestockSuggestion{
			ID:                    p.ProductID,
			Name:                  p.Name,
			CurrentQuantity:       p.CurrentQuantity,
			RecommendedQuantity:   recommended,
			Price:                 p.Price,
			Category:              p.Category,
			Urgency:               urgency,
			Confidence:            p.ConfidenceScore,
			PredictedDaysUntilLow: p.PredictedDaysUntilLow,
			DailyConsumption:      p.DailyConsumption,
			Dimensions:            p.Dimensions,
		})
	}

	// Rank: most urgent first, then soonest to run low, then name so the
	// ordering is stable across runs.
	sort.SliceStable(suggestions, func(i, j int) bool {
		ri, rj := urgencyRank(suggestions[i].Urgency), urgencyRank(suggestions[j].Urgency)
		if ri != rj {
			return ri < rj
		}
		if suggestions[i].PredictedDaysUntilLow != suggestions[j].PredictedDaysUntilLow {
			return suggestions[i].PredictedDaysUntilLow < suggestions[j].PredictedDaysUntilLow
		}
		return suggestions[i].Name < suggestions[j].Name
	})
	return suggestions
}

// ActionableOnly filters out suggestions with nothing to reorder.
func (s *recommendationService) ActionableOnly(suggestions []models.RestockSuggestion) []models.RestockSuggestion {
	actionable := make([]models.RestockSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		if sg.RecommendedQuantity > 0 {
			actionable = append(actionable, sg)
		}
	}
	return actionable
}

func urgencyRank(urgency string) int {
	switch urgency {
	case models.UrgencyHigh:
		return 0
	case models.UrgencyMedium:
		return 1
	default:
		return 2
	}
}
