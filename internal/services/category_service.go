package services

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCategory = errors.New("category is not one of the canonical categories")
)

// Canonical supplier/item categories recognized system-wide.
const (
	CategoryScrew       = "Screw"
	CategoryNail        = "Nail"
	CategoryTimber      = "Timber"
	CategoryPaint       = "Paint"
	CategoryEdgeTrim    = "Edge/Trim"
	CategoryCountertops = "Countertops"
	CategoryAdhesive    = "Adhesive"
)

// DefaultCategory is returned when neither the item name nor the fallback
// resolves to anything known. An arbitrary but deterministic choice.
const DefaultCategory = CategoryScrew

// keywordRule maps name substrings to a canonical category. Rules are
// checked in order; the specific fastener rules sit before the generic
// material table so "wood screw" lands on Screw, not Timber.
type keywordRule struct {
	keywords []string
	category string
}

var classificationRules = []keywordRule{
	{[]string{"screw", "bolt", "fastener"}, CategoryScrew},
	{[]string{"nail", "brad", "pin"}, CategoryNail},
	{[]string{"timber", "sheet", "plank", "wood", "board"}, CategoryTimber},
	{[]string{"paint", "stain", "varnish"}, CategoryPaint},
	{[]string{"edge", "trim", "border"}, CategoryEdgeTrim},
	{[]string{"granite", "countertop", "marble", "surface"}, CategoryCountertops},
	{[]string{"glue", "adhesive", "silicone", "sealant"}, CategoryAdhesive},
}

var canonicalCategories = []string{
	CategoryScrew,
	CategoryNail,
	CategoryTimber,
	CategoryPaint,
	CategoryEdgeTrim,
	CategoryCountertops,
	CategoryAdhesive,
}

// CategoryService classifies free-text item names into canonical
// categories. Classification is a total function: it never fails.
type CategoryService interface {
	Classify(itemName, fallbackCategory string) string
	CanonicalCategories() []string
	IsCanonical(category string) bool
}

type categoryService struct{}

// NewCategoryService creates a new instance of CategoryService.
func NewCategoryService() CategoryService {
	return &categoryService{}
}

func (s *categoryService) Classify(itemName, fallbackCategory string) string {
	name := strings.ToLower(itemName)
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.category
			}
		}
	}
	if s.IsCanonical(fallbackCategory) {
		return fallbackCategory
	}
	return DefaultCategory
}

func (s *categoryService) CanonicalCategories() []string {
	out := make([]string, len(canonicalCategories))
	copy(out, canonicalCategories)
	return out
}

func (s *categoryService) IsCanonical(category string) bool {
	for _, c := range canonicalCategories {
		if c == category {
			return true
		}
	}
	return false
}
