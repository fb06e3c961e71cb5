package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_KeywordMatch(t *testing.T) {
	svc := NewCategoryService()

	cases := []struct {
		name     string
		expected string
	}{
		{"Galvanized Deck Screw 50mm", CategoryScrew},
		{"Hex Bolt M8", CategoryScrew},
		{"Finishing Nail 30mm", CategoryNail},
		{"Pine Timber 2x4", CategoryTimber},
		{"MDF Sheet 18mm", CategoryTimber},
		{"Matte White Paint 5L", CategoryPaint},
		{"Oak Edge Banding", CategoryEdgeTrim},
		{"Granite Slab Polished", CategoryCountertops},
		{"Construction Adhesive Tube", CategoryAdhesive},
		{"Silicone Sealant Clear", CategoryAdhesive},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, svc.Classify(tc.name, ""), "name: %s", tc.name)
	}
}

func TestClassify_FirstRuleWins(t *testing.T) {
	svc := NewCategoryService()

	// "wood" belongs to the Timber rule, but the Screw rule is checked
	// first, so a wood screw is a screw.
	assert.Equal(t, CategoryScrew, svc.Classify("Stainless Wood Screw 4mm", ""))
	// Same input must classify identically every time.
	for i := 0; i < 10; i++ {
		assert.Equal(t, CategoryScrew, svc.Classify("Stainless Wood Screw 4mm", ""))
	}
}

func TestClassify_CaseInsensitiveName(t *testing.T) {
	svc := NewCategoryService()

	assert.Equal(t, CategoryNail, svc.Classify("BRAD NAIL 18GA", ""))
	assert.Equal(t, CategoryPaint, svc.Classify("walnut stain", ""))
}

func TestClassify_FallbackCategory(t *testing.T) {
	svc := NewCategoryService()

	// No keyword matches; a canonical fallback is honored.
	assert.Equal(t, CategoryPaint, svc.Classify("Mystery Bucket", CategoryPaint))

	// No keyword matches and the fallback is unknown: default applies.
	assert.Equal(t, DefaultCategory, svc.Classify("Mystery Bucket", "Gardening"))
	assert.Equal(t, DefaultCategory, svc.Classify("Mystery Bucket", ""))
}

func TestClassify_KeywordBeatsFallback(t *testing.T) {
	svc := NewCategoryService()

	// A keyword match always wins over the caller-provided fallback.
	assert.Equal(t, CategoryTimber, svc.Classify("Birch Plank", CategoryPaint))
}

func TestCanonicalCategories(t *testing.T) {
	svc := NewCategoryService()

	categories := svc.CanonicalCategories()
	assert.Len(t, categories, 7)
	assert.Contains(t, categories, CategoryEdgeTrim)

	for _, c := range categories {
		assert.True(t, svc.IsCanonical(c))
	}
	assert.False(t, svc.IsCanonical("screw"), "canonical check is case-sensitive")
	assert.False(t, svc.IsCanonical("Gardening"))

	// Mutating the returned slice must not affect the service.
	categories[0] = "Tampered"
	assert.True(t, svc.IsCanonical(CategoryScrew))
}
