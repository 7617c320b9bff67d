package publishing

import (
	"testing"

	"github.com/crosspost/backend/internal/domain/classification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxonomyClassifierCategorySegments(t *testing.T) {
	c := NewTaxonomyClassifier(classification.NewClassifier())

	res := c.Classify("Veste en jean taille M", "très bon état")
	require.True(t, res.Matched)
	// the adapter walks the picker level by level, so the path stays split
	assert.Equal(t, []string{"Femmes", "Vêtements", "Manteaux et vestes"}, res.CategoryPath)
}

func TestTaxonomyClassifierNoMatch(t *testing.T) {
	c := NewTaxonomyClassifier(classification.NewClassifier())

	res := c.Classify("xqzjvw", "wvjzqx")
	assert.False(t, res.Matched)
	assert.Empty(t, res.CategoryPath)
}
