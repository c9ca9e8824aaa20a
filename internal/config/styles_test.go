package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"style-classifier-be/internal/pkg/apperr"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := LoadStyleCatalog("")
	require.NoError(t, err)

	assert.Equal(t, 24, catalog.Len())
	assert.True(t, catalog.Contains("classic"))
	assert.Equal(t, "классика", catalog.DisplayName("classic"))

	// Position drives the ranking tie-break and must be stable.
	pos, ok := catalog.Position("avangard")
	require.True(t, ok)
	assert.Equal(t, 0, pos)
}

func TestLoadStyleCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.json")
	content := `[{"key":"classic","display_name":"классика"},{"key":"retro","display_name":"ретро"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := LoadStyleCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, []string{"classic", "retro"}, catalog.Keys())
}

func TestLoadStyleCatalogMissingFile(t *testing.T) {
	_, err := LoadStyleCatalog("/nonexistent/styles.json")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestNewStyleCatalogRejectsBadEntries(t *testing.T) {
	_, err := NewStyleCatalog([]Style{{Key: "", DisplayName: "x"}})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	_, err = NewStyleCatalog([]Style{
		{Key: "classic", DisplayName: "a"},
		{Key: "classic", DisplayName: "b"},
	})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestValidateRequiresEnoughStyles(t *testing.T) {
	catalog, err := NewStyleCatalog([]Style{
		{Key: "classic", DisplayName: "a"},
		{Key: "retro", DisplayName: "b"},
	})
	require.NoError(t, err)

	assert.NoError(t, catalog.Validate(2))
	assert.ErrorIs(t, catalog.Validate(3), apperr.ErrConfiguration)
}

func TestDisplayNameFallsBackToKey(t *testing.T) {
	catalog, err := LoadStyleCatalog("")
	require.NoError(t, err)
	assert.Equal(t, "unknown_key", catalog.DisplayName("unknown_key"))
}
