package ranking

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"style-classifier-be/internal/config"
	"style-classifier-be/internal/pkg/apperr"
)

func testCatalog(t *testing.T) config.StyleCatalog {
	t.Helper()
	catalog, err := config.NewStyleCatalog([]config.Style{
		{Key: "classic", DisplayName: "классика"},
		{Key: "grunge", DisplayName: "гранж"},
		{Key: "retro", DisplayName: "ретро"},
		{Key: "casual", DisplayName: "кэжуал"},
		{Key: "military", DisplayName: "милитари"},
	})
	require.NoError(t, err)
	return catalog
}

func TestNewRankerValidation(t *testing.T) {
	catalog := testCatalog(t)

	_, err := NewRanker(catalog, 0)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	_, err = NewRanker(catalog, 6)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	r, err := NewRanker(catalog, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, r.TopK())
}

func TestRankOrdersDescending(t *testing.T) {
	r, err := NewRanker(testCatalog(t), 3)
	require.NoError(t, err)

	top, err := r.Rank(map[string]float64{
		"classic":  0.9,
		"grunge":   0.05,
		"retro":    0.3,
		"casual":   0.1,
		"military": 0.02,
	})
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, "classic", top[0].Key)
	assert.Equal(t, "retro", top[1].Key)
	assert.Equal(t, "casual", top[2].Key)
	assert.Equal(t, "классика", top[0].DisplayName)

	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Percent, top[i].Percent)
	}
}

func TestRankProbabilitiesSumToOne(t *testing.T) {
	r, err := NewRanker(testCatalog(t), 5)
	require.NoError(t, err)

	top, err := r.Rank(map[string]float64{
		"classic":  2.0,
		"grunge":   -1.0,
		"retro":    0.5,
		"casual":   0.5,
		"military": 0.0,
	})
	require.NoError(t, err)

	var sum float64
	for _, c := range top {
		sum += c.Percent
	}
	// Rounded to one decimal per entry, so allow rounding slack.
	assert.InDelta(t, 100.0, sum, 0.5)
}

func TestRankLargeScoresDoNotOverflow(t *testing.T) {
	r, err := NewRanker(testCatalog(t), 3)
	require.NoError(t, err)

	top, err := r.Rank(map[string]float64{
		"classic":  1e6,
		"grunge":   1e6 - 1,
		"retro":    0,
		"casual":   0,
		"military": 0,
	})
	require.NoError(t, err)

	for _, c := range top {
		assert.False(t, math.IsNaN(c.Percent))
		assert.False(t, math.IsInf(c.Percent, 0))
	}
	assert.Equal(t, "classic", top[0].Key)
}

func TestRankTieBreakFollowsCatalogOrder(t *testing.T) {
	r, err := NewRanker(testCatalog(t), 5)
	require.NoError(t, err)

	// All equal: the ranking must reproduce the catalog order exactly.
	top, err := r.Rank(map[string]float64{
		"classic":  1.0,
		"grunge":   1.0,
		"retro":    1.0,
		"casual":   1.0,
		"military": 1.0,
	})
	require.NoError(t, err)

	keys := make([]string, len(top))
	for i, c := range top {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{"classic", "grunge", "retro", "casual", "military"}, keys)
}

func TestRankMissingScoreIsEmbedderError(t *testing.T) {
	r, err := NewRanker(testCatalog(t), 3)
	require.NoError(t, err)

	_, err = r.Rank(map[string]float64{
		"classic": 0.9,
		"grunge":  0.1,
	})
	assert.True(t, errors.Is(err, apperr.ErrEmbedder))
}

func TestRoundPercentOneDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 50.0},
		{0.12345, 12.3},
		{0.99999, 100.0},
		{0.0004, 0.0},
		{0.0005, 0.1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundPercent(tt.in), "roundPercent(%v)", tt.in)
	}
}
