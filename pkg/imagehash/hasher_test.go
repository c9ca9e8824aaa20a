package imagehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"style-classifier-be/internal/pkg/apperr"
)

func TestSumIsDeterministic(t *testing.T) {
	a, err := Sum([]byte("outfit bytes"))
	require.NoError(t, err)
	b, err := Sum([]byte("outfit bytes"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha256
}

func TestSumDiffersPerContent(t *testing.T) {
	a, err := Sum([]byte("image one"))
	require.NoError(t, err)
	b, err := Sum([]byte("image two"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSumRejectsEmptyPayload(t *testing.T) {
	_, err := Sum(nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = Sum([]byte{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
