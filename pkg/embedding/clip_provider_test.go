package embedding

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipProviderEmbed(t *testing.T) {
	image := []byte("raw image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req clipEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ViT-B-32", req.Model)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Image)
		assert.Equal(t, []string{"classic", "retro"}, req.Labels)

		json.NewEncoder(w).Encode(clipEmbedResponse{
			Embedding: []float64{3, 4},
			Scores:    map[string]float64{"classic": 0.8, "retro": 0.2},
		})
	}))
	defer server.Close()

	provider := NewClipProvider(server.URL, "")
	res, err := provider.Embed(context.Background(), image, []string{"classic", "retro"})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"classic": 0.8, "retro": 0.2}, res.Scores)

	// The vector must come back unit-normalized for pgvector cosine search.
	var magnitude float64
	for _, v := range res.Vector {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)
}

func TestClipProviderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewClipProvider(server.URL, "ViT-B-32")
	_, err := provider.Embed(context.Background(), []byte("img"), []string{"classic"})
	assert.ErrorContains(t, err, "clip embedding error")
}

func TestNormalizeVectorZeroMagnitude(t *testing.T) {
	vec := []float32{0, 0, 0}
	assert.Equal(t, vec, normalizeVector(vec))
}
