package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
)

// ClipProvider implements ImageEmbedder against a CLIP scoring server (the
// fine-tuned fashion checkpoint exposed over HTTP).
type ClipProvider struct {
	BaseURL string
	Model   string
	client  *http.Client
}

func NewClipProvider(baseURL string, model string) ImageEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:8765"
	}
	if model == "" {
		model = "ViT-B-32"
	}
	return &ClipProvider{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{},
	}
}

type clipEmbedRequest struct {
	Model  string   `json:"model"`
	Image  string   `json:"image"` // base64-encoded raw bytes
	Labels []string `json:"labels"`
}

type clipEmbedResponse struct {
	Embedding []float64          `json:"embedding"`
	Scores    map[string]float64 `json:"scores"`
}

func (p *ClipProvider) Embed(ctx context.Context, image []byte, labels []string) (*EmbedResult, error) {
	reqBody := clipEmbedRequest{
		Model:  p.Model,
		Image:  encodeImage(image),
		Labels: labels,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/embed", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clip embedding error: %s", string(bodyBytes))
	}

	var clipResp clipEmbedResponse
	if err := json.Unmarshal(bodyBytes, &clipResp); err != nil {
		return nil, err
	}

	values := make([]float32, len(clipResp.Embedding))
	for i, v := range clipResp.Embedding {
		values[i] = float32(v)
	}

	// Cosine distance in pgvector requires normalized vectors (magnitude = 1).
	return &EmbedResult{
		Vector: normalizeVector(values),
		Scores: clipResp.Scores,
	}, nil
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
