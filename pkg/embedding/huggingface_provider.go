package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HuggingFaceProvider implements ImageEmbedder via the HF inference router:
// zero-shot image classification for the scores, feature extraction for the
// vector. Slower than a dedicated CLIP server but needs no local model.
type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewHuggingFaceProvider(apiKey, baseURL, model string) ImageEmbedder {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/hf-inference/models"
	}
	if model == "" {
		model = "openai/clip-vit-base-patch32"
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

type hfZeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type hfZeroShotRequest struct {
	Inputs     string               `json:"inputs"` // base64 image
	Parameters hfZeroShotParameters `json:"parameters"`
}

type hfZeroShotResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (p *HuggingFaceProvider) Embed(ctx context.Context, image []byte, labels []string) (*EmbedResult, error) {
	scores, err := p.classify(ctx, image, labels)
	if err != nil {
		return nil, err
	}
	vector, err := p.extractFeatures(ctx, image)
	if err != nil {
		return nil, err
	}
	return &EmbedResult{
		Vector: normalizeVector(vector),
		Scores: scores,
	}, nil
}

func (p *HuggingFaceProvider) classify(ctx context.Context, image []byte, labels []string) (map[string]float64, error) {
	reqBody := hfZeroShotRequest{
		Inputs:     encodeImage(image),
		Parameters: hfZeroShotParameters{CandidateLabels: labels},
	}
	body, err := p.post(ctx, fmt.Sprintf("%s/%s", p.baseURL, p.model), reqBody)
	if err != nil {
		return nil, err
	}

	var results []hfZeroShotResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.Label] = r.Score
	}
	return scores, nil
}

func (p *HuggingFaceProvider) extractFeatures(ctx context.Context, image []byte) ([]float32, error) {
	body, err := p.post(ctx,
		fmt.Sprintf("%s/%s?pipeline=feature-extraction", p.baseURL, p.model),
		map[string]string{"inputs": encodeImage(image)},
	)
	if err != nil {
		return nil, err
	}

	var features []float64
	if err := json.Unmarshal(body, &features); err != nil {
		return nil, err
	}
	values := make([]float32, len(features))
	for i, v := range features {
		values[i] = float32(v)
	}
	return values, nil
}

func (p *HuggingFaceProvider) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
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
		return nil, fmt.Errorf("huggingface inference error, code %d, body %s", resp.StatusCode, string(bodyBytes))
	}
	return bodyBytes, nil
}
