package embedding

import (
	"context"
	"encoding/base64"
)

// EmbedResult carries the image embedding plus a raw similarity score for
// every requested label. Scores are raw model output; normalization and
// ranking happen downstream.
type EmbedResult struct {
	Vector []float32
	Scores map[string]float64
}

// ImageEmbedder defines the interface for the external classification model.
type ImageEmbedder interface {
	Embed(ctx context.Context, image []byte, labels []string) (*EmbedResult, error)
}

func encodeImage(image []byte) string {
	return base64.StdEncoding.EncodeToString(image)
}
