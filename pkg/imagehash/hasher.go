// Package imagehash provides content addressing for raw image bytes.
package imagehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"style-classifier-be/internal/pkg/apperr"
)

// Sum returns the lowercase hex SHA-256 digest of the raw image bytes.
// Identical bytes always produce the identical digest; the digest is the
// uniqueness key for stored style vectors.
func Sum(image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image payload", apperr.ErrInvalidInput)
	}
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:]), nil
}
