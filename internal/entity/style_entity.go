package entity

import (
	"time"

	"github.com/google/uuid"
)

type StyleAssociation struct {
	UserId    uuid.UUID
	Style     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StyleVector struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Style     string
	Embedding []float32
	ImageHash string
	CreatedAt time.Time
}

// StyleCount is one row of the popularity aggregation.
type StyleCount struct {
	Style string
	Count int64
}
