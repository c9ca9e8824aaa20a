package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// StyleAssociation records that a user confirmed a style at least once.
// Set semantics: one row per (user, style); re-confirming bumps UpdatedAt.
type StyleAssociation struct {
	UserId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Style     string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StyleAssociation) TableName() string {
	return "style_associations"
}

// StyleVector stores the embedding of a confirmed image. ImageHash is
// globally unique: the same image content is stored at most once.
type StyleVector struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Style     string          `gorm:"type:varchar(64);not null"`
	Embedding pgvector.Vector `gorm:"type:vector(512)"` // CLIP ViT-B/32 image embedding
	ImageHash string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (StyleVector) TableName() string {
	return "style_vectors"
}
