package specification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByUserID filters rows owned by a user.
type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByImageHash filters style vectors by content hash.
type ByImageHash struct {
	Hash string
}

func (s ByImageHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("image_hash = ?", s.Hash)
}

// ByStyle filters by canonical style key.
type ByStyle struct {
	Style string
}

func (s ByStyle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("style = ?", s.Style)
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
