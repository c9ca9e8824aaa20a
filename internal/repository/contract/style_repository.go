package contract

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"style-classifier-be/internal/entity"
	"style-classifier-be/internal/repository/specification"
)

// ErrDuplicateImage reports a unique-constraint hit on image_hash. It is an
// expected outcome of Insert, not a storage fault; callers branch on it
// instead of unwinding.
var ErrDuplicateImage = errors.New("image content already stored")

type AssociationRepository interface {
	// Upsert has set semantics: inserting an existing (user, style) pair
	// succeeds and refreshes its timestamp.
	Upsert(ctx context.Context, assoc *entity.StyleAssociation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StyleAssociation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StyleAssociation, error)
	CountByStyle(ctx context.Context) ([]*entity.StyleCount, error)
}

type StyleVectorRepository interface {
	// Insert returns ErrDuplicateImage when a vector with the same image
	// hash already exists, for any user.
	Insert(ctx context.Context, vector *entity.StyleVector) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StyleVector, error)
	// FindStyleByUserAndHash is the duplicate short-circuit lookup: the
	// stored style when this user already confirmed this exact content.
	FindStyleByUserAndHash(ctx context.Context, userId uuid.UUID, hash string) (string, bool, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
