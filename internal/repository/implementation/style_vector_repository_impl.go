package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"style-classifier-be/internal/entity"
	"style-classifier-be/internal/mapper"
	"style-classifier-be/internal/model"
	"style-classifier-be/internal/repository/contract"
	"style-classifier-be/internal/repository/specification"
)

// Postgres unique_violation.
const pgUniqueViolation = "23505"

type StyleVectorRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StyleMapper
}

func NewStyleVectorRepository(db *gorm.DB) contract.StyleVectorRepository {
	return &StyleVectorRepositoryImpl{
		db:     db,
		mapper: mapper.NewStyleMapper(),
	}
}

func (r *StyleVectorRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *StyleVectorRepositoryImpl) Insert(ctx context.Context, vector *entity.StyleVector) error {
	m := r.mapper.VectorToModel(vector)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return contract.ErrDuplicateImage
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrDuplicateImage
		}
		return err
	}
	*vector = *r.mapper.VectorToEntity(m)
	return nil
}

func (r *StyleVectorRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StyleVector, error) {
	var m model.StyleVector
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.VectorToEntity(&m), nil
}

func (r *StyleVectorRepositoryImpl) FindStyleByUserAndHash(ctx context.Context, userId uuid.UUID, hash string) (string, bool, error) {
	var m model.StyleVector
	err := r.db.WithContext(ctx).
		Select("style").
		Where("user_id = ? AND image_hash = ?", userId, hash).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.Style, true, nil
}

func (r *StyleVectorRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.StyleVector{}).Count(&count).Error
	return count, err
}
