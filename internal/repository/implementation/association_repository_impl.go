package implementation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"style-classifier-be/internal/entity"
	"style-classifier-be/internal/mapper"
	"style-classifier-be/internal/model"
	"style-classifier-be/internal/repository/contract"
	"style-classifier-be/internal/repository/specification"
)

type AssociationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StyleMapper
}

func NewAssociationRepository(db *gorm.DB) contract.AssociationRepository {
	return &AssociationRepositoryImpl{
		db:     db,
		mapper: mapper.NewStyleMapper(),
	}
}

func (r *AssociationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AssociationRepositoryImpl) Upsert(ctx context.Context, assoc *entity.StyleAssociation) error {
	m := r.mapper.AssociationToModel(assoc)
	// Set semantics on (user_id, style): a repeated confirm refreshes the
	// most-recent timestamp instead of failing or duplicating.
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "style"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now()}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*assoc = *r.mapper.AssociationToEntity(m)
	return nil
}

func (r *AssociationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StyleAssociation, error) {
	var m model.StyleAssociation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AssociationToEntity(&m), nil
}

func (r *AssociationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StyleAssociation, error) {
	var models []*model.StyleAssociation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.AssociationsToEntities(models), nil
}

func (r *AssociationRepositoryImpl) CountByStyle(ctx context.Context) ([]*entity.StyleCount, error) {
	type row struct {
		Style string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.StyleAssociation{}).
		Select("style, COUNT(*) as count").
		Group("style").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make([]*entity.StyleCount, len(rows))
	for i, rw := range rows {
		counts[i] = &entity.StyleCount{Style: rw.Style, Count: rw.Count}
	}
	return counts, nil
}
