package mapper

import (
	"github.com/pgvector/pgvector-go"

	"style-classifier-be/internal/entity"
	"style-classifier-be/internal/model"
)

type StyleMapper struct{}

func NewStyleMapper() *StyleMapper {
	return &StyleMapper{}
}

func (m *StyleMapper) AssociationToEntity(a *model.StyleAssociation) *entity.StyleAssociation {
	if a == nil {
		return nil
	}
	return &entity.StyleAssociation{
		UserId:    a.UserId,
		Style:     a.Style,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *StyleMapper) AssociationToModel(a *entity.StyleAssociation) *model.StyleAssociation {
	if a == nil {
		return nil
	}
	return &model.StyleAssociation{
		UserId:    a.UserId,
		Style:     a.Style,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *StyleMapper) AssociationsToEntities(models []*model.StyleAssociation) []*entity.StyleAssociation {
	entities := make([]*entity.StyleAssociation, len(models))
	for i, a := range models {
		entities[i] = m.AssociationToEntity(a)
	}
	return entities
}

func (m *StyleMapper) VectorToEntity(v *model.StyleVector) *entity.StyleVector {
	if v == nil {
		return nil
	}
	return &entity.StyleVector{
		Id:        v.Id,
		UserId:    v.UserId,
		Style:     v.Style,
		Embedding: v.Embedding.Slice(),
		ImageHash: v.ImageHash,
		CreatedAt: v.CreatedAt,
	}
}

func (m *StyleMapper) VectorToModel(v *entity.StyleVector) *model.StyleVector {
	if v == nil {
		return nil
	}
	return &model.StyleVector{
		Id:        v.Id,
		UserId:    v.UserId,
		Style:     v.Style,
		Embedding: pgvector.NewVector(v.Embedding),
		ImageHash: v.ImageHash,
		CreatedAt: v.CreatedAt,
	}
}
