package unitofwork

import (
	"context"

	"style-classifier-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AssociationRepository() contract.AssociationRepository
	StyleVectorRepository() contract.StyleVectorRepository
}
