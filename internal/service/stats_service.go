package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"style-classifier-be/internal/config"
	"style-classifier-be/internal/dto"
	"style-classifier-be/internal/pkg/apperr"
	"style-classifier-be/internal/repository/specification"
	"style-classifier-be/internal/repository/unitofwork"
)

const popularityCacheKey = "style_popularity"

type IStatsService interface {
	// History lists the user's confirmed styles, most recent first.
	History(ctx context.Context, userId uuid.UUID) ([]*dto.HistoryEntry, error)

	// MostRecent returns the user's latest confirmed style, nil when the user
	// has none yet.
	MostRecent(ctx context.Context, userId uuid.UUID) (*dto.RecentStyleResponse, error)

	// Popularity returns confirmation counts per style, descending.
	Popularity(ctx context.Context) ([]*dto.PopularityEntry, error)

	// RefreshPopularity recomputes the cached popularity snapshot. Called by
	// the confirmation consumer after every decision.
	RefreshPopularity(ctx context.Context) error
}

type statsService struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    config.StyleCatalog
	snapshot   *cache.Cache
}

func NewStatsService(uowFactory unitofwork.RepositoryFactory, catalog config.StyleCatalog) IStatsService {
	return &statsService{
		uowFactory: uowFactory,
		catalog:    catalog,
		// The snapshot ages out on its own so a missed refresh cannot serve
		// stale counts forever.
		snapshot: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *statsService) History(ctx context.Context, userId uuid.UUID) ([]*dto.HistoryEntry, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	assocs, err := uow.AssociationRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %v", apperr.ErrPersistence, err)
	}

	entries := make([]*dto.HistoryEntry, len(assocs))
	for i, a := range assocs {
		entries[i] = &dto.HistoryEntry{
			Style:       a.Style,
			DisplayName: s.catalog.DisplayName(a.Style),
			ConfirmedAt: a.UpdatedAt,
		}
	}
	return entries, nil
}

func (s *statsService) MostRecent(ctx context.Context, userId uuid.UUID) (*dto.RecentStyleResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	assoc, err := uow.AssociationRepository().FindOne(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load recent style: %v", apperr.ErrPersistence, err)
	}
	if assoc == nil {
		return nil, nil
	}
	return &dto.RecentStyleResponse{
		Style:       assoc.Style,
		DisplayName: s.catalog.DisplayName(assoc.Style),
	}, nil
}

func (s *statsService) Popularity(ctx context.Context) ([]*dto.PopularityEntry, error) {
	if cached, found := s.snapshot.Get(popularityCacheKey); found {
		return cached.([]*dto.PopularityEntry), nil
	}

	entries, err := s.loadPopularity(ctx)
	if err != nil {
		return nil, err
	}
	s.snapshot.Set(popularityCacheKey, entries, cache.DefaultExpiration)
	return entries, nil
}

func (s *statsService) RefreshPopularity(ctx context.Context) error {
	entries, err := s.loadPopularity(ctx)
	if err != nil {
		return err
	}
	s.snapshot.Set(popularityCacheKey, entries, cache.DefaultExpiration)
	return nil
}

func (s *statsService) loadPopularity(ctx context.Context) ([]*dto.PopularityEntry, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	counts, err := uow.AssociationRepository().CountByStyle(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load popularity: %v", apperr.ErrPersistence, err)
	}

	entries := make([]*dto.PopularityEntry, len(counts))
	for i, c := range counts {
		entries[i] = &dto.PopularityEntry{
			Style:       c.Style,
			DisplayName: s.catalog.DisplayName(c.Style),
			Count:       c.Count,
		}
	}
	return entries, nil
}
