package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"style-classifier-be/internal/config"
	"style-classifier-be/internal/dto"
	"style-classifier-be/internal/entity"
	"style-classifier-be/internal/pkg/apperr"
	"style-classifier-be/internal/pkg/logger"
	"style-classifier-be/internal/repository/contract"
	"style-classifier-be/internal/repository/memory"
	"style-classifier-be/internal/repository/unitofwork"
	"style-classifier-be/pkg/embedding"
	"style-classifier-be/pkg/imagehash"
	"style-classifier-be/pkg/ranking"
	"style-classifier-be/pkg/store"
)

type IClassifierService interface {
	// Classify runs the full pipeline for one uploaded image. Exactly one of
	// the two responses is non-nil on success: a prior match resolves the
	// request immediately, otherwise a pending session is created and the
	// ranked candidates are returned.
	Classify(ctx context.Context, userId uuid.UUID, image []byte) (*dto.ClassifyResponse, *dto.PriorMatchResponse, error)

	// ConfirmTop accepts the highest-ranked candidate of the pending session.
	ConfirmTop(ctx context.Context, userId uuid.UUID) (*dto.DecisionResponse, error)

	// Reject declines the top candidate and moves the session into
	// reselection; the session and gate stay alive until Select.
	Reject(ctx context.Context, userId uuid.UUID) (*dto.RejectResponse, error)

	// Select resolves the pending session with an explicit style choice.
	Select(ctx context.Context, userId uuid.UUID, styleKey string) (*dto.DecisionResponse, error)
}

type classifierService struct {
	uowFactory       unitofwork.RepositoryFactory
	gate             *memory.RequestGate
	sessions         *memory.SessionRepository
	embedder         embedding.ImageEmbedder
	ranker           *ranking.Ranker
	catalog          config.StyleCatalog
	publisherService IPublisherService
	spoolDir         string
	logger           logger.ILogger
}

func NewClassifierService(
	uowFactory unitofwork.RepositoryFactory,
	gate *memory.RequestGate,
	sessions *memory.SessionRepository,
	embedder embedding.ImageEmbedder,
	ranker *ranking.Ranker,
	catalog config.StyleCatalog,
	publisherService IPublisherService,
	spoolDir string,
	logger logger.ILogger,
) IClassifierService {
	return &classifierService{
		uowFactory:       uowFactory,
		gate:             gate,
		sessions:         sessions,
		embedder:         embedder,
		ranker:           ranker,
		catalog:          catalog,
		publisherService: publisherService,
		spoolDir:         spoolDir,
		logger:           logger,
	}
}

// NewSessionTeardown builds the cleanup hook wired into the session store:
// whenever a session is removed on any path (explicit remove, supersede, TTL
// expiry) its spool file is deleted and the user's gate slot is freed.
func NewSessionTeardown(gate *memory.RequestGate, log logger.ILogger) memory.Teardown {
	return func(session *store.ClassificationSession) {
		if session.SpoolPath != "" {
			if err := os.Remove(session.SpoolPath); err != nil && !os.IsNotExist(err) {
				log.Warn("classifier", "Failed to remove spooled image", map[string]interface{}{
					"path":  session.SpoolPath,
					"error": err.Error(),
				})
			}
		}
		gate.Leave(session.UserID)
	}
}

func (s *classifierService) Classify(ctx context.Context, userId uuid.UUID, image []byte) (*dto.ClassifyResponse, *dto.PriorMatchResponse, error) {
	// TryEnter is the only admission primitive. When it refuses, the slot is
	// either owned by a live request or pinned by an expired session the
	// janitor has not reaped yet; a read makes the expiry observable and
	// fires the teardown that frees the slot, so one retry covers it.
	if !s.gate.TryEnter(userId) {
		if _, found := s.sessions.Get(userId); found {
			return nil, nil, fmt.Errorf("%w: classification already running for user %s", apperr.ErrRequestInFlight, userId)
		}
		if !s.gate.TryEnter(userId) {
			return nil, nil, fmt.Errorf("%w: classification already running for user %s", apperr.ErrRequestInFlight, userId)
		}
	}

	// Every exit below either hands ownership to the session store or runs
	// this cleanup; the gate can never leak.
	var spoolPath string
	committed := false
	defer func() {
		if committed {
			return
		}
		if spoolPath != "" {
			os.Remove(spoolPath)
		}
		s.gate.Leave(userId)
	}()

	hash, err := imagehash.Sum(image)
	if err != nil {
		return nil, nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Duplicate short-circuit: this exact content was already confirmed by
	// this user, so the stored style is returned without calling the model.
	priorStyle, found, err := uow.StyleVectorRepository().FindStyleByUserAndHash(ctx, userId, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: prior association lookup: %v", apperr.ErrPersistence, err)
	}
	if found {
		s.logger.Info("classifier", "Prior match, skipping model call", map[string]interface{}{
			"user_id": userId.String(),
			"style":   priorStyle,
		})
		return nil, &dto.PriorMatchResponse{
			Style:       priorStyle,
			DisplayName: s.catalog.DisplayName(priorStyle),
			ImageHash:   hash,
		}, nil
	}

	result, err := s.embedder.Embed(ctx, image, s.catalog.Keys())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrEmbedder, err)
	}

	candidates, err := s.ranker.Rank(result.Scores)
	if err != nil {
		return nil, nil, err
	}

	spoolPath, err = s.spoolImage(image)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: spool image: %v", apperr.ErrPersistence, err)
	}

	session := &store.ClassificationSession{
		UserID:     userId,
		Candidates: candidates,
		ImageHash:  hash,
		Vector:     result.Vector,
		SpoolPath:  spoolPath,
		State:      store.StateAwaitingDecision,
		CreatedAt:  time.Now(),
	}
	s.sessions.Put(session)
	committed = true

	s.logger.Info("classifier", "Classification pending decision", map[string]interface{}{
		"user_id":    userId.String(),
		"image_hash": hash,
		"top_style":  candidates[0].Key,
	})

	return &dto.ClassifyResponse{
		Candidates: candidates,
		ImageHash:  hash,
	}, nil, nil
}

func (s *classifierService) ConfirmTop(ctx context.Context, userId uuid.UUID) (*dto.DecisionResponse, error) {
	session, found := s.sessions.Get(userId)
	if !found {
		// The gate is not touched here: an expired session already freed it
		// through the store's teardown, and a missing session with a held
		// gate means a classification is still in flight for this user.
		return nil, fmt.Errorf("%w: no pending classification, please resubmit the image", apperr.ErrSessionAbsent)
	}
	if session.State != store.StateAwaitingDecision {
		return nil, fmt.Errorf("%w: top candidate was already rejected, select a style instead", apperr.ErrInvalidInput)
	}
	return s.resolve(ctx, session, session.Top().Key)
}

func (s *classifierService) Reject(ctx context.Context, userId uuid.UUID) (*dto.RejectResponse, error) {
	session, found := s.sessions.Get(userId)
	if !found {
		return nil, fmt.Errorf("%w: no pending classification, please resubmit the image", apperr.ErrSessionAbsent)
	}

	// The state flip happens inside the store, under its lock. Re-storing
	// the session would fire the supersede teardown against its own spool
	// file, so Put is not an option here.
	s.sessions.MarkReselecting(userId)

	options := make([]dto.StyleOption, 0, s.catalog.Len())
	for _, st := range s.catalog.Styles() {
		options = append(options, dto.StyleOption{Key: st.Key, DisplayName: st.DisplayName})
	}
	return &dto.RejectResponse{
		Candidates: session.Candidates,
		Styles:     options,
	}, nil
}

func (s *classifierService) Select(ctx context.Context, userId uuid.UUID, styleKey string) (*dto.DecisionResponse, error) {
	if !s.catalog.Contains(styleKey) {
		return nil, fmt.Errorf("%w: unknown style %q", apperr.ErrInvalidInput, styleKey)
	}
	session, found := s.sessions.Get(userId)
	if !found {
		return nil, fmt.Errorf("%w: no pending classification, please resubmit the image", apperr.ErrSessionAbsent)
	}
	return s.resolve(ctx, session, styleKey)
}

// resolve commits the decided style and clears session and gate. The two
// writes are sequential, not transactional: the association must exist even
// when the vector write hits the duplicate constraint, because the
// association is the user-visible fact while the vector is a dedup artifact.
func (s *classifierService) resolve(ctx context.Context, session *store.ClassificationSession, styleKey string) (*dto.DecisionResponse, error) {
	userId := session.UserID
	uow := s.uowFactory.NewUnitOfWork(ctx)

	now := time.Now()
	err := uow.AssociationRepository().Upsert(ctx, &entity.StyleAssociation{
		UserId:    userId,
		Style:     styleKey,
		CreatedAt: now,
	})
	if err != nil {
		s.sessions.Remove(userId)
		return nil, fmt.Errorf("%w: save association: %v", apperr.ErrPersistence, err)
	}

	duplicate := false
	err = uow.StyleVectorRepository().Insert(ctx, &entity.StyleVector{
		Id:        uuid.New(),
		UserId:    userId,
		Style:     styleKey,
		Embedding: session.Vector,
		ImageHash: session.ImageHash,
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, contract.ErrDuplicateImage) {
			duplicate = true
		} else {
			s.sessions.Remove(userId)
			return nil, fmt.Errorf("%w: save vector: %v", apperr.ErrPersistence, err)
		}
	}

	imageHash := session.ImageHash
	s.sessions.Remove(userId) // teardown releases the spool file and the gate

	s.logger.Info("classifier", "Style confirmed", map[string]interface{}{
		"user_id":   userId.String(),
		"style":     styleKey,
		"duplicate": duplicate,
	})

	s.publishConfirmed(ctx, userId, styleKey, imageHash, duplicate)

	return &dto.DecisionResponse{
		Style:       styleKey,
		DisplayName: s.catalog.DisplayName(styleKey),
		Duplicate:   duplicate,
	}, nil
}

// publishConfirmed hands the decision to the async pipeline. Failures are
// logged, never surfaced: the confirmation already succeeded.
func (s *classifierService) publishConfirmed(ctx context.Context, userId uuid.UUID, styleKey, imageHash string, duplicate bool) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.StyleConfirmedMessage{
		UserId:    userId.String(),
		Style:     styleKey,
		ImageHash: imageHash,
		Duplicate: duplicate,
	})
	if err != nil {
		s.logger.Warn("classifier", "Failed to marshal confirmation message", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("classifier", "Failed to publish confirmation message", map[string]interface{}{"error": err.Error()})
	}
}

func (s *classifierService) spoolImage(image []byte) (string, error) {
	f, err := os.CreateTemp(s.spoolDir, "classify-*.img")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(image); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
