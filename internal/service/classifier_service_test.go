package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"style-classifier-be/internal/config"
	"style-classifier-be/internal/entity"
	"style-classifier-be/internal/pkg/apperr"
	"style-classifier-be/internal/repository/contract"
	"style-classifier-be/internal/repository/memory"
	"style-classifier-be/internal/repository/specification"
	"style-classifier-be/internal/repository/unitofwork"
	"style-classifier-be/pkg/embedding"
	"style-classifier-be/pkg/ranking"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeAssociationRepo struct {
	mu      sync.Mutex
	upserts []entity.StyleAssociation
	failErr error
}

func (f *fakeAssociationRepo) Upsert(_ context.Context, assoc *entity.StyleAssociation) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, *assoc)
	return nil
}

func (f *fakeAssociationRepo) FindOne(context.Context, ...specification.Specification) (*entity.StyleAssociation, error) {
	return nil, nil
}

func (f *fakeAssociationRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.StyleAssociation, error) {
	return nil, nil
}

func (f *fakeAssociationRepo) CountByStyle(context.Context) ([]*entity.StyleCount, error) {
	return nil, nil
}

type fakeVectorRepo struct {
	mu      sync.Mutex
	stored  map[string]entity.StyleVector // keyed by image hash
	failErr error
}

func newFakeVectorRepo() *fakeVectorRepo {
	return &fakeVectorRepo{stored: make(map[string]entity.StyleVector)}
}

func (f *fakeVectorRepo) Insert(_ context.Context, vector *entity.StyleVector) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.stored[vector.ImageHash]; exists {
		return contract.ErrDuplicateImage
	}
	f.stored[vector.ImageHash] = *vector
	return nil
}

func (f *fakeVectorRepo) FindOne(context.Context, ...specification.Specification) (*entity.StyleVector, error) {
	return nil, nil
}

func (f *fakeVectorRepo) FindStyleByUserAndHash(_ context.Context, userId uuid.UUID, hash string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.stored[hash]
	if !ok || v.UserId != userId {
		return "", false, nil
	}
	return v.Style, true, nil
}

func (f *fakeVectorRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.stored)), nil
}

type fakeUnitOfWork struct {
	assocs  *fakeAssociationRepo
	vectors *fakeVectorRepo
}

func (f *fakeUnitOfWork) Begin(context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error               { return nil }
func (f *fakeUnitOfWork) Rollback() error             { return nil }
func (f *fakeUnitOfWork) AssociationRepository() contract.AssociationRepository {
	return f.assocs
}
func (f *fakeUnitOfWork) StyleVectorRepository() contract.StyleVectorRepository {
	return f.vectors
}

func (f *fakeUnitOfWork) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f }

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	scores map[string]float64
	err    error
	block  chan struct{} // when set, Embed waits here until the channel closes
}

func (f *fakeEmbedder) Embed(_ context.Context, _ []byte, _ []string) (*embedding.EmbedResult, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbedResult{
		Vector: []float32{0.1, 0.2, 0.3},
		Scores: f.scores,
	}, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type classifierFixture struct {
	service  IClassifierService
	gate     *memory.RequestGate
	sessions *memory.SessionRepository
	assocs   *fakeAssociationRepo
	vectors  *fakeVectorRepo
	embedder *fakeEmbedder
	pub      *fakePublisher
	spoolDir string
}

func newClassifierFixture(t *testing.T, sessionTTL time.Duration) *classifierFixture {
	t.Helper()

	catalog, err := config.NewStyleCatalog([]config.Style{
		{Key: "classic", DisplayName: "классика"},
		{Key: "grunge", DisplayName: "гранж"},
		{Key: "retro", DisplayName: "ретро"},
		{Key: "casual", DisplayName: "кэжуал"},
	})
	require.NoError(t, err)

	ranker, err := ranking.NewRanker(catalog, 3)
	require.NoError(t, err)

	gate := memory.NewRequestGate()
	sessions := memory.NewSessionRepository(sessionTTL, time.Hour, NewSessionTeardown(gate, nopLogger{}))

	assocs := &fakeAssociationRepo{}
	vectors := newFakeVectorRepo()
	uow := &fakeUnitOfWork{assocs: assocs, vectors: vectors}

	embedder := &fakeEmbedder{scores: map[string]float64{
		"classic": 0.9,
		"grunge":  0.05,
		"retro":   0.3,
		"casual":  0.1,
	}}
	pub := &fakePublisher{}
	spoolDir := t.TempDir()

	svc := NewClassifierService(uow, gate, sessions, embedder, ranker, catalog, pub, spoolDir, nopLogger{})

	return &classifierFixture{
		service:  svc,
		gate:     gate,
		sessions: sessions,
		assocs:   assocs,
		vectors:  vectors,
		embedder: embedder,
		pub:      pub,
		spoolDir: spoolDir,
	}
}

func spoolFileCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestClassifyThenConfirmTop(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	res, prior, err := fx.service.Classify(ctx, user, []byte("outfit"))
	require.NoError(t, err)
	require.Nil(t, prior)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "classic", res.Candidates[0].Key)

	// Gate is held and the staged image exists until the decision.
	assert.True(t, fx.gate.Holds(user))
	assert.Equal(t, 1, spoolFileCount(t, fx.spoolDir))

	_, _, err = fx.service.Classify(ctx, user, []byte("another"))
	assert.ErrorIs(t, err, apperr.ErrRequestInFlight)

	decision, err := fx.service.ConfirmTop(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "classic", decision.Style)
	assert.Equal(t, "классика", decision.DisplayName)
	assert.False(t, decision.Duplicate)

	require.Len(t, fx.assocs.upserts, 1)
	assert.Equal(t, "classic", fx.assocs.upserts[0].Style)
	assert.Equal(t, user, fx.assocs.upserts[0].UserId)
	assert.Equal(t, 1, len(fx.vectors.stored))

	// Terminal state: gate free, session gone, spool reclaimed, event out.
	assert.False(t, fx.gate.Holds(user))
	assert.Equal(t, 0, fx.sessions.Len())
	assert.Equal(t, 0, spoolFileCount(t, fx.spoolDir))
	assert.Equal(t, 1, fx.pub.count())
}

func TestClassifyPriorMatchSkipsModel(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	ctx := context.Background()
	user := uuid.New()
	image := []byte("seen before")

	// First round: classify and confirm, so the hash is stored for the user.
	_, _, err := fx.service.Classify(ctx, user, image)
	require.NoError(t, err)
	_, err = fx.service.ConfirmTop(ctx, user)
	require.NoError(t, err)
	require.Equal(t, 1, fx.embedder.callCount())

	res, prior, err := fx.service.Classify(ctx, user, image)
	require.NoError(t, err)
	assert.Nil(t, res)
	require.NotNil(t, prior)
	assert.Equal(t, "classic", prior.Style)
	assert.Equal(t, "классика", prior.DisplayName)

	// No second model call, no pending session, gate free again.
	assert.Equal(t, 1, fx.embedder.callCount())
	assert.False(t, fx.gate.Holds(user))
	assert.Equal(t, 0, fx.sessions.Len())
}

func TestClassifyEmbedderFailureCleansUp(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	fx.embedder.err = errors.New("model unreachable")
	ctx := context.Background()
	user := uuid.New()

	_, _, err := fx.service.Classify(ctx, user, []byte("outfit"))
	assert.ErrorIs(t, err, apperr.ErrEmbedder)

	assert.False(t, fx.gate.Holds(user))
	assert.Equal(t, 0, fx.sessions.Len())
	assert.Equal(t, 0, spoolFileCount(t, fx.spoolDir))

	// The user can retry immediately.
	fx.embedder.err = nil
	_, _, err = fx.service.Classify(ctx, user, []byte("outfit"))
	assert.NoError(t, err)
}

func TestClassifyRejectsEmptyImage(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	user := uuid.New()

	_, _, err := fx.service.Classify(context.Background(), user, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.False(t, fx.gate.Holds(user))
}

func TestConfirmDuplicateImageIsSoftOutcome(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	ctx := context.Background()
	image := []byte("shared outfit")

	// Another user already stored a vector for the same content hash.
	first := uuid.New()
	_, _, err := fx.service.Classify(ctx, first, image)
	require.NoError(t, err)
	_, err = fx.service.ConfirmTop(ctx, first)
	require.NoError(t, err)

	// Per-user prior lookup misses, so the second user goes through the full
	// pipeline and collides on the global hash constraint at confirm time.
	second := uuid.New()
	_, prior, err := fx.service.Classify(ctx, second, image)
	require.NoError(t, err)
	require.Nil(t, prior)

	decision, err := fx.service.ConfirmTop(ctx, second)
	require.NoError(t, err)
	assert.True(t, decision.Duplicate)
	assert.Equal(t, "classic", decision.Style)

	// The association was still recorded for the second user.
	require.Len(t, fx.assocs.upserts, 2)
	assert.Equal(t, second, fx.assocs.upserts[1].UserId)
	assert.False(t, fx.gate.Holds(second))
}

func TestConfirmWithoutSession(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	user := uuid.New()

	_, err := fx.service.ConfirmTop(context.Background(), user)
	assert.ErrorIs(t, err, apperr.ErrSessionAbsent)
	assert.False(t, fx.gate.Holds(user))
}

func TestRejectThenSelect(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	_, _, err := fx.service.Classify(ctx, user, []byte("outfit"))
	require.NoError(t, err)

	rej, err := fx.service.Reject(ctx, user)
	require.NoError(t, err)
	assert.Len(t, rej.Candidates, 3)
	assert.Len(t, rej.Styles, 4) // full catalog offered

	// After reject the top candidate can no longer be confirmed blindly.
	_, err = fx.service.ConfirmTop(ctx, user)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// Session and gate survive the reject.
	assert.True(t, fx.gate.Holds(user))

	decision, err := fx.service.Select(ctx, user, "retro")
	require.NoError(t, err)
	assert.Equal(t, "retro", decision.Style)
	assert.Equal(t, "ретро", decision.DisplayName)

	require.Len(t, fx.assocs.upserts, 1)
	assert.Equal(t, "retro", fx.assocs.upserts[0].Style)
	assert.False(t, fx.gate.Holds(user))
	assert.Equal(t, 0, fx.sessions.Len())
}

func TestSelectUnknownStyleKeepsSession(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	_, _, err := fx.service.Classify(ctx, user, []byte("outfit"))
	require.NoError(t, err)

	_, err = fx.service.Select(ctx, user, "not_a_style")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// The pending session is untouched; a valid select still works.
	decision, err := fx.service.Select(ctx, user, "casual")
	require.NoError(t, err)
	assert.Equal(t, "casual", decision.Style)
}

func TestConfirmPersistenceFailureCleansUp(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	_, _, err := fx.service.Classify(ctx, user, []byte("outfit"))
	require.NoError(t, err)

	fx.assocs.failErr = errors.New("storage down")
	_, err = fx.service.ConfirmTop(ctx, user)
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	// No half-open state: gate released, session removed, spool reclaimed.
	assert.False(t, fx.gate.Holds(user))
	assert.Equal(t, 0, fx.sessions.Len())
	assert.Equal(t, 0, spoolFileCount(t, fx.spoolDir))
	assert.Equal(t, 0, fx.pub.count())
}

func TestStaleDecisionKeepsInFlightGate(t *testing.T) {
	fx := newClassifierFixture(t, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	release := make(chan struct{})
	fx.embedder.block = release

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := fx.service.Classify(ctx, user, []byte("outfit"))
		assert.NoError(t, err)
	}()

	// Wait until the classification holds the gate and sits inside the
	// model call: the window where no session exists yet.
	require.Eventually(t, func() bool {
		return fx.embedder.callCount() == 1
	}, time.Second, 5*time.Millisecond)
	require.True(t, fx.gate.Holds(user))

	// Decision calls with no session must not free the in-flight slot.
	_, err := fx.service.ConfirmTop(ctx, user)
	assert.ErrorIs(t, err, apperr.ErrSessionAbsent)
	_, err = fx.service.Reject(ctx, user)
	assert.ErrorIs(t, err, apperr.ErrSessionAbsent)
	_, err = fx.service.Select(ctx, user, "retro")
	assert.ErrorIs(t, err, apperr.ErrSessionAbsent)
	assert.True(t, fx.gate.Holds(user))

	// A second classification stays locked out for the whole window.
	_, _, err = fx.service.Classify(ctx, user, []byte("another"))
	assert.ErrorIs(t, err, apperr.ErrRequestInFlight)
	assert.Equal(t, 1, fx.embedder.callCount())

	close(release)
	<-done

	// The original request finished untouched and resolves normally.
	require.True(t, fx.gate.Holds(user))
	decision, err := fx.service.ConfirmTop(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "classic", decision.Style)
	assert.False(t, fx.gate.Holds(user))
}

func TestClassifyReclaimsExpiredSessionSlot(t *testing.T) {
	fx := newClassifierFixture(t, 30*time.Millisecond)
	ctx := context.Background()
	user := uuid.New()

	_, _, err := fx.service.Classify(ctx, user, []byte("outfit"))
	require.NoError(t, err)

	// TTL passes with no decision; the cleanup interval is an hour, so the
	// slot is still pinned by the expired session until something observes
	// the expiry.
	time.Sleep(60 * time.Millisecond)
	require.True(t, fx.gate.Holds(user))

	res, prior, err := fx.service.Classify(ctx, user, []byte("new outfit"))
	require.NoError(t, err)
	require.Nil(t, prior)
	require.Len(t, res.Candidates, 3)

	// The expired spool file was reclaimed; only the fresh one remains.
	assert.True(t, fx.gate.Holds(user))
	assert.Equal(t, 1, spoolFileCount(t, fx.spoolDir))
	assert.Equal(t, 1, fx.sessions.Len())
}

func TestExpiredSessionReleasesGateOnNextAction(t *testing.T) {
	fx := newClassifierFixture(t, 30*time.Millisecond)
	ctx := context.Background()
	user := uuid.New()

	_, _, err := fx.service.Classify(ctx, user, []byte("outfit"))
	require.NoError(t, err)
	require.True(t, fx.gate.Holds(user))

	time.Sleep(60 * time.Millisecond)

	_, err = fx.service.ConfirmTop(ctx, user)
	assert.ErrorIs(t, err, apperr.ErrSessionAbsent)

	assert.False(t, fx.gate.Holds(user))
	assert.Equal(t, 0, spoolFileCount(t, fx.spoolDir))

	// A fresh classification is admitted again.
	_, _, err = fx.service.Classify(ctx, user, []byte("new outfit"))
	assert.NoError(t, err)
}
