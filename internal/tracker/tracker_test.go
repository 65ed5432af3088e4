package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"jobforge/internal/domain"
)

type memRepo struct {
	mu   sync.Mutex
	defs map[uuid.UUID]*domain.Definition
}

func (r *memRepo) Create(_ context.Context, def *domain.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.ID] = def
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *def
	return &copied, nil
}

func (r *memRepo) List(_ context.Context) ([]domain.Definition, error) { return nil, nil }

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.DefinitionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def, ok := r.defs[id]; ok && !def.IsTerminal() {
		def.Status = status
	}
	return nil
}

func (r *memRepo) MarkSubmitted(_ context.Context, id uuid.UUID, jobID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def, ok := r.defs[id]; ok && !def.IsTerminal() {
		def.Status = domain.StatusSubmitted
		def.JobID = &jobID
	}
	return nil
}

func (r *memRepo) MarkRejected(_ context.Context, id uuid.UUID, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def, ok := r.defs[id]; ok && !def.IsTerminal() {
		def.Status = domain.StatusRejected
		def.LastError = errMessage
	}
	return nil
}

func (r *memRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error { return nil }

func (r *memRepo) snapshot(id uuid.UUID) domain.Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.defs[id]
}

type memBus struct {
	events chan domain.SubmissionResultEvent
}

func (b *memBus) PublishResult(_ context.Context, event domain.SubmissionResultEvent) error {
	b.events <- event
	return nil
}

func (b *memBus) SubscribeResults(_ context.Context) (<-chan domain.SubmissionResultEvent, error) {
	return b.events, nil
}

func setup(t *testing.T) (*memRepo, *memBus, *domain.Definition, context.CancelFunc) {
	t.Helper()

	repo := &memRepo{defs: map[uuid.UUID]*domain.Definition{}}
	bus := &memBus{events: make(chan domain.SubmissionResultEvent, 1)}

	def := domain.NewDefinition("dbt_pipeline", []byte(`{}`))
	def.Status = domain.StatusQueued
	repo.defs[def.ID] = def

	ctx, cancel := context.WithCancel(context.Background())
	tr := New(repo, bus, zaptest.NewLogger(t))
	go tr.Start(ctx)

	return repo, bus, def, cancel
}

func waitForStatus(t *testing.T, repo *memRepo, id uuid.UUID, want domain.DefinitionStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return repo.snapshot(id).Status == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTracker_AcceptedMarksSubmitted(t *testing.T) {
	repo, bus, def, cancel := setup(t)
	defer cancel()

	bus.events <- domain.SubmissionResultEvent{
		DefinitionID: def.ID,
		Name:         def.Name,
		Outcome:      domain.SubmissionAccepted,
		JobID:        4321,
	}

	waitForStatus(t, repo, def.ID, domain.StatusSubmitted)
	stored := repo.snapshot(def.ID)
	require.NotNil(t, stored.JobID)
	assert.Equal(t, int64(4321), *stored.JobID)
}

func TestTracker_RejectedMarksRejected(t *testing.T) {
	repo, bus, def, cancel := setup(t)
	defer cancel()

	bus.events <- domain.SubmissionResultEvent{
		DefinitionID: def.ID,
		Name:         def.Name,
		Outcome:      domain.SubmissionRejected,
		Error:        "jobs API said no",
	}

	waitForStatus(t, repo, def.ID, domain.StatusRejected)
	assert.Equal(t, "jobs API said no", repo.snapshot(def.ID).LastError)
}

func TestTracker_StopsOnContextCancel(t *testing.T) {
	repo := &memRepo{defs: map[uuid.UUID]*domain.Definition{}}
	bus := &memBus{events: make(chan domain.SubmissionResultEvent)}

	ctx, cancel := context.WithCancel(context.Background())
	tr := New(repo, bus, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- tr.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not stop after cancellation")
	}
}
