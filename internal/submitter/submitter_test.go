package submitter

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"jobforge/internal/domain"
)

type memQueue struct {
	items []string
}

func (q *memQueue) Push(_ context.Context, definitionID string) error {
	q.items = append(q.items, definitionID)
	return nil
}

func (q *memQueue) Pop(_ context.Context) (string, error) {
	if len(q.items) == 0 {
		return "", errors.New("queue empty")
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, nil
}

type memRepo struct {
	defs       map[uuid.UUID]*domain.Definition
	increments int
}

func (r *memRepo) Create(_ context.Context, def *domain.Definition) error {
	r.defs[def.ID] = def
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Definition, error) {
	def, ok := r.defs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *def
	return &copied, nil
}

func (r *memRepo) List(_ context.Context) ([]domain.Definition, error) { return nil, nil }

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.DefinitionStatus) error {
	if def, ok := r.defs[id]; ok {
		def.Status = status
	}
	return nil
}

func (r *memRepo) MarkSubmitted(_ context.Context, id uuid.UUID, jobID int64) error {
	if def, ok := r.defs[id]; ok {
		def.Status = domain.StatusSubmitted
		def.JobID = &jobID
	}
	return nil
}

func (r *memRepo) MarkRejected(_ context.Context, id uuid.UUID, errMessage string) error {
	if def, ok := r.defs[id]; ok {
		def.Status = domain.StatusRejected
		def.LastError = errMessage
	}
	return nil
}

func (r *memRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	r.increments++
	if def, ok := r.defs[id]; ok {
		def.Attempts++
	}
	return nil
}

type memBus struct {
	published []domain.SubmissionResultEvent
}

func (b *memBus) PublishResult(_ context.Context, event domain.SubmissionResultEvent) error {
	b.published = append(b.published, event)
	return nil
}

func (b *memBus) SubscribeResults(_ context.Context) (<-chan domain.SubmissionResultEvent, error) {
	panic("not used by the submitter")
}

type stubAPI struct {
	jobID int64
	err   error
	calls int
}

func (a *stubAPI) CreateJob(_ context.Context, _ []byte) (int64, error) {
	a.calls++
	if a.err != nil {
		return 0, a.err
	}
	return a.jobID, nil
}

type fixture struct {
	queue *memQueue
	repo  *memRepo
	api   *stubAPI
	bus   *memBus
	sub   *Submitter
	def   *domain.Definition
}

func setup(t *testing.T, api *stubAPI, maxAttempts int) *fixture {
	t.Helper()

	queue := &memQueue{}
	repo := &memRepo{defs: map[uuid.UUID]*domain.Definition{}}
	bus := &memBus{}

	def := domain.NewDefinition("dbt_pipeline", []byte(`{"name":"dbt_pipeline","tasks":[]}`))
	def.Status = domain.StatusQueued
	repo.defs[def.ID] = def
	queue.items = []string{def.ID.String()}

	return &fixture{
		queue: queue,
		repo:  repo,
		api:   api,
		bus:   bus,
		sub:   New(queue, repo, api, bus, zaptest.NewLogger(t), maxAttempts),
		def:   def,
	}
}

func TestSubmitNext_Accepted(t *testing.T) {
	f := setup(t, &stubAPI{jobID: 4321}, 3)

	f.sub.SubmitNext(context.Background())

	require.Len(t, f.bus.published, 1)
	event := f.bus.published[0]
	assert.Equal(t, domain.SubmissionAccepted, event.Outcome)
	assert.Equal(t, f.def.ID, event.DefinitionID)
	assert.Equal(t, int64(4321), event.JobID)
	assert.Empty(t, f.queue.items)
}

func TestSubmitNext_RetryableFailureRequeues(t *testing.T) {
	cause := domain.NewError(domain.ErrUpstreamError, "bad gateway").WithRetryable(true)
	f := setup(t, &stubAPI{err: cause}, 3)

	f.sub.SubmitNext(context.Background())

	assert.Empty(t, f.bus.published, "no terminal event while retries remain")
	assert.Equal(t, 1, f.repo.increments)
	assert.Equal(t, []string{f.def.ID.String()}, f.queue.items)
}

func TestSubmitNext_RetriesExhausted(t *testing.T) {
	cause := domain.NewError(domain.ErrRateLimited, "slow down").WithRetryable(true)
	f := setup(t, &stubAPI{err: cause}, 3)

	// Drain until the terminal event is published.
	for i := 0; i < 3; i++ {
		f.sub.SubmitNext(context.Background())
	}

	assert.Equal(t, 3, f.api.calls)
	assert.Equal(t, 2, f.repo.increments)
	require.Len(t, f.bus.published, 1)
	event := f.bus.published[0]
	assert.Equal(t, domain.SubmissionRejected, event.Outcome)
	assert.Contains(t, event.Error, "slow down")
	assert.Empty(t, f.queue.items)
}

func TestSubmitNext_NonRetryableFailureRejectsImmediately(t *testing.T) {
	cause := domain.NewError(domain.ErrAuthentication, "bad token")
	f := setup(t, &stubAPI{err: cause}, 3)

	f.sub.SubmitNext(context.Background())

	assert.Equal(t, 0, f.repo.increments)
	require.Len(t, f.bus.published, 1)
	assert.Equal(t, domain.SubmissionRejected, f.bus.published[0].Outcome)
	assert.Empty(t, f.queue.items)
}

func TestSubmitNext_TerminalDefinitionDropped(t *testing.T) {
	f := setup(t, &stubAPI{jobID: 1}, 3)
	f.def.Status = domain.StatusSubmitted

	f.sub.SubmitNext(context.Background())

	assert.Equal(t, 0, f.api.calls)
	assert.Empty(t, f.bus.published)
}

func TestSubmitNext_MalformedQueueEntry(t *testing.T) {
	f := setup(t, &stubAPI{jobID: 1}, 3)
	f.queue.items = []string{"not-a-uuid"}

	f.sub.SubmitNext(context.Background())

	assert.Equal(t, 0, f.api.calls)
	assert.Empty(t, f.bus.published)
}
