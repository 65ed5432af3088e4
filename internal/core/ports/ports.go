package ports

import (
	"context"

	"github.com/google/uuid"

	"jobforge/internal/domain"
)

// DefinitionRepository stores workflow definitions and their submission state.
type DefinitionRepository interface {
	// Create persists a new definition record
	Create(ctx context.Context, def *domain.Definition) error

	// GetByID loads a definition with its serialized document
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Definition, error)

	// List returns all definitions, newest first
	List(ctx context.Context) ([]domain.Definition, error)

	// UpdateStatus applies a guarded status transition
	// (terminal states are never overwritten)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DefinitionStatus) error

	// MarkSubmitted records the remote job ID handed back by the Jobs API
	MarkSubmitted(ctx context.Context, id uuid.UUID, jobID int64) error

	// MarkRejected records a terminal submission failure
	MarkRejected(ctx context.Context, id uuid.UUID, errMessage string) error

	// IncrementAttempts bumps the submission attempt counter
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
}

// SubmissionQueue holds definition IDs waiting to be delivered to the
// remote Jobs API.
type SubmissionQueue interface {
	// Push a definition ID to the pending list
	Push(ctx context.Context, definitionID string) error

	// Wait (block) until a definition ID is available
	Pop(ctx context.Context) (string, error)
}

// EventBus broadcasts submission results over Redis Pub/Sub.
type EventBus interface {
	// Publish a terminal submission outcome
	PublishResult(ctx context.Context, event domain.SubmissionResultEvent) error

	// Subscribe to results (used by the tracker)
	SubscribeResults(ctx context.Context) (<-chan domain.SubmissionResultEvent, error)
}

// JobsAPI is the remote job-creation endpoint.
type JobsAPI interface {
	// CreateJob submits a serialized workflow document and returns the
	// remote job ID on acceptance
	CreateJob(ctx context.Context, document []byte) (int64, error)
}
