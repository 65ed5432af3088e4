// Package tracker applies terminal submission outcomes to stored
// definitions. It listens on the event bus and owns the status writes, so
// the submitter never touches definition state directly.
package tracker

import (
	"context"

	"go.uber.org/zap"

	"jobforge/internal/core/ports"
	"jobforge/internal/domain"
	"jobforge/internal/metrics"
)

type Tracker struct {
	repo     ports.DefinitionRepository
	eventBus ports.EventBus
	logger   *zap.Logger
}

func New(repo ports.DefinitionRepository, bus ports.EventBus, logger *zap.Logger) *Tracker {
	return &Tracker{
		repo:     repo,
		eventBus: bus,
		logger:   logger.With(zap.String("component", "tracker")),
	}
}

// Start begins the listening loop. Call this in main as a goroutine.
func (t *Tracker) Start(ctx context.Context) error {
	events, err := t.eventBus.SubscribeResults(ctx)
	if err != nil {
		return err
	}
	t.logger.Info("tracker started, listening for submission results")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker shutting down")
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			t.handleResult(ctx, event)
		}
	}
}

func (t *Tracker) handleResult(ctx context.Context, event domain.SubmissionResultEvent) {
	switch event.Outcome {
	case domain.SubmissionAccepted:
		if err := t.repo.MarkSubmitted(ctx, event.DefinitionID, event.JobID); err != nil {
			t.logger.Error("mark definition submitted",
				zap.String("id", event.DefinitionID.String()), zap.Error(err))
			return
		}
		metrics.Submissions.WithLabelValues(string(domain.SubmissionAccepted)).Inc()
		t.logger.Info("definition submitted",
			zap.String("id", event.DefinitionID.String()),
			zap.String("name", event.Name),
			zap.Int64("job_id", event.JobID),
		)

	case domain.SubmissionRejected:
		if err := t.repo.MarkRejected(ctx, event.DefinitionID, event.Error); err != nil {
			t.logger.Error("mark definition rejected",
				zap.String("id", event.DefinitionID.String()), zap.Error(err))
			return
		}
		metrics.Submissions.WithLabelValues(string(domain.SubmissionRejected)).Inc()
		t.logger.Warn("definition rejected",
			zap.String("id", event.DefinitionID.String()),
			zap.String("name", event.Name),
			zap.String("error", event.Error),
		)

	default:
		t.logger.Error("unknown submission outcome",
			zap.String("outcome", string(event.Outcome)))
	}
}
