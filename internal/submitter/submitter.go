// Package submitter delivers stored workflow documents to the remote Jobs
// API. It moves bytes, not work: the remote service owns execution.
package submitter

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobforge/internal/core/ports"
	"jobforge/internal/domain"
	"jobforge/internal/metrics"
)

type Submitter struct {
	queue       ports.SubmissionQueue
	repo        ports.DefinitionRepository
	api         ports.JobsAPI
	eventBus    ports.EventBus
	logger      *zap.Logger
	maxAttempts int
}

func New(
	queue ports.SubmissionQueue,
	repo ports.DefinitionRepository,
	api ports.JobsAPI,
	bus ports.EventBus,
	logger *zap.Logger,
	maxAttempts int,
) *Submitter {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Submitter{
		queue:       queue,
		repo:        repo,
		api:         api,
		eventBus:    bus,
		logger:      logger.With(zap.String("component", "submitter")),
		maxAttempts: maxAttempts,
	}
}

// SubmitNext handles exactly one queued definition: pop, load, deliver.
func (s *Submitter) SubmitNext(ctx context.Context) {
	// 1. POP: wait until a definition ID is available
	idStr, err := s.queue.Pop(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("pop from submission queue", zap.Error(err))
		}
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		s.logger.Error("malformed definition ID on queue", zap.String("id", idStr), zap.Error(err))
		return
	}

	// 2. FETCH: load the stored document
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("load definition", zap.String("id", idStr), zap.Error(err))
		return
	}
	if def.IsTerminal() {
		s.logger.Warn("definition already terminal, dropping",
			zap.String("id", idStr), zap.String("status", string(def.Status)))
		return
	}

	// 3. DELIVER
	jobID, err := s.api.CreateJob(ctx, def.Document)
	if err != nil {
		s.handleFailure(ctx, def, err)
		return
	}

	s.logger.Info("definition accepted by jobs API",
		zap.String("id", idStr),
		zap.String("name", def.Name),
		zap.Int64("job_id", jobID),
	)
	s.publish(ctx, domain.SubmissionResultEvent{
		DefinitionID: def.ID,
		Name:         def.Name,
		Outcome:      domain.SubmissionAccepted,
		JobID:        jobID,
	})
}

func (s *Submitter) handleFailure(ctx context.Context, def *domain.Definition, cause error) {
	if domain.IsRetryable(cause) && def.Attempts+1 < s.maxAttempts {
		s.logger.Warn("retryable submission failure, re-queuing",
			zap.String("id", def.ID.String()),
			zap.Int("attempt", def.Attempts+1),
			zap.Int("max_attempts", s.maxAttempts),
			zap.Error(cause),
		)
		if err := s.repo.IncrementAttempts(ctx, def.ID); err != nil {
			s.logger.Error("increment attempts", zap.String("id", def.ID.String()), zap.Error(err))
			return
		}
		metrics.SubmissionRetries.Inc()
		if err := s.queue.Push(ctx, def.ID.String()); err != nil {
			s.logger.Error("re-queue definition", zap.String("id", def.ID.String()), zap.Error(err))
		}
		return
	}

	s.logger.Error("submission failed permanently",
		zap.String("id", def.ID.String()),
		zap.String("name", def.Name),
		zap.Error(cause),
	)
	s.publish(ctx, domain.SubmissionResultEvent{
		DefinitionID: def.ID,
		Name:         def.Name,
		Outcome:      domain.SubmissionRejected,
		Error:        cause.Error(),
	})
}

func (s *Submitter) publish(ctx context.Context, event domain.SubmissionResultEvent) {
	if err := s.eventBus.PublishResult(ctx, event); err != nil {
		s.logger.Error("publish submission result",
			zap.String("id", event.DefinitionID.String()), zap.Error(err))
	}
}

// StartPool launches multiple concurrent submission loops.
func (s *Submitter) StartPool(ctx context.Context, concurrency int) {
	s.logger.Info("starting submitter pool", zap.Int("concurrency", concurrency))

	for i := 0; i < concurrency; i++ {
		go func(threadID int) {
			for {
				select {
				case <-ctx.Done():
					s.logger.Info("submitter thread shutting down", zap.Int("thread", threadID))
					return
				default:
					s.SubmitNext(ctx)
				}
			}
		}(i)
	}
}
