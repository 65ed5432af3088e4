package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobforge/internal/api/dto"
	"jobforge/internal/codec"
	"jobforge/internal/core/ports"
	"jobforge/internal/domain"
	"jobforge/internal/metrics"
)

type WorkflowService interface {
	// Create validates a workflow document and stores it; optionally
	// queues it for submission
	Create(ctx context.Context, req dto.CreateWorkflowRequest) (*domain.Definition, error)

	// Get loads a stored definition
	Get(ctx context.Context, id uuid.UUID) (*domain.Definition, error)

	// List returns all stored definitions
	List(ctx context.Context) ([]domain.Definition, error)

	// Document returns the canonical serialized job document
	Document(ctx context.Context, id uuid.UUID) ([]byte, error)

	// Submit queues a stored definition for delivery to the Jobs API
	Submit(ctx context.Context, id uuid.UUID) error
}

type workflowService struct {
	repo   ports.DefinitionRepository
	queue  ports.SubmissionQueue
	logger *zap.Logger
}

func NewWorkflowService(repo ports.DefinitionRepository, queue ports.SubmissionQueue, logger *zap.Logger) WorkflowService {
	return &workflowService{
		repo:   repo,
		queue:  queue,
		logger: logger.With(zap.String("component", "workflow_service")),
	}
}

func (s *workflowService) Create(ctx context.Context, req dto.CreateWorkflowRequest) (*domain.Definition, error) {
	// 1. Rebuild the in-memory model from the document. Decode validates:
	// unique keys, known dependencies, acyclicity, branch completeness,
	// ForEach bounds. Nothing is stored on failure.
	workflow, err := codec.Decode(&req.Workflow)
	if err != nil {
		if code := domain.CodeOf(err); code != "" {
			metrics.ValidationFailures.WithLabelValues(string(code)).Inc()
		}
		return nil, err
	}

	// 2. Re-encode to the canonical form: tasks in topological order,
	// stable across repeated encodings.
	document, err := codec.EncodeJSON(workflow)
	if err != nil {
		return nil, err
	}

	// 3. Persist
	def := domain.NewDefinition(workflow.Name, document)
	if err := s.repo.Create(ctx, def); err != nil {
		return nil, err
	}
	metrics.DefinitionsCreated.Inc()
	s.logger.Info("definition created",
		zap.String("id", def.ID.String()),
		zap.String("name", def.Name),
		zap.Int("tasks", len(workflow.Tasks())),
	)

	// 4. Optionally queue for submission
	if req.Submit {
		if err := s.enqueue(ctx, def.ID); err != nil {
			return nil, err
		}
		def.Status = domain.StatusQueued
	}

	return def, nil
}

func (s *workflowService) Get(ctx context.Context, id uuid.UUID) (*domain.Definition, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *workflowService) List(ctx context.Context) ([]domain.Definition, error) {
	return s.repo.List(ctx)
}

func (s *workflowService) Document(ctx context.Context, id uuid.UUID) ([]byte, error) {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return def.Document, nil
}

func (s *workflowService) Submit(ctx context.Context, id uuid.UUID) error {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if def.Status == domain.StatusSubmitted {
		return domain.NewError(domain.ErrInvalidRequest, "definition already submitted")
	}
	if def.Status == domain.StatusQueued {
		return domain.NewError(domain.ErrInvalidRequest, "definition already queued")
	}
	return s.enqueue(ctx, def.ID)
}

func (s *workflowService) enqueue(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateStatus(ctx, id, domain.StatusQueued); err != nil {
		return err
	}
	return s.queue.Push(ctx, id.String())
}
