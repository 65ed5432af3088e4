package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobforge/internal/api/dto"
	"jobforge/internal/domain"
	"jobforge/internal/service"
)

type WorkflowHandler struct {
	service service.WorkflowService
	logger  *zap.Logger
}

func NewWorkflowHandler(svc service.WorkflowService, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		service: svc,
		logger:  logger.With(zap.String("component", "workflow_handler")),
	}
}

// CreateWorkflow validates and stores a workflow document.
func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	var req dto.CreateWorkflowRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	def, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromDefinition(def))
}

// GetWorkflow returns a stored definition's metadata.
func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	def, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDefinition(def))
}

// ListWorkflows returns all stored definitions.
func (h *WorkflowHandler) ListWorkflows(c *gin.Context) {
	defs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]dto.DefinitionResponse, 0, len(defs))
	for i := range defs {
		out = append(out, dto.FromDefinition(&defs[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetDocument returns the canonical serialized job document, exactly as it
// is (or would be) submitted to the jobs/create endpoint.
func (h *WorkflowHandler) GetDocument(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	document, err := h.service.Document(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", document)
}

// SubmitWorkflow queues a stored definition for delivery to the Jobs API.
func (h *WorkflowHandler) SubmitWorkflow(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Submit(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": string(domain.StatusQueued)})
}

func (h *WorkflowHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid definition id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *WorkflowHandler) writeError(c *gin.Context, err error) {
	var derr *domain.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "definition not found"})

	case errors.As(err, &derr) && domain.IsValidation(derr):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   derr.Message,
			Code:    string(derr.Code),
			TaskKey: derr.TaskKey,
		})

	case errors.As(err, &derr) && derr.Code == domain.ErrInvalidRequest:
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: derr.Message,
			Code:  string(derr.Code),
		})

	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
