package dto

import "jobforge/internal/codec"

// CreateWorkflowRequest wraps a Jobs API document. The document itself is
// the contract: whatever validates here is exactly what gets submitted.
type CreateWorkflowRequest struct {
	Workflow codec.Document `json:"workflow" binding:"required"`

	// Submit queues the definition for delivery immediately after it is
	// stored, instead of leaving it in DRAFT.
	Submit bool `json:"submit"`
}
