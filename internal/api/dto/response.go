package dto

import (
	"time"

	"github.com/google/uuid"

	"jobforge/internal/domain"
)

type DefinitionResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	JobID     *int64    `json:"job_id,omitempty"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromDefinition converts a stored definition into its API representation.
// The serialized document is deliberately omitted; it has its own endpoint.
func FromDefinition(def *domain.Definition) DefinitionResponse {
	return DefinitionResponse{
		ID:        def.ID,
		Name:      def.Name,
		Status:    string(def.Status),
		JobID:     def.JobID,
		Attempts:  def.Attempts,
		LastError: def.LastError,
		CreatedAt: def.CreatedAt,
		UpdatedAt: def.UpdatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TaskKey string `json:"task_key,omitempty"`
}
