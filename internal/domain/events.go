package domain

import (
	"github.com/google/uuid"
)

type SubmissionOutcome string

const (
	SubmissionAccepted SubmissionOutcome = "accepted"
	SubmissionRejected SubmissionOutcome = "rejected"
)

// SubmissionResultEvent is published to Redis Pub/Sub by the submitter when
// a definition reaches a terminal outcome against the remote Jobs API.
type SubmissionResultEvent struct {
	DefinitionID uuid.UUID         `json:"definition_id"`
	Name         string            `json:"name"`
	Outcome      SubmissionOutcome `json:"outcome"`
	JobID        int64             `json:"job_id,omitempty"`
	Error        string            `json:"error,omitempty"`
}
