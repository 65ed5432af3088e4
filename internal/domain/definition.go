package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DefinitionStatus string

const (
	StatusDraft     DefinitionStatus = "DRAFT"
	StatusQueued    DefinitionStatus = "QUEUED"
	StatusSubmitted DefinitionStatus = "SUBMITTED"
	StatusRejected  DefinitionStatus = "REJECTED"
)

// Definition is a validated workflow definition at rest: the serialized
// document plus its submission state against the remote Jobs API.
type Definition struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;"`
	Name string    `gorm:"type:varchar(100);index;not null"`

	// State
	Status   DefinitionStatus `gorm:"type:varchar(20);index;default:'DRAFT'"`
	Document datatypes.JSON   `gorm:"type:jsonb;not null"`

	// Remote identity, set once the Jobs API accepts the document
	JobID *int64 `gorm:"index"`

	// Submission bookkeeping
	Attempts  int
	LastError string `gorm:"type:text"`

	// Audit
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDefinition wraps a serialized document in a DRAFT definition record.
func NewDefinition(name string, document []byte) *Definition {
	return &Definition{
		ID:       uuid.New(),
		Name:     name,
		Status:   StatusDraft,
		Document: datatypes.JSON(document),
	}
}

// IsTerminal reports whether the definition reached a final submission state.
func (d *Definition) IsTerminal() bool {
	return d.Status == StatusSubmitted || d.Status == StatusRejected
}
