package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a top-level calendar entry owned by a user. Identity for sync
// purposes is the (UserID, ProviderEventID) pair; the same provider event
// synced twice lands on the same row.
type Event struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_events_user_provider" json:"user_id"`
	ProviderEventID string    `gorm:"not null;uniqueIndex:idx_events_user_provider" json:"provider_event_id"`
	Title           string    `gorm:"not null" json:"title"`
	// StartDate is date-only: midnight in the local representation, with any
	// time-of-day the provider supplied discarded.
	StartDate    time.Time  `json:"start_date"`
	Location     string     `json:"location"`
	ExternalLink *string    `json:"external_link,omitempty"`
	SubEvents    []SubEvent `gorm:"constraint:OnDelete:CASCADE" json:"sub_events,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SubEvent is a session or talk nested under an Event. Time tokens are kept
// as the free-text strings the source supplied ("9am", "4:30pm") — source
// material rarely gives unambiguous dates, so they are never parsed into
// absolute timestamps at rest.
type SubEvent struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID         uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Name            string    `gorm:"not null" json:"name"`
	StartTimeToken  string    `json:"start_time_token"`
	EndTimeToken    string    `json:"end_time_token"`
	Speaker         string    `json:"speaker"`
	SpeakerPosition string    `json:"speaker_position"`
	SpeakerCompany  string    `json:"speaker_company"`
	Location        *string   `json:"location,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Credential is the stored OAuth token triple for one user.
type Credential struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	UpdatedAt    time.Time `json:"updated_at"`
}
