// Package types holds the records shared by persistence and the message log.
package types

import (
	"time"

	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// Journey is a persisted sanctuary session.
type Journey struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Snapshot   session.Snapshot `json:"snapshot"`
	TokenCount int              `json:"token_count"`
	Active     bool             `json:"active"`
	LastSaved  time.Time        `json:"last_saved"`
}

// Landmark returns the landmark the journey was saved at.
func (j Journey) Landmark() world.LandmarkID {
	return j.Snapshot.Landmark
}

// LogType classifies a message log entry.
type LogType string

const (
	LogPlayer     LogType = "player"
	LogCompanion  LogType = "companion"
	LogDiscussion LogType = "discussion"
	LogDecision   LogType = "decision"
)

// LogEntry is one audit record of a turn. Responders, Discussion and Crisis
// are only set on decision entries.
type LogEntry struct {
	Timestamp  time.Time           `json:"timestamp"`
	UserID     string              `json:"user_id"`
	JourneyID  string              `json:"journey_id"`
	Type       LogType             `json:"type"`
	Sender     string              `json:"sender"`
	Content    string              `json:"content"`
	TokensUsed int                 `json:"tokens_used,omitempty"`
	Landmark   world.LandmarkID    `json:"landmark"`
	Responders []world.CompanionID `json:"responders,omitempty"`
	Discussion bool                `json:"discussion,omitempty"`
	Crisis     bool                `json:"crisis,omitempty"`
}
