// Package dialogue turns a companion and its context into a spoken line.
package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

var (
	// ErrTransient marks a generation failure worth retrying, such as a
	// rate limit from the backend.
	ErrTransient = errors.New("transient generation failure")
	// ErrHard marks a generation failure that retrying will not fix.
	ErrHard = errors.New("generation failure")
)

// Error is a failed generation. errors.Is matches it against ErrTransient
// or ErrHard and against the underlying cause.
type Error struct {
	Companion world.CompanionID
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "hard"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s generation failure for %s: %v", kind, e.Companion, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Transient {
		return []error{ErrTransient, e.Err}
	}
	return []error{ErrHard, e.Err}
}

// DiscussionContext describes a companion-to-companion exchange.
type DiscussionContext struct {
	Partner world.CompanionID
	Style   world.DiscussionPattern
	Topic   string
	ReplyTo string
}

// PromptContext is everything a companion needs to answer.
type PromptContext struct {
	Landmark   world.LandmarkID
	Mood       emotion.Mood
	Atmosphere string
	History    []session.Entry
	Message    string
	Discussion *DiscussionContext
}

// Utterance is one generated line.
type Utterance struct {
	Text       string
	TokensUsed int
}

// Gateway generates companion utterances.
type Gateway interface {
	Generate(ctx context.Context, id world.CompanionID, pc PromptContext) (Utterance, error)
}
