// Package prompt renders companion prompts from persona, place and memory.
package prompt

import (
	"bytes"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

const travelerName = "Traveler"

// Discussion is the extra context of a companion-to-companion exchange.
type Discussion struct {
	Partner *world.Companion
	Dynamic *world.RelationshipDynamic // nil when the pair has none configured
	Style   world.DiscussionPattern
	Topic   string
	// ReplyTo is the partner's line being answered, empty for the opener.
	ReplyTo string
}

// BuildContext contains all inputs for prompt assembly.
type BuildContext struct {
	Companion  *world.Companion
	Landmark   *world.Landmark
	Mood       emotion.Mood
	Atmosphere string
	History    []session.Entry
	// Message is the player's text. Ignored for discussion turns.
	Message    string
	Discussion *Discussion
}

type line struct {
	Speaker string
	Content string
}

// Builder assembles the system and user contents for one generation.
type Builder struct {
	world        *world.World
	historyLimit int
}

// NewBuilder creates a prompt Builder. historyLimit defaults to the
// configured context window.
func NewBuilder(w *world.World, historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = w.Tuning.Memory.ContextWindow
	}
	return &Builder{
		world:        w,
		historyLimit: historyLimit,
	}
}

// Build assembles the prompt into genai contents: one system content and
// one user content.
func (b *Builder) Build(ctx BuildContext) ([]*genai.Content, error) {
	if ctx.Companion == nil {
		return nil, errors.New("companion is required")
	}
	system, err := b.BuildInstruction(ctx)
	if err != nil {
		return nil, err
	}

	user := ctx.Message
	if ctx.Discussion != nil {
		user, err = b.discussionMessage(ctx.Discussion)
		if err != nil {
			return nil, err
		}
	}

	return []*genai.Content{
		genai.NewContentFromText(system, "system"),
		genai.NewContentFromText(user, "user"),
	}, nil
}

// BuildInstruction renders the system instruction alone.
func (b *Builder) BuildInstruction(ctx BuildContext) (string, error) {
	if ctx.Companion == nil {
		return "", errors.New("companion is required")
	}
	if ctx.Discussion != nil && ctx.Discussion.Partner == nil {
		return "", errors.New("discussion partner is required")
	}

	history := ctx.History
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	lines := make([]line, 0, len(history))
	for _, e := range history {
		lines = append(lines, line{Speaker: b.speaker(e.Sender), Content: e.Content})
	}

	atmosphere := ctx.Atmosphere
	if atmosphere == "" {
		atmosphere = b.world.Atmosphere(string(emotion.ToneNeutral))
	}

	data := struct {
		Companion       *world.Companion
		Landmark        *world.Landmark
		MoodInstruction string
		Atmosphere      string
		History         []line
		Words           world.WordLimits
		Discussion      *Discussion
	}{
		Companion:       ctx.Companion,
		Landmark:        ctx.Landmark,
		MoodInstruction: emotion.MoodInstruction(ctx.Mood),
		Atmosphere:      atmosphere,
		History:         lines,
		Words:           b.world.Tuning.Words,
		Discussion:      ctx.Discussion,
	}

	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}

func (b *Builder) discussionMessage(d *Discussion) (string, error) {
	data := struct {
		*Discussion
		Words int
	}{
		Discussion: d,
		Words:      b.world.Tuning.Words.Discussion,
	}
	var buf bytes.Buffer
	if err := discussionTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build discussion prompt: %w", err)
	}
	return buf.String(), nil
}

func (b *Builder) speaker(sender string) string {
	if sender == session.PlayerSender {
		return travelerName
	}
	if c, err := b.world.Companion(world.CompanionID(sender)); err == nil {
		return c.Name
	}
	return sender
}
