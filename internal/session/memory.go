package session

import (
	"slices"
	"time"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// PlayerSender is the Entry sender for player messages. Companion entries
// use the companion id.
const PlayerSender = "player"

// Phase is the conversation phase.
type Phase string

const (
	PhaseIntroduction   Phase = "introduction"
	PhaseExploration    Phase = "exploration"
	PhaseDeepDiscussion Phase = "deep_discussion"
	PhaseConclusion     Phase = "conclusion"
)

// Engagement levels of the user profile.
const (
	EngagementLow    = "low"
	EngagementMedium = "medium"
	EngagementHigh   = "high"
)

// Entry is one remembered utterance.
type Entry struct {
	Sender    string       `json:"sender"`
	Content   string       `json:"content"`
	Tone      emotion.Tone `json:"tone,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// UserProfile is what the session has learned about the player.
type UserProfile struct {
	Style              analysis.Style    `json:"style"`
	Engagement         string            `json:"engagement"`
	PreferredCompanion world.CompanionID `json:"preferred_companion,omitempty"`
}

// Memory is the bounded conversation memory.
type Memory struct {
	Entries      []Entry      `json:"entries"`
	Themes       []string     `json:"themes"`
	DominantTone emotion.Tone `json:"dominant_tone"`
	Interests    []string     `json:"interests"`
	Phase        Phase        `json:"phase"`
	Profile      UserProfile  `json:"profile"`
}

func newMemory() Memory {
	return Memory{
		DominantTone: emotion.ToneNeutral,
		Phase:        PhaseIntroduction,
		Profile: UserProfile{
			Style:      analysis.StyleNeutral,
			Engagement: EngagementMedium,
		},
	}
}

// Window returns the last n entries, oldest first.
func (m Memory) Window(n int) []Entry {
	if n <= 0 || len(m.Entries) == 0 {
		return nil
	}
	start := max(len(m.Entries)-n, 0)
	return slices.Clone(m.Entries[start:])
}

func (m *Memory) push(e Entry, capacity int) {
	m.Entries = append(m.Entries, e)
	if over := len(m.Entries) - capacity; over > 0 {
		m.Entries = slices.Delete(m.Entries, 0, over)
	}
	m.DominantTone = dominantTone(m.Entries)
}

func (m *Memory) addThemes(topics []analysis.Topic, capacity int) {
	for _, t := range topics {
		if !slices.Contains(m.Themes, string(t)) {
			m.Themes = append(m.Themes, string(t))
		}
		if !slices.Contains(m.Interests, string(t)) {
			m.Interests = append(m.Interests, string(t))
		}
	}
	if over := len(m.Themes) - capacity; over > 0 {
		m.Themes = slices.Delete(m.Themes, 0, over)
	}
}

func (m *Memory) updatePhase(a analysis.Analysis) {
	switch {
	case a.HasIntent(analysis.IntentGreeting) || len(m.Entries) <= 2:
		m.Phase = PhaseIntroduction
	case a.HasIntent(analysis.IntentFarewell):
		m.Phase = PhaseConclusion
	case a.Complexity == analysis.ComplexityComplex || a.HasTopic(analysis.TopicPhilosophy):
		m.Phase = PhaseDeepDiscussion
	default:
		m.Phase = PhaseExploration
	}
}

func (m *Memory) updateProfile(a analysis.Analysis) {
	if a.Style != analysis.StyleNeutral {
		m.Profile.Style = a.Style
	}
	switch {
	case a.WordCount > 20 || a.Complexity == analysis.ComplexityComplex:
		m.Profile.Engagement = EngagementHigh
	case a.WordCount < 5:
		m.Profile.Engagement = EngagementLow
	default:
		m.Profile.Engagement = EngagementMedium
	}
	if len(a.MentionedCompanions) > 0 {
		m.Profile.PreferredCompanion = a.MentionedCompanions[0]
	}
}

// dominantTone is the most frequent tone among entries that carry one.
// Ties go to the tone seen most recently.
func dominantTone(entries []Entry) emotion.Tone {
	counts := make(map[emotion.Tone]int)
	best, bestCount := emotion.ToneNeutral, 0
	for i := len(entries) - 1; i >= 0; i-- {
		tone := entries[i].Tone
		if tone == "" {
			continue
		}
		counts[tone]++
	}
	for i := len(entries) - 1; i >= 0; i-- {
		tone := entries[i].Tone
		if tone == "" {
			continue
		}
		if c := counts[tone]; c > bestCount {
			best, bestCount = tone, c
		}
	}
	return best
}
