// Package session tracks the mutable state of one sanctuary journey: where
// the party is, who spoke when, and what the conversation remembers.
package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// CompanionState is the per-companion bookkeeping. LastSpoke is the message
// counter of the turn the companion last answered; 0 means never.
type CompanionState struct {
	LastSpoke    int               `json:"last_spoke"`
	RecentTopics []string          `json:"recent_topics"`
	Mood         emotion.MoodState `json:"mood"`
	Engagement   int               `json:"engagement"`
}

// Reader is the read-only view of a session used by scoring and analysis.
type Reader interface {
	Landmark() world.LandmarkID
	Counter() int
	Companion(id world.CompanionID) CompanionState
	Memory() Memory
	Themes() []string
	Interests() []string
}

// State is the session state. It is not safe for concurrent use; the
// coordinator serializes turns.
type State struct {
	world    *world.World
	moods    *emotion.StateMachine
	now      func() time.Time
	landmark world.LandmarkID
	counter  int
	comps    map[world.CompanionID]*CompanionState
	memory   Memory
}

// New returns a fresh session at the configured starting landmark.
func New(w *world.World) *State {
	s := &State{
		world: w,
		moods: emotion.NewStateMachine(),
		now:   time.Now,
	}
	s.Reset()
	return s
}

// Reset returns the session to its initial state.
func (s *State) Reset() {
	s.landmark = s.world.StartLandmark
	s.counter = 0
	s.comps = make(map[world.CompanionID]*CompanionState, len(s.world.Companions))
	for _, id := range s.world.CompanionIDs() {
		s.comps[id] = &CompanionState{Mood: s.moods.Initial()}
	}
	s.memory = newMemory()
}

// BeginTurn advances the message counter for a new player message and
// returns the new value.
func (s *State) BeginTurn() int {
	s.counter++
	return s.counter
}

// Fold records the player's message and folds its analysis into memory,
// phase, user profile and companion moods.
func (s *State) Fold(a analysis.Analysis) {
	s.memory.push(Entry{
		Sender:    PlayerSender,
		Content:   a.Text,
		Tone:      a.Emotion.Tone,
		Timestamp: s.now(),
	}, s.world.Tuning.Memory.RecentMessages)
	s.memory.addThemes(a.Topics, s.world.Tuning.Memory.Themes)
	s.memory.updatePhase(a)
	s.memory.updateProfile(a)

	for _, cs := range s.comps {
		cs.Mood = s.moods.Update(cs.Mood, a.Emotion.Tone)
	}
}

// Record appends a companion utterance to memory.
func (s *State) Record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	s.memory.push(e, s.world.Tuning.Memory.RecentMessages)
}

// MarkSpoke records that id answered on the current turn.
func (s *State) MarkSpoke(id world.CompanionID, topics []string) error {
	cs, ok := s.comps[id]
	if !ok {
		return fmt.Errorf("failed to mark %q: %w", id, world.ErrUnknownCompanion)
	}
	cs.LastSpoke = s.counter
	cs.Engagement++
	cs.RecentTopics = slices.Clone(topics)
	return nil
}

// MoveTo changes the current landmark and lets each companion react to it.
func (s *State) MoveTo(id world.LandmarkID) error {
	if !s.world.HasLandmark(id) {
		return fmt.Errorf("failed to move to %q: %w", id, world.ErrUnknownLandmark)
	}
	s.landmark = id
	for cid, cs := range s.comps {
		c, err := s.world.Companion(cid)
		if err != nil {
			return err
		}
		cs.Mood = s.moods.OnLandmark(cs.Mood, c.Affinity(id))
	}
	return nil
}

// Landmark returns the current landmark.
func (s *State) Landmark() world.LandmarkID { return s.landmark }

// Counter returns the message counter.
func (s *State) Counter() int { return s.counter }

// Companion returns a copy of the companion's state. Unknown ids return the
// zero value.
func (s *State) Companion(id world.CompanionID) CompanionState {
	cs, ok := s.comps[id]
	if !ok {
		return CompanionState{}
	}
	out := *cs
	out.RecentTopics = slices.Clone(cs.RecentTopics)
	return out
}

// Memory returns a copy of the conversation memory.
func (s *State) Memory() Memory {
	return cloneMemory(s.memory)
}

func (s *State) Themes() []string    { return slices.Clone(s.memory.Themes) }
func (s *State) Interests() []string { return slices.Clone(s.memory.Interests) }

func cloneMemory(m Memory) Memory {
	m.Entries = slices.Clone(m.Entries)
	m.Themes = slices.Clone(m.Themes)
	m.Interests = slices.Clone(m.Interests)
	return m
}
