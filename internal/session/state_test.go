package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

func newTestState(t *testing.T) (*State, *world.World) {
	t.Helper()
	w, err := world.Default()
	if err != nil {
		t.Fatalf("failed to load world: %v", err)
	}
	s := New(w)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s, w
}

func TestNewStartsAtConfiguredLandmark(t *testing.T) {
	s, w := newTestState(t)

	if s.Landmark() != w.StartLandmark {
		t.Fatalf("expected %s, got %s", w.StartLandmark, s.Landmark())
	}
	if s.Counter() != 0 {
		t.Fatalf("expected counter 0, got %d", s.Counter())
	}
	for _, id := range w.CompanionIDs() {
		cs := s.Companion(id)
		if cs.LastSpoke != 0 || cs.Mood.Mood != emotion.MoodNeutral {
			t.Fatalf("expected fresh state for %s, got %+v", id, cs)
		}
	}
	if s.Memory().Phase != PhaseIntroduction {
		t.Fatalf("expected introduction phase, got %s", s.Memory().Phase)
	}
}

func TestBeginTurnIncrementsByOne(t *testing.T) {
	s, _ := newTestState(t)
	for want := 1; want <= 3; want++ {
		if got := s.BeginTurn(); got != want {
			t.Fatalf("expected counter %d, got %d", want, got)
		}
	}
}

func TestMemoryIsBoundedFIFO(t *testing.T) {
	s, w := newTestState(t)
	capacity := w.Tuning.Memory.RecentMessages

	for i := range capacity + 5 {
		s.Record(Entry{Sender: "elara", Content: fmt.Sprintf("line %d", i)})
	}

	entries := s.Memory().Entries
	if len(entries) != capacity {
		t.Fatalf("expected %d entries, got %d", capacity, len(entries))
	}
	if entries[0].Content != "line 5" {
		t.Fatalf("expected oldest entries dropped, first is %q", entries[0].Content)
	}
	if got := s.Memory().Window(2); len(got) != 2 || got[1].Content != fmt.Sprintf("line %d", capacity+4) {
		t.Fatalf("unexpected window: %+v", got)
	}
}

func TestFoldTracksThemesAndInterests(t *testing.T) {
	s, w := newTestState(t)
	topics := []analysis.Topic{
		analysis.TopicNature, analysis.TopicMemories, analysis.TopicCreativity,
		analysis.TopicMeditation, analysis.TopicPhilosophy, analysis.TopicExploration,
	}

	for _, topic := range topics {
		s.BeginTurn()
		s.Fold(analysis.Analysis{Text: string(topic), Topics: []analysis.Topic{topic}, Emotion: emotion.Reading{Tone: emotion.ToneNeutral}})
	}

	themes := s.Themes()
	if len(themes) != w.Tuning.Memory.Themes {
		t.Fatalf("expected %d themes, got %v", w.Tuning.Memory.Themes, themes)
	}
	if themes[0] != string(analysis.TopicMemories) {
		t.Fatalf("expected oldest theme dropped, got %v", themes)
	}
	if len(s.Interests()) != len(topics) {
		t.Fatalf("expected every topic as an interest, got %v", s.Interests())
	}
}

func TestFoldPhaseTransitions(t *testing.T) {
	s, _ := newTestState(t)
	fold := func(a analysis.Analysis) Phase {
		s.BeginTurn()
		s.Fold(a)
		return s.Memory().Phase
	}

	if got := fold(analysis.Analysis{Text: "hello", Intents: []analysis.Intent{analysis.IntentGreeting}}); got != PhaseIntroduction {
		t.Fatalf("expected introduction, got %s", got)
	}
	fold(analysis.Analysis{Text: "tell me more"})
	if got := fold(analysis.Analysis{Text: "what is truth", Topics: []analysis.Topic{analysis.TopicPhilosophy}}); got != PhaseDeepDiscussion {
		t.Fatalf("expected deep_discussion, got %s", got)
	}
	if got := fold(analysis.Analysis{Text: "ok"}); got != PhaseExploration {
		t.Fatalf("expected exploration, got %s", got)
	}
	if got := fold(analysis.Analysis{Text: "bye", Intents: []analysis.Intent{analysis.IntentFarewell}}); got != PhaseConclusion {
		t.Fatalf("expected conclusion, got %s", got)
	}
}

func TestFoldUpdatesProfileAndTone(t *testing.T) {
	s, _ := newTestState(t)
	anxious := analysis.Analysis{
		Text:                "bramble I am anxious",
		WordCount:           4,
		Style:               analysis.StyleEmotional,
		MentionedCompanions: []world.CompanionID{"bramble"},
		Emotion:             emotion.Reading{Tone: emotion.ToneAnxious, Intensity: 7},
	}
	s.BeginTurn()
	s.Fold(anxious)
	s.BeginTurn()
	s.Fold(anxious)

	mem := s.Memory()
	if mem.Profile.Style != analysis.StyleEmotional || mem.Profile.Engagement != EngagementLow || mem.Profile.PreferredCompanion != "bramble" {
		t.Fatalf("unexpected profile: %+v", mem.Profile)
	}
	if mem.DominantTone != emotion.ToneAnxious {
		t.Fatalf("expected anxious dominant tone, got %s", mem.DominantTone)
	}
	if got := s.Companion("bramble").Mood.Mood; got != emotion.MoodConcerned {
		t.Fatalf("expected concerned mood after repeated anxiety, got %s", got)
	}
}

func TestMarkSpoke(t *testing.T) {
	s, _ := newTestState(t)
	s.BeginTurn()
	s.BeginTurn()

	if err := s.MarkSpoke("kael", []string{"philosophy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cs := s.Companion("kael")
	if cs.LastSpoke != 2 || cs.Engagement != 1 || cs.RecentTopics[0] != "philosophy" {
		t.Fatalf("unexpected state: %+v", cs)
	}
	if err := s.MarkSpoke("nobody", nil); !errors.Is(err, world.ErrUnknownCompanion) {
		t.Fatalf("expected ErrUnknownCompanion, got %v", err)
	}
}

func TestMoveToUpdatesMoods(t *testing.T) {
	s, _ := newTestState(t)

	if err := s.MoveTo("wisdom_library"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Landmark() != "wisdom_library" {
		t.Fatalf("expected wisdom_library, got %s", s.Landmark())
	}
	if got := s.Companion("kael").Mood.Mood; got != emotion.MoodUplifted {
		t.Fatalf("expected kael uplifted, got %s", got)
	}
	if got := s.Companion("bramble").Mood.Mood; got != emotion.MoodNeutral {
		t.Fatalf("expected bramble neutral, got %s", got)
	}
	if err := s.MoveTo("atlantis"); !errors.Is(err, world.ErrUnknownLandmark) {
		t.Fatalf("expected ErrUnknownLandmark, got %v", err)
	}
	if s.Landmark() != "wisdom_library" {
		t.Fatalf("failed move must keep the landmark, got %s", s.Landmark())
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s, w := newTestState(t)
	s.BeginTurn()
	s.Fold(analysis.Analysis{Text: "hello", Intents: []analysis.Intent{analysis.IntentGreeting}, Emotion: emotion.Reading{Tone: emotion.ToneNeutral}})
	if err := s.MarkSpoke("elara", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Record(Entry{Sender: "elara", Content: "Welcome, traveler."})
	if err := s.MoveTo("mirror_lake"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := s.Snapshot()

	restored := New(w)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(snap, restored.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreRejectsInvalidSnapshot(t *testing.T) {
	s, _ := newTestState(t)
	snap := s.Snapshot()
	snap.Landmark = "atlantis"
	snap.Companions["kael"] = CompanionState{LastSpoke: 4}

	err := s.Restore(snap)
	if !errors.Is(err, world.ErrUnknownLandmark) {
		t.Fatalf("expected ErrUnknownLandmark, got %v", err)
	}
	if s.Landmark() == "atlantis" {
		t.Fatalf("rejected snapshot must not be applied")
	}
}
