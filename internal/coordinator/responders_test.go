package coordinator

import (
	"slices"
	"testing"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

func loadWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.Default()
	if err != nil {
		t.Fatalf("failed to load world: %v", err)
	}
	return w
}

// turn runs the session side of one player message and returns who answers.
func turn(t *testing.T, w *world.World, st *session.State, text string) (analysis.Analysis, []world.CompanionID) {
	t.Helper()
	st.BeginTurn()
	a := analysis.NewAnalyzer(w).Analyze(text, st)
	st.Fold(a)
	got, err := DetermineResponders(a, st, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a, got
}

func TestPureGreetingRotatesThroughCompanions(t *testing.T) {
	w := loadWorld(t)
	st := session.New(w)

	var order []world.CompanionID
	for range 3 {
		_, got := turn(t, w, st, "Hi there!")
		if len(got) != 1 {
			t.Fatalf("expected exactly one responder to a greeting, got %v", got)
		}
		order = append(order, got[0])
	}

	want := []world.CompanionID{"elara", "bramble", "kael"}
	if !slices.Equal(order, want) {
		t.Fatalf("expected round robin %v, got %v", want, order)
	}
}

func TestAnxiousMessageFocusesOnSupport(t *testing.T) {
	w := loadWorld(t)
	_, got := turn(t, w, session.New(w), "I feel really anxious and don't know what to do")

	if !slices.Equal(got, []world.CompanionID{"bramble"}) {
		t.Fatalf("expected bramble alone, got %v", got)
	}
}

func TestCrisisPutsSupportFirst(t *testing.T) {
	w := loadWorld(t)
	a, got := turn(t, w, session.New(w), "I think I want to kill myself")

	if !a.Crisis() {
		t.Fatalf("expected crisis flag, got %v", a.EdgeCases)
	}
	if len(got) == 0 || got[0] != "bramble" {
		t.Fatalf("expected bramble first, got %v", got)
	}
}

func TestMentionedCompanionAnswersFirst(t *testing.T) {
	w := loadWorld(t)
	_, got := turn(t, w, session.New(w), "Kael, what do you think?")

	if len(got) == 0 || got[0] != "kael" {
		t.Fatalf("expected kael first, got %v", got)
	}
}

func TestDistressedGreetingIsNotRoundRobin(t *testing.T) {
	w := loadWorld(t)
	for _, msg := range []string{
		"Hello, I'm so scared and worried right now",
		"Hi, I feel terrible and miserable today",
	} {
		a, got := turn(t, w, session.New(w), msg)
		if a.IsPureGreeting() {
			t.Fatalf("expected %q to carry more than a greeting", msg)
		}
		if len(got) == 0 || got[0] != "bramble" {
			t.Fatalf("expected bramble first for %q, got %v", msg, got)
		}
	}
}

func TestMentionSurvivesEmotionalCap(t *testing.T) {
	w := loadWorld(t)
	a, got := turn(t, w, session.New(w), "Kael, I feel terrible and sad, I need help")

	if MaxResponders(a, w) != 1 {
		t.Fatalf("expected a single voice for an intense message, got cap %d", MaxResponders(a, w))
	}
	if !slices.Equal(got, []world.CompanionID{"kael"}) {
		t.Fatalf("expected the addressed kael, got %v", got)
	}
}

func TestCrisisOverridesMention(t *testing.T) {
	w := loadWorld(t)
	_, got := turn(t, w, session.New(w), "Kael, I want to kill myself")

	if len(got) == 0 || got[0] != "bramble" {
		t.Fatalf("expected bramble first, got %v", got)
	}
}

func TestRespondersAreNeverEmptyAndRespectTheCap(t *testing.T) {
	w := loadWorld(t)
	st := session.New(w)
	messages := []string{
		"",
		"?!?!",
		"ok",
		"AAAAAAAAAAAA",
		"Hello and goodbye",
		"What is the meaning of life and why do we exist at all?",
		"I feel so sad and lonely today",
		"Tell me about the Wisdom Library",
		"func main() { fmt.Println(42) }",
		"Elara, Bramble and Kael, what do you all think about consciousness?",
	}
	for _, msg := range messages {
		a, got := turn(t, w, st, msg)
		if len(got) == 0 {
			t.Fatalf("expected at least one responder for %q", msg)
		}
		if limit := MaxResponders(a, w); len(got) > limit {
			t.Fatalf("expected at most %d responders for %q, got %v", limit, msg, got)
		}
	}
}

func TestDetermineRespondersMarksSpoke(t *testing.T) {
	w := loadWorld(t)
	st := session.New(w)
	_, got := turn(t, w, st, "Kael, what do you think?")

	for _, id := range got {
		cs := st.Companion(id)
		if cs.LastSpoke != st.Counter() {
			t.Fatalf("expected %s to have spoken on turn %d, got %d", id, st.Counter(), cs.LastSpoke)
		}
		if cs.Engagement != 1 {
			t.Fatalf("expected engagement 1 for %s, got %d", id, cs.Engagement)
		}
	}
	for _, id := range w.CompanionIDs() {
		if !slices.Contains(got, id) && st.Companion(id).LastSpoke != 0 {
			t.Fatalf("expected %s to stay silent", id)
		}
	}
}

func TestAdjustThresholds(t *testing.T) {
	base := world.Thresholds{Must: 6, Should: 4, May: 2}
	calm := emotion.Reading{Tone: emotion.ToneNeutral, Intensity: emotion.BaselineIntensity}

	tests := []struct {
		name  string
		a     analysis.Analysis
		phase session.Phase
		want  world.Thresholds
	}{
		{"plain", analysis.Analysis{Emotion: calm}, session.PhaseExploration, base},
		{"urgent", analysis.Analysis{Emotion: calm, Urgency: analysis.UrgencyUrgent}, session.PhaseExploration, world.Thresholds{Must: 4, Should: 2, May: 1}},
		{"intense", analysis.Analysis{Emotion: emotion.Reading{Intensity: 8}}, session.PhaseExploration, world.Thresholds{Must: 4, Should: 2, May: 1}},
		{"complex", analysis.Analysis{Emotion: calm, Complexity: analysis.ComplexityComplex}, session.PhaseExploration, world.Thresholds{Must: 5, Should: 3, May: 2}},
		{"question", analysis.Analysis{Emotion: calm, IsQuestion: true}, session.PhaseExploration, world.Thresholds{Must: 6, Should: 4, May: 1}},
		{"introduction", analysis.Analysis{Emotion: calm}, session.PhaseIntroduction, world.Thresholds{Must: 6, Should: 4, May: 0}},
	}
	for _, tt := range tests {
		if got := AdjustThresholds(tt.a, base, tt.phase); got != tt.want {
			t.Fatalf("%s: expected %+v, got %+v", tt.name, tt.want, got)
		}
	}
}

func TestMaxResponders(t *testing.T) {
	w := loadWorld(t)
	calm := emotion.Reading{Tone: emotion.ToneNeutral, Intensity: emotion.BaselineIntensity}

	tests := []struct {
		name string
		a    analysis.Analysis
		want int
	}{
		{"normal", analysis.Analysis{Emotion: calm}, 2},
		{"complex", analysis.Analysis{Emotion: calm, Complexity: analysis.ComplexityComplex}, 3},
		{"philosophy", analysis.Analysis{Emotion: calm, Topics: []analysis.Topic{analysis.TopicPhilosophy}}, 3},
		{"distressed", analysis.Analysis{Emotion: emotion.Reading{Tone: emotion.ToneAnxious, Intensity: 7}}, 1},
		{"overwhelming", analysis.Analysis{Emotion: emotion.Reading{Tone: emotion.TonePositive, Intensity: 9}}, 1},
		{"mildly sad", analysis.Analysis{Emotion: emotion.Reading{Tone: emotion.ToneNegative, Intensity: 6}}, 2},
	}
	for _, tt := range tests {
		if got := MaxResponders(tt.a, w); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}
