package analysis

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

type fakeContext struct {
	themes    []string
	interests []string
}

func (f fakeContext) Themes() []string    { return f.themes }
func (f fakeContext) Interests() []string { return f.interests }

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	w, err := world.Default()
	if err != nil {
		t.Fatalf("failed to load world: %v", err)
	}
	return NewAnalyzer(w)
}

func TestAnalyzePureGreeting(t *testing.T) {
	a := newTestAnalyzer(t)
	got := a.Analyze("Hi there!", nil)

	if !got.HasIntent(IntentGreeting) {
		t.Fatalf("expected greeting intent, got %v", got.Intents)
	}
	if !got.IsPureGreeting() {
		t.Fatalf("expected pure greeting, got %+v", got)
	}
	if !slices.Contains(got.Needs, "greeting") {
		t.Fatalf("expected greeting need, got %v", got.Needs)
	}
	if len(got.EdgeCases) != 0 {
		t.Fatalf("expected no edge cases, got %v", got.EdgeCases)
	}
}

func TestAnalyzeAnxiousMessage(t *testing.T) {
	a := newTestAnalyzer(t)
	got := a.Analyze("I feel really anxious and don't know what to do", nil)

	if got.Emotion.Tone != emotion.ToneAnxious {
		t.Fatalf("expected anxious tone, got %s", got.Emotion.Tone)
	}
	if got.Emotion.Intensity != 7 {
		t.Fatalf("expected intensity 7, got %d", got.Emotion.Intensity)
	}
	if !got.HasIntent(IntentEmotional) {
		t.Fatalf("expected emotional intent, got %v", got.Intents)
	}
	if !slices.Contains(got.ExpertiseNeeded, "emotional_intelligence") {
		t.Fatalf("expected emotional_intelligence expertise, got %v", got.ExpertiseNeeded)
	}
	if got.Crisis() {
		t.Fatalf("did not expect crisis flag")
	}
}

func TestAnalyzeCrisis(t *testing.T) {
	a := newTestAnalyzer(t)
	got := a.Analyze("I think I want to kill myself", nil)

	if !got.Crisis() {
		t.Fatalf("expected crisis flag, got %v", got.EdgeCases)
	}
	if got.IsPureGreeting() {
		t.Fatalf("crisis must never read as a pure greeting")
	}
}

func TestDetectCrisisIndependent(t *testing.T) {
	cases := map[string]bool{
		"SELF-HARM":                      true,
		"sometimes I want to end it all": true,
		"thoughts of suicide":            true,
		"I killed it at the recital":     false,
		"":                               false,
	}
	for text, want := range cases {
		if got := DetectCrisis(text); got != want {
			t.Fatalf("DetectCrisis(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := fakeContext{themes: []string{"philosophy"}, interests: []string{"nature"}}
	text := "Kael, what is the meaning of existence? I wonder about the forest and the water."

	first := a.Analyze(text, ctx)
	second := a.Analyze(text, ctx)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("analysis not deterministic (-first +second):\n%s", diff)
	}
	if !first.Mentions("kael") {
		t.Fatalf("expected kael mention, got %v", first.MentionedCompanions)
	}
	if !slices.Contains(first.ContextualCues, CueContinuesTheme) || !slices.Contains(first.ContextualCues, CueReturningInterest) {
		t.Fatalf("expected both contextual cues, got %v", first.ContextualCues)
	}
}

func TestAnalyzeDegenerateInput(t *testing.T) {
	a := newTestAnalyzer(t)

	empty := a.Analyze("", nil)
	if !empty.HasEdgeCase(EdgeMinimalInput) {
		t.Fatalf("expected minimal input flag, got %v", empty.EdgeCases)
	}
	if empty.HasEdgeCase(EdgeSymbolsOnly) {
		t.Fatalf("empty input is not symbols only")
	}
	if empty.Style != StyleNeutral || empty.Urgency != UrgencyNormal || empty.Complexity != ComplexitySimple {
		t.Fatalf("expected neutral defaults, got %+v", empty)
	}

	symbols := a.Analyze("!!!!!!", nil)
	for _, flag := range []EdgeCase{EdgeSymbolsOnly, EdgeRepetitiveCharacters} {
		if !symbols.HasEdgeCase(flag) {
			t.Fatalf("expected %s, got %v", flag, symbols.EdgeCases)
		}
	}
	if symbols.HasEdgeCase(EdgeAllCaps) {
		t.Fatalf("symbols without letters are not shouting")
	}

	shout := a.Analyze("WHERE IS EVERYONE", nil)
	if !shout.HasEdgeCase(EdgeAllCaps) {
		t.Fatalf("expected all caps flag, got %v", shout.EdgeCases)
	}
}

func TestAnalyzeMatchesWholeWords(t *testing.T) {
	a := newTestAnalyzer(t)
	got := a.Analyze("I know the way", nil)

	if got.HasIntent(IntentDisagreement) {
		t.Fatalf("'no' must not match inside 'know': %v", got.Intents)
	}
}

func TestAnalyzeLandmarkMentions(t *testing.T) {
	a := newTestAnalyzer(t)
	got := a.Analyze("Let's walk down to mirror lake", nil)

	if !slices.Contains(got.MentionedLandmarks, world.LandmarkID("mirror_lake")) {
		t.Fatalf("expected mirror_lake mention, got %v", got.MentionedLandmarks)
	}
}

func TestAnalyzeContradictoryIntents(t *testing.T) {
	a := newTestAnalyzer(t)
	got := a.Analyze("hello and goodbye", nil)

	if !got.HasEdgeCase(EdgeContradictoryIntents) {
		t.Fatalf("expected contradictory intents, got %v", got.EdgeCases)
	}
	if got.IsPureGreeting() {
		t.Fatalf("greeting with farewell is not a pure greeting")
	}
}
