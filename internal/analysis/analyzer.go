package analysis

import (
	"slices"
	"strings"
	"unicode"

	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/utils"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// Context is the read-only session view the analyzer consults.
type Context interface {
	Themes() []string
	Interests() []string
}

// Analyzer classifies player messages against the world configuration.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	world   *world.World
	emotion *emotion.Analyzer
}

// NewAnalyzer returns an Analyzer for w.
func NewAnalyzer(w *world.World) *Analyzer {
	return &Analyzer{
		world:   w,
		emotion: emotion.NewAnalyzer(),
	}
}

// Analyze returns the structured analysis of text. It never fails; input
// that matches nothing yields empty sets and neutral defaults. ctx may be nil.
func (a *Analyzer) Analyze(text string, ctx Context) Analysis {
	t := utils.NewText(text)
	out := Analysis{
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		Style:      StyleNeutral,
		Urgency:    UrgencyNormal,
		Complexity: ComplexitySimple,
	}

	for _, p := range intentPatterns {
		if t.Any(p.keywords) || p.pattern.MatchString(t.Lower()) {
			out.Intents = append(out.Intents, p.intent)
		}
	}
	out.IsQuestion = strings.Contains(text, "?") || questionStart.MatchString(text)
	out.Emotion = a.emotion.Analyze(t)

	a.detectMentions(t, &out)

	for _, tk := range topicKeywords {
		if t.Any(tk.keywords) {
			out.Topics = append(out.Topics, tk.topic)
		}
	}

	out.Complexity = complexity(text, out)
	out.Urgency = urgency(t, out.Emotion.Intensity)
	out.Style = style(text, t)
	out.Needs = tags(t, needKeywords)
	if out.HasIntent(IntentGreeting) {
		out.Needs = append(out.Needs, "greeting")
	}
	out.ExpertiseNeeded = tags(t, expertiseKeywords)
	out.EdgeCases = edgeCases(text, t, out)

	if ctx != nil {
		out.ContextualCues = cues(out.Topics, ctx)
	}
	return out
}

func (a *Analyzer) detectMentions(t utils.Text, out *Analysis) {
	for _, c := range a.world.Companions {
		keywords := t.Matched(c.Triggers.Keywords)
		if len(keywords) > 0 {
			if out.Keywords == nil {
				out.Keywords = make(map[world.CompanionID][]string)
			}
			out.Keywords[c.ID] = keywords
		}
		if t.Has(string(c.ID)) || t.Has(c.Name) || len(keywords) > 0 {
			out.MentionedCompanions = append(out.MentionedCompanions, c.ID)
		}
	}
	for _, l := range a.world.Landmarks {
		if t.Has(l.Name) || t.Has(strings.TrimPrefix(strings.ToLower(l.Name), "the ")) || t.Any(l.Themes) {
			out.MentionedLandmarks = append(out.MentionedLandmarks, l.ID)
		}
	}
}

func complexity(text string, a Analysis) Complexity {
	score := 0
	switch {
	case a.WordCount > 20:
		score += 2
	case a.WordCount > 10:
		score++
	}
	switch q := strings.Count(text, "?"); {
	case q > 1:
		score += 2
	case q == 1:
		score++
	}
	switch n := len(a.Topics); {
	case n > 2:
		score += 2
	case n > 1:
		score++
	}
	switch n := len(a.Intents); {
	case n > 2:
		score += 2
	case n > 1:
		score++
	}
	if clauseMarker.MatchString(text) {
		score++
	}

	switch {
	case score >= 6:
		return ComplexityComplex
	case score >= 3:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

func urgency(t utils.Text, intensity int) Urgency {
	switch {
	case t.Any(urgentKeywords):
		return UrgencyUrgent
	case t.Any(highKeywords):
		return UrgencyHigh
	case t.Any(lowKeywords):
		return UrgencyLow
	case intensity >= 8:
		return UrgencyHigh
	default:
		return UrgencyNormal
	}
}

func style(raw string, t utils.Text) Style {
	scores := make([]int, len(styleKeywords))
	for i, sk := range styleKeywords {
		scores[i] = len(t.Matched(sk.keywords))
	}
	trimmed := strings.TrimSpace(raw)
	if first, _ := firstRune(trimmed); unicode.IsUpper(first) && strings.HasSuffix(trimmed, ".") {
		scores[0]++
	}

	best, bestScore := StyleNeutral, 0
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = styleKeywords[i].style, s
		}
	}
	return best
}

func tags(t utils.Text, table []tagKeywords) []string {
	var out []string
	for _, tk := range table {
		if t.Any(tk.keywords) {
			out = append(out, tk.tag)
		}
	}
	return out
}

func cues(topics []Topic, ctx Context) []string {
	var out []string
	themes, interests := ctx.Themes(), ctx.Interests()
	for _, topic := range topics {
		if slices.Contains(themes, string(topic)) && !slices.Contains(out, CueContinuesTheme) {
			out = append(out, CueContinuesTheme)
		}
		if slices.Contains(interests, string(topic)) && !slices.Contains(out, CueReturningInterest) {
			out = append(out, CueReturningInterest)
		}
	}
	return out
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}
