package coordinator

import (
	"math/rand/v2"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// Exchange is a planned discussion between the top two responders.
type Exchange struct {
	Opener    world.CompanionID
	Partner   world.CompanionID
	Topic     string
	Pattern   world.DiscussionPattern
	ReplyBack bool
}

// DiscussionProbability returns the chance that responders discuss a among
// themselves. It is 0 with fewer than two responders.
func DiscussionProbability(a analysis.Analysis, responders []world.CompanionID, st session.Reader, w *world.World) float64 {
	if len(responders) < 2 {
		return 0
	}
	factors := []bool{
		a.Complexity == analysis.ComplexityComplex,
		a.HasTopic(analysis.TopicPhilosophy),
		len(a.ExpertiseNeeded) > 1,
		a.Emotion.Intensity > 6 && len(a.Topics) > 1,
		conflictingPerspectives(a, responders, w),
		a.Emotion.Tone == emotion.ToneConfused || a.HasIntent(analysis.IntentClarification),
		st.Memory().Phase == session.PhaseDeepDiscussion,
	}

	d := w.Tuning.Discussion
	p := d.BaseProbability
	for _, f := range factors {
		if f {
			p += d.FactorIncrement
		}
	}
	return min(p, d.MaxProbability)
}

// ShouldDiscuss draws against DiscussionProbability.
func ShouldDiscuss(a analysis.Analysis, responders []world.CompanionID, st session.Reader, w *world.World, rnd *rand.Rand) bool {
	p := DiscussionProbability(a, responders, st, w)
	return p > 0 && rnd.Float64() < p
}

// PlanDiscussion picks the discussion style and whether the partner answers
// back. responders must hold at least two companions.
func PlanDiscussion(a analysis.Analysis, responders []world.CompanionID, w *world.World, rnd *rand.Rand) Exchange {
	topic := a.Text
	if len(a.Topics) > 0 {
		topic = string(a.Topics[0])
	}
	return Exchange{
		Opener:    responders[0],
		Partner:   responders[1],
		Topic:     topic,
		Pattern:   pickPattern(w.Tuning.Discussion.Patterns, rnd),
		ReplyBack: rnd.Float64() < w.Tuning.Discussion.ReplyBackProbability,
	}
}

func pickPattern(patterns []world.DiscussionPattern, rnd *rand.Rand) world.DiscussionPattern {
	total := 0.0
	for _, p := range patterns {
		total += p.Weight
	}
	if total <= 0 {
		return world.DiscussionPattern{}
	}
	r := rnd.Float64() * total
	for _, p := range patterns {
		if r < p.Weight {
			return p
		}
		r -= p.Weight
	}
	return patterns[len(patterns)-1]
}

// conflictingPerspectives reports a philosophical topic taken up by
// companions whose leading expertise differs.
func conflictingPerspectives(a analysis.Analysis, responders []world.CompanionID, w *world.World) bool {
	if !a.HasTopic(analysis.TopicPhilosophy) {
		return false
	}
	seen := make(map[string]bool, len(responders))
	for _, id := range responders {
		c, err := w.Companion(id)
		if err != nil || len(c.Expertise.Primary) == 0 {
			return false
		}
		lead := c.Expertise.Primary[0]
		if seen[lead] {
			return false
		}
		seen[lead] = true
	}
	return true
}
