// Package scoring rates how relevant each companion is to a player message.
package scoring

import (
	"cmp"
	"math"
	"slices"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

const (
	mentionBonus       = 15
	keywordBonus       = 2
	topicBonus         = 3
	primaryBonus       = 5
	secondaryBonus     = 3
	intentBonus        = 4
	needBonus          = 3
	greetingBonus      = 3
	quietGreetingBonus = 2
	preferredBonus     = 3
	engagedBonus       = 2
	crisisBonus        = 100
	edgeCaseFloor      = 3

	landmarkScale  = 3
	quietTurns     = 5
	silentTurns    = 10
	engagedReplies = 5
)

// Score returns the relevance of c to the message described by a. It is a
// pure function of its arguments and never negative.
func Score(c *world.Companion, a analysis.Analysis, st session.Reader, w *world.World) int {
	cs := st.Companion(c.ID)
	mem := st.Memory()
	since, spoken := TurnsSince(cs, st.Counter())
	score := 0

	if a.Mentions(c.ID) {
		score += mentionBonus
	}
	score += keywordBonus * len(a.Keywords[c.ID])

	for _, intent := range a.Intents {
		if slices.Contains(c.Affinities.Intents, string(intent)) {
			score += intentBonus
		}
	}

	if a.HasIntent(analysis.IntentGreeting) {
		score += greetingBonus
		if !spoken || since > quietTurns {
			score += quietGreetingBonus
		}
	}
	if a.HasIntent(analysis.IntentFarewell) {
		if cs.Engagement > engagedReplies {
			score += 5
		} else {
			score += 2
		}
	}

	score += emotionalAffinity(c.Role, a.Emotion)

	for _, topic := range a.Topics {
		if slices.Contains(c.Triggers.Topics, string(topic)) {
			score += topicBonus
		}
	}
	for _, tag := range a.ExpertiseNeeded {
		switch {
		case c.IsPrimary(tag):
			score += primaryBonus
		case c.IsSecondary(tag):
			score += secondaryBonus
		}
	}

	score += c.Affinities.Complexity[string(a.Complexity)]
	if a.Urgency == analysis.UrgencyUrgent || a.Urgency == analysis.UrgencyHigh {
		score += c.Affinities.Urgency
	}
	for _, need := range a.Needs {
		if slices.Contains(c.Affinities.Needs, need) {
			score += needBonus
		}
	}
	score += c.Affinities.Phases[string(mem.Phase)]
	score += c.Affinities.Styles[string(a.Style)]
	if mem.Profile.PreferredCompanion == c.ID {
		score += preferredBonus
	}

	for _, flag := range a.EdgeCases {
		score += c.Affinities.EdgeCases[string(flag)]
	}
	if a.Crisis() {
		if support, ok := w.ByRole(world.RoleSupport); ok && support.ID == c.ID {
			score += crisisBonus
		}
	}

	score += int(math.Floor(c.Affinity(st.Landmark()) * landmarkScale))

	switch {
	case !spoken:
		if st.Counter() > silentTurns {
			score++
		}
	case since < 2:
		score -= 3
	case since < 4:
		score--
	case since > silentTurns:
		score++
	}

	if cs.Engagement > engagedReplies {
		score += engagedBonus
	}

	if len(a.EdgeCases) > 0 && score < edgeCaseFloor {
		score = edgeCaseFloor
	}
	return max(score, 0)
}

func emotionalAffinity(role world.Role, r emotion.Reading) int {
	switch role {
	case world.RoleSupport:
		switch r.Tone {
		case emotion.ToneNegative, emotion.ToneAnxious:
			return 5 + r.Intensity/2
		case emotion.ToneConfused:
			return 4
		case emotion.TonePositive:
			return 2
		}
	case world.RolePhilosopher:
		switch {
		case r.Tone == emotion.ToneConfused || r.Tone == emotion.ToneCurious:
			return 4
		case r.Intensity > 7:
			return 2
		}
	case world.RoleGuide:
		switch {
		case r.Tone == emotion.ToneCurious || r.Tone == emotion.ToneConfused:
			return 3
		case r.Intensity < emotion.BaselineIntensity:
			return 2
		}
	}
	return 0
}

// TurnsSince returns how many turns ago the companion last spoke, and
// false when it never has.
func TurnsSince(cs session.CompanionState, counter int) (int, bool) {
	if cs.LastSpoke == 0 {
		return 0, false
	}
	return counter - cs.LastSpoke, true
}

// Scored is a companion with its relevance score.
type Scored struct {
	ID        world.CompanionID
	Score     int
	Mentioned bool
}

// Rank scores every configured companion and orders them in tiers: the
// support companion during a crisis, then companions the player addressed,
// then everyone else. Within a tier higher scores come first and equal
// scores keep configured companion order.
func Rank(a analysis.Analysis, st session.Reader, w *world.World) []Scored {
	out := make([]Scored, 0, len(w.Companions))
	for i := range w.Companions {
		c := &w.Companions[i]
		out = append(out, Scored{ID: c.ID, Score: Score(c, a, st, w), Mentioned: a.Mentions(c.ID)})
	}

	var support world.CompanionID
	if a.Crisis() {
		if c, ok := w.ByRole(world.RoleSupport); ok {
			support = c.ID
		}
	}
	tier := func(s Scored) int {
		switch {
		case s.ID == support:
			return 2
		case s.Mentioned:
			return 1
		default:
			return 0
		}
	}

	slices.SortFunc(out, func(x, y Scored) int {
		return cmp.Or(
			cmp.Compare(tier(y), tier(x)),
			cmp.Compare(y.Score, x.Score),
			cmp.Compare(w.Order(x.ID), w.Order(y.ID)),
		)
	})
	return out
}
