// Package coordinator decides who answers a player message, whether the
// companions discuss among themselves, and runs a whole turn.
package coordinator

import (
	"fmt"
	"slices"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/scoring"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// Tracker is the session view needed to pick responders and record that
// they spoke.
type Tracker interface {
	session.Reader
	MarkSpoke(id world.CompanionID, topics []string) error
}

// AdjustThresholds lowers the configured response thresholds for pressing,
// complex and early messages.
func AdjustThresholds(a analysis.Analysis, base world.Thresholds, phase session.Phase) world.Thresholds {
	t := base
	if a.Urgency == analysis.UrgencyHigh || a.Urgency == analysis.UrgencyUrgent || a.Emotion.Intensity > 7 {
		t.Must -= 2
		t.Should -= 2
		t.May--
	}
	if a.Complexity == analysis.ComplexityComplex {
		t.Must--
		t.Should--
	}
	if a.IsQuestion {
		t.May--
	}
	if phase == session.PhaseIntroduction {
		t.May -= 2
	}
	return t
}

// MaxResponders returns how many companions may answer a.
func MaxResponders(a analysis.Analysis, w *world.World) int {
	limit := 2
	switch {
	case a.Complexity == analysis.ComplexityComplex || a.Philosophical():
		limit = 3
	case focused(a.Emotion), a.Emotion.Intensity > 7:
		limit = 1
	}
	if w.Tuning.MaxCompanions > 0 {
		limit = min(limit, w.Tuning.MaxCompanions)
	}
	return limit
}

// SelectResponders returns the ordered responders for a without touching
// the session. The result is never empty when companions are configured.
func SelectResponders(a analysis.Analysis, st session.Reader, w *world.World) []world.CompanionID {
	if len(w.Companions) == 0 {
		return nil
	}
	if a.IsPureGreeting() {
		return []world.CompanionID{leastRecent(st, w)}
	}

	ranked := scoring.Rank(a, st, w)
	t := AdjustThresholds(a, w.Tuning.Thresholds, st.Memory().Phase)

	var out []world.CompanionID
	for _, s := range ranked {
		switch {
		case s.Mentioned, s.Score >= t.Must:
			out = append(out, s.ID)
		case s.Score >= t.Should && len(out) < 2:
			out = append(out, s.ID)
		case s.Score >= t.May && len(out) == 0:
			out = append(out, s.ID)
		}
	}

	if len(out) == 0 && a.HasIntent(analysis.IntentGreeting) {
		out = append(out, leastRecent(st, w))
	}
	if len(out) == 0 {
		out = append(out, ranked[0].ID)
	}

	if a.Crisis() {
		if support, ok := w.ByRole(world.RoleSupport); ok {
			out = slices.DeleteFunc(out, func(id world.CompanionID) bool { return id == support.ID })
			out = slices.Insert(out, 0, support.ID)
		}
	}

	if limit := MaxResponders(a, w); len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DetermineResponders selects the responders for a and marks each of them
// as having spoken on the current turn.
func DetermineResponders(a analysis.Analysis, st Tracker, w *world.World) ([]world.CompanionID, error) {
	responders := SelectResponders(a, st, w)
	topics := a.TopicNames()
	for _, id := range responders {
		if err := st.MarkSpoke(id, topics); err != nil {
			return nil, fmt.Errorf("failed to record responder: %w", err)
		}
	}
	return responders, nil
}

// leastRecent returns the companion who spoke longest ago. Companions who
// never spoke come first; ties keep configured order.
func leastRecent(st session.Reader, w *world.World) world.CompanionID {
	best := w.Companions[0].ID
	bestTurn := st.Companion(best).LastSpoke
	for _, c := range w.Companions[1:] {
		if turn := st.Companion(c.ID).LastSpoke; turn < bestTurn {
			best, bestTurn = c.ID, turn
		}
	}
	return best
}

// focused reports whether the reading calls for a single voice.
func focused(r emotion.Reading) bool {
	return r.Distressed() && r.Intensity >= 7
}
