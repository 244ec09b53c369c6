package session

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// Snapshot is the serializable form of a session. Callers treat it as
// opaque and hand it back to Restore.
type Snapshot struct {
	Landmark   world.LandmarkID                     `json:"landmark"`
	Counter    int                                  `json:"counter"`
	Companions map[world.CompanionID]CompanionState `json:"companions"`
	Memory     Memory                               `json:"memory"`
}

// Snapshot captures the current session.
func (s *State) Snapshot() Snapshot {
	comps := make(map[world.CompanionID]CompanionState, len(s.comps))
	for id := range s.comps {
		comps[id] = s.Companion(id)
	}
	return Snapshot{
		Landmark:   s.landmark,
		Counter:    s.counter,
		Companions: comps,
		Memory:     cloneMemory(s.memory),
	}
}

// Restore replaces the session with snap after checking it against the
// world configuration. Companions missing from snap start fresh; memory
// beyond the configured capacity keeps only the newest entries.
func (s *State) Restore(snap Snapshot) error {
	if err := s.check(snap); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	s.Reset()
	s.landmark = snap.Landmark
	s.counter = snap.Counter
	for id, cs := range snap.Companions {
		if cs.Mood.Mood == "" {
			cs.Mood = s.moods.Initial()
		}
		s.comps[id] = &cs
	}

	mem := cloneMemory(snap.Memory)
	if over := len(mem.Entries) - s.world.Tuning.Memory.RecentMessages; over > 0 {
		mem.Entries = mem.Entries[over:]
	}
	if over := len(mem.Themes) - s.world.Tuning.Memory.Themes; over > 0 {
		mem.Themes = mem.Themes[over:]
	}
	if mem.Phase == "" {
		mem.Phase = PhaseIntroduction
	}
	if mem.DominantTone == "" {
		mem.DominantTone = dominantTone(mem.Entries)
	}
	fresh := newMemory()
	mem.Profile.Style = cmp.Or(mem.Profile.Style, fresh.Profile.Style)
	mem.Profile.Engagement = cmp.Or(mem.Profile.Engagement, fresh.Profile.Engagement)
	s.memory = mem
	return nil
}

func (s *State) check(snap Snapshot) error {
	var errs []error
	if !s.world.HasLandmark(snap.Landmark) {
		errs = append(errs, fmt.Errorf("landmark %q: %w", snap.Landmark, world.ErrUnknownLandmark))
	}
	if snap.Counter < 0 {
		errs = append(errs, fmt.Errorf("negative message counter %d", snap.Counter))
	}
	for id, cs := range snap.Companions {
		if !s.world.HasCompanion(id) {
			errs = append(errs, fmt.Errorf("companion %q: %w", id, world.ErrUnknownCompanion))
			continue
		}
		if cs.LastSpoke < 0 || cs.LastSpoke > snap.Counter {
			errs = append(errs, fmt.Errorf("companion %q last spoke at %d, counter is %d", id, cs.LastSpoke, snap.Counter))
		}
	}
	return errors.Join(errs...)
}
