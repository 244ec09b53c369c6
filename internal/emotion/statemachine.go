package emotion

// StateMachine updates companion moods from player tone and location.
type StateMachine struct{}

const (
	minMoodTurns      = 2
	distressThreshold = 2
	positiveThreshold = 2
	upliftingAffinity = 0.7
	deflatingAffinity = 0.3
)

// NewStateMachine returns a StateMachine.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// Initial returns the mood a companion starts a journey with.
func (s *StateMachine) Initial() MoodState {
	return MoodState{Mood: MoodNeutral}
}

// Update returns the mood after the player spoke with the given tone.
// A mood only flips after the same tone repeats for a few turns.
func (s *StateMachine) Update(state MoodState, tone Tone) MoodState {
	if state.Mood == "" {
		state.Mood = MoodNeutral
	}

	streak := 1
	if state.LastTone == tone {
		streak = state.MoodTurns + 1
	}

	desired := deriveMood(tone, state.Mood)
	switch {
	case tone == ToneNegative || tone == ToneAnxious:
		if desired != state.Mood && streak >= distressThreshold && streak >= minMoodTurns {
			state.Mood = desired
		}
	case tone == TonePositive:
		if desired != state.Mood && streak >= positiveThreshold && streak >= minMoodTurns {
			state.Mood = desired
		}
	default:
		// Keep current mood for neutral signals to stabilize.
	}

	state.LastTone = tone
	state.MoodTurns = streak
	return state
}

// OnLandmark returns the mood after arriving somewhere the companion has
// the given affinity for.
func (s *StateMachine) OnLandmark(state MoodState, affinity float64) MoodState {
	switch {
	case affinity > upliftingAffinity:
		state.Mood = MoodUplifted
	case affinity < deflatingAffinity:
		state.Mood = MoodNeutral
	}
	return state
}

func deriveMood(tone Tone, current Mood) Mood {
	switch tone {
	case ToneNegative, ToneAnxious:
		return MoodConcerned
	case TonePositive:
		return MoodJoyful
	default:
		if current != "" {
			return current
		}
		return MoodNeutral
	}
}
