package emotion

// MoodInstruction returns a short behavior guideline for the given mood.
func MoodInstruction(mood Mood) string {
	switch mood {
	case MoodConcerned:
		return "You are quietly concerned for the traveler; be gentle and steady."
	case MoodJoyful:
		return "You share the traveler's brightness; let warmth show."
	case MoodUplifted:
		return "This place lifts your spirit; let it color your words."
	default:
		return ""
	}
}
