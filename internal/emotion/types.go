package emotion

// Tone is the emotional tone detected in a player message.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneConfused Tone = "confused"
	ToneAnxious  Tone = "anxious"
	ToneCurious  Tone = "curious"
)

// BaselineIntensity is the intensity of a message with no emotional markers.
const BaselineIntensity = 5

// Reading is the result of tone detection.
type Reading struct {
	Tone      Tone    `json:"tone"`
	Intensity int     `json:"intensity"` // 0-10
	Sentiment float64 `json:"sentiment"` // -1..1
}

// Distressed reports whether the tone calls for emotional support.
func (r Reading) Distressed() bool {
	return r.Tone == ToneNegative || r.Tone == ToneAnxious
}

// Mood is a companion's current disposition.
type Mood string

const (
	MoodNeutral   Mood = "neutral"
	MoodUplifted  Mood = "uplifted"
	MoodConcerned Mood = "concerned"
	MoodJoyful    Mood = "joyful"
)

// MoodState is the per-companion mood with streak tracking.
type MoodState struct {
	Mood      Mood `json:"mood"`
	MoodTurns int  `json:"mood_turns"`
	LastTone  Tone `json:"last_tone,omitempty"`
}

// ClampIntensity bounds intensity to 0-10.
func ClampIntensity(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}

// ClampSentiment bounds sentiment to -1..1.
func ClampSentiment(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	default:
		return v
	}
}
