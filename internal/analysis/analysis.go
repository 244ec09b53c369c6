// Package analysis turns raw player text into a structured analysis.
package analysis

import (
	"slices"

	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// Intent is a detected purpose of a message. A message may carry several.
type Intent string

const (
	IntentGreeting      Intent = "greeting"
	IntentFarewell      Intent = "farewell"
	IntentInformational Intent = "informational"
	IntentNavigational  Intent = "navigational"
	IntentEmotional     Intent = "emotional"
	IntentHelp          Intent = "help"
	IntentPhilosophical Intent = "philosophical"
	IntentCasual        Intent = "casual"
	IntentFeedback      Intent = "feedback"
	IntentTechnical     Intent = "technical"
	IntentStory         Intent = "story"
	IntentPreference    Intent = "preference"
	IntentAgreement     Intent = "agreement"
	IntentDisagreement  Intent = "disagreement"
	IntentClarification Intent = "clarification"
)

// Topic is a conversation topic.
type Topic string

const (
	TopicEmotionalSupport Topic = "emotional_support"
	TopicExploration      Topic = "exploration"
	TopicPhilosophy       Topic = "philosophy"
	TopicCreativity       Topic = "creativity"
	TopicMemories         Topic = "memories"
	TopicRelationships    Topic = "relationships"
	TopicPersonalGrowth   Topic = "personal_growth"
	TopicProblemSolving   Topic = "problem_solving"
	TopicMeditation       Topic = "meditation"
	TopicNature           Topic = "nature"
)

// Complexity classifies how involved a message is.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Urgency classifies how pressing a message is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// Style is the player's conversational register.
type Style string

const (
	StyleNeutral   Style = "neutral"
	StyleFormal    Style = "formal"
	StyleCasual    Style = "casual"
	StyleTechnical Style = "technical"
	StyleEmotional Style = "emotional"
)

// EdgeCase flags an anomalous input property.
type EdgeCase string

const (
	EdgeMinimalInput         EdgeCase = "minimal_input"
	EdgeSymbolsOnly          EdgeCase = "symbols_only"
	EdgeRepetitiveCharacters EdgeCase = "repetitive_characters"
	EdgeAllCaps              EdgeCase = "all_caps"
	EdgeNonASCII             EdgeCase = "non_ascii_characters"
	EdgeContradictoryIntents EdgeCase = "contradictory_intents"
	EdgePotentialSarcasm     EdgeCase = "potential_sarcasm"
	EdgeCodeSyntax           EdgeCase = "code_syntax"
	EdgeCrisis               EdgeCase = "crisis_situation"
)

// Contextual cues derived from the session.
const (
	CueContinuesTheme    = "continues_theme"
	CueReturningInterest = "returning_interest"
)

// Analysis is the per-message result of the Analyzer.
type Analysis struct {
	Text                string                         `json:"text"`
	WordCount           int                            `json:"word_count"`
	Intents             []Intent                       `json:"intents,omitempty"`
	Topics              []Topic                        `json:"topics,omitempty"`
	MentionedCompanions []world.CompanionID            `json:"mentioned_companions,omitempty"`
	MentionedLandmarks  []world.LandmarkID             `json:"mentioned_landmarks,omitempty"`
	Keywords            map[world.CompanionID][]string `json:"keywords,omitempty"`
	Emotion             emotion.Reading                `json:"emotion"`
	IsQuestion          bool                           `json:"is_question"`
	Needs               []string                       `json:"needs,omitempty"`
	ExpertiseNeeded     []string                       `json:"expertise_needed,omitempty"`
	Style               Style                          `json:"style"`
	Urgency             Urgency                        `json:"urgency"`
	Complexity          Complexity                     `json:"complexity"`
	EdgeCases           []EdgeCase                     `json:"edge_cases,omitempty"`
	ContextualCues      []string                       `json:"contextual_cues,omitempty"`
}

// HasIntent reports whether intent was detected.
func (a Analysis) HasIntent(intent Intent) bool {
	return slices.Contains(a.Intents, intent)
}

// HasTopic reports whether topic was detected.
func (a Analysis) HasTopic(topic Topic) bool {
	return slices.Contains(a.Topics, topic)
}

// HasEdgeCase reports whether flag was raised.
func (a Analysis) HasEdgeCase(flag EdgeCase) bool {
	return slices.Contains(a.EdgeCases, flag)
}

// Crisis reports whether crisis-risk language was detected.
func (a Analysis) Crisis() bool {
	return a.HasEdgeCase(EdgeCrisis)
}

// Mentions reports whether the companion was mentioned.
func (a Analysis) Mentions(id world.CompanionID) bool {
	return slices.Contains(a.MentionedCompanions, id)
}

// TopicNames returns the topics as plain strings.
func (a Analysis) TopicNames() []string {
	out := make([]string, 0, len(a.Topics))
	for _, t := range a.Topics {
		out = append(out, string(t))
	}
	return out
}

// IsPureGreeting reports a greeting that carries nothing else: no other
// intent, mention, topic or edge case, a calm tone and normal urgency.
func (a Analysis) IsPureGreeting() bool {
	if len(a.Intents) != 1 || a.Intents[0] != IntentGreeting {
		return false
	}
	if len(a.MentionedCompanions) > 0 || len(a.Topics) > 0 || len(a.EdgeCases) > 0 {
		return false
	}
	if a.Emotion.Distressed() || (a.Emotion.Tone != emotion.ToneNeutral && a.Emotion.Tone != emotion.TonePositive) {
		return false
	}
	return a.Urgency == UrgencyNormal || a.Urgency == UrgencyLow
}

// Philosophical reports whether the message leans philosophical.
func (a Analysis) Philosophical() bool {
	return a.HasTopic(TopicPhilosophy) || a.HasIntent(IntentPhilosophical)
}
