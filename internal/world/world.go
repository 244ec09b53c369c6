// Package world holds the immutable domain configuration of the sanctuary:
// companions, landmarks, relationship dynamics and tuning constants.
package world

import (
	"errors"
	"fmt"
	"slices"
	"text/template"
)

var (
	// ErrUnknownCompanion is returned when a companion id is not configured.
	ErrUnknownCompanion = errors.New("unknown companion")
	// ErrUnknownLandmark is returned when a landmark id is not configured.
	ErrUnknownLandmark = errors.New("unknown landmark")
)

// CompanionID identifies a companion, e.g. "elara".
type CompanionID string

// LandmarkID identifies a landmark, e.g. "sanctuary_heart".
type LandmarkID string

// Role is the part a companion plays when scoring emotional messages.
type Role string

const (
	RoleGuide       Role = "guide"
	RoleSupport     Role = "support"
	RolePhilosopher Role = "philosopher"
)

// Personality describes how a companion talks.
type Personality struct {
	Core          string   `json:"core" yaml:"core"`
	Traits        []string `json:"traits" yaml:"traits"`
	Communication string   `json:"communication" yaml:"communication"`
	Approach      string   `json:"approach" yaml:"approach"`
}

// Expertise lists the domain tags a companion is strong in.
type Expertise struct {
	Primary   []string `json:"primary" yaml:"primary"`
	Secondary []string `json:"secondary" yaml:"secondary"`
	Knowledge []string `json:"knowledge,omitempty" yaml:"knowledge"`
}

// Triggers are the words and topics that draw a companion into a conversation.
type Triggers struct {
	Keywords       []string `json:"keywords" yaml:"keywords"`
	Topics         []string `json:"topics" yaml:"topics"`
	ExpertiseMatch []string `json:"expertise_match,omitempty" yaml:"expertise_match"`
}

// Affinities are the per-companion scoring preferences.
type Affinities struct {
	Intents    []string       `json:"intents,omitempty" yaml:"intents"`
	Needs      []string       `json:"needs,omitempty" yaml:"needs"`
	Phases     map[string]int `json:"phases,omitempty" yaml:"phases"`
	Styles     map[string]int `json:"styles,omitempty" yaml:"styles"`
	Complexity map[string]int `json:"complexity,omitempty" yaml:"complexity"`
	Urgency    int            `json:"urgency,omitempty" yaml:"urgency"`
	EdgeCases  map[string]int `json:"edge_cases,omitempty" yaml:"edge_cases"`
}

// Companion is one AI character.
type Companion struct {
	ID               CompanionID            `json:"id" yaml:"id"`
	Name             string                 `json:"name" yaml:"name"`
	Title            string                 `json:"title" yaml:"title"`
	Color            string                 `json:"color" yaml:"color"`
	Role             Role                   `json:"role" yaml:"role"`
	Personality      Personality            `json:"personality" yaml:"personality"`
	Expertise        Expertise              `json:"expertise" yaml:"expertise"`
	Triggers         Triggers               `json:"triggers" yaml:"triggers"`
	LandmarkAffinity map[LandmarkID]float64 `json:"landmark_affinity" yaml:"landmark_affinity"`
	Affinities       Affinities             `json:"affinities,omitempty" yaml:"affinities"`
	Fallback         string                 `json:"fallback" yaml:"fallback"`
}

// Affinity returns the companion's affinity for a landmark, 0 when unset.
func (c *Companion) Affinity(id LandmarkID) float64 {
	return c.LandmarkAffinity[id]
}

// IsPrimary reports whether tag is one of the companion's primary expertise tags.
func (c *Companion) IsPrimary(tag string) bool {
	return slices.Contains(c.Expertise.Primary, tag)
}

// IsSecondary reports whether tag is one of the companion's secondary expertise tags.
func (c *Companion) IsSecondary(tag string) bool {
	return slices.Contains(c.Expertise.Secondary, tag)
}

// Landmark is a named location in the sanctuary.
type Landmark struct {
	ID          LandmarkID `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Features    []string   `json:"features" yaml:"features"`
	Themes      []string   `json:"themes" yaml:"themes"`
	Activities  []string   `json:"activities" yaml:"activities"`
}

// RelationshipDynamic describes how a pair of companions talk to each other.
type RelationshipDynamic struct {
	Pair               []CompanionID `json:"pair" yaml:"pair"`
	Relationship       string        `json:"relationship" yaml:"relationship"`
	InteractionStyle   string        `json:"interaction_style" yaml:"interaction_style"`
	CommonGround       []string      `json:"common_ground" yaml:"common_ground"`
	DiscussionTriggers []string      `json:"discussion_triggers" yaml:"discussion_triggers"`
}

// Thresholds are the base relevance cut-offs before context adjustment.
type Thresholds struct {
	Must   int `json:"must" yaml:"must"`
	Should int `json:"should" yaml:"should"`
	May    int `json:"may" yaml:"may"`
}

// MemoryTuning bounds the conversation memory.
type MemoryTuning struct {
	RecentMessages int `json:"recent_messages" yaml:"recent_messages"`
	ContextWindow  int `json:"context_window" yaml:"context_window"`
	Themes         int `json:"themes" yaml:"themes"`
}

// WordLimits bound generated utterances.
type WordLimits struct {
	Max        int `json:"max" yaml:"max"`
	Ideal      int `json:"ideal" yaml:"ideal"`
	Min        int `json:"min" yaml:"min"`
	Discussion int `json:"discussion" yaml:"discussion"`
}

// DiscussionPattern is one weighted discussion style.
type DiscussionPattern struct {
	Style       string  `json:"style" yaml:"style"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Instruction string  `json:"instruction" yaml:"instruction"`
}

// DiscussionTuning controls simulated discussions between companions.
type DiscussionTuning struct {
	BaseProbability      float64             `json:"base_probability" yaml:"base_probability"`
	FactorIncrement      float64             `json:"factor_increment" yaml:"factor_increment"`
	MaxProbability       float64             `json:"max_probability" yaml:"max_probability"`
	ReplyBackProbability float64             `json:"reply_back_probability" yaml:"reply_back_probability"`
	Patterns             []DiscussionPattern `json:"patterns" yaml:"patterns"`
}

// Tuning groups the response-shaping constants.
type Tuning struct {
	Thresholds    Thresholds       `json:"thresholds" yaml:"thresholds"`
	Memory        MemoryTuning     `json:"memory" yaml:"memory"`
	Words         WordLimits       `json:"words" yaml:"words"`
	Discussion    DiscussionTuning `json:"discussion" yaml:"discussion"`
	MaxCompanions int              `json:"max_companions" yaml:"max_companions"`
}

// World is the loaded, indexed configuration. It is read-only after Parse.
type World struct {
	Name          string                `json:"name" yaml:"name"`
	Description   string                `json:"description" yaml:"description"`
	StartLandmark LandmarkID            `json:"start_landmark" yaml:"start_landmark"`
	Companions    []Companion           `json:"companions" yaml:"companions"`
	Landmarks     []Landmark            `json:"landmarks" yaml:"landmarks"`
	Relationships []RelationshipDynamic `json:"relationships" yaml:"relationships"`
	Atmospheres   map[string]string     `json:"atmospheres" yaml:"atmospheres"`
	Tuning        Tuning                `json:"tuning" yaml:"tuning"`

	companions    map[CompanionID]*Companion
	landmarks     map[LandmarkID]*Landmark
	relationships map[pairKey]*RelationshipDynamic
	fallbacks     map[CompanionID]*template.Template
}

type pairKey struct {
	a, b CompanionID
}

func (w *World) index() {
	w.companions = make(map[CompanionID]*Companion, len(w.Companions))
	for i := range w.Companions {
		w.companions[w.Companions[i].ID] = &w.Companions[i]
	}
	w.landmarks = make(map[LandmarkID]*Landmark, len(w.Landmarks))
	for i := range w.Landmarks {
		w.landmarks[w.Landmarks[i].ID] = &w.Landmarks[i]
	}
	w.relationships = make(map[pairKey]*RelationshipDynamic, len(w.Relationships))
	for i := range w.Relationships {
		rel := &w.Relationships[i]
		if len(rel.Pair) == 2 {
			w.relationships[pairKey{rel.Pair[0], rel.Pair[1]}] = rel
		}
	}
}

// Companion returns the companion with the given id.
func (w *World) Companion(id CompanionID) (*Companion, error) {
	c, ok := w.companions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompanion, id)
	}
	return c, nil
}

// Landmark returns the landmark with the given id.
func (w *World) Landmark(id LandmarkID) (*Landmark, error) {
	l, ok := w.landmarks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLandmark, id)
	}
	return l, nil
}

// HasLandmark reports whether id is a configured landmark.
func (w *World) HasLandmark(id LandmarkID) bool {
	_, ok := w.landmarks[id]
	return ok
}

// HasCompanion reports whether id is a configured companion.
func (w *World) HasCompanion(id CompanionID) bool {
	_, ok := w.companions[id]
	return ok
}

// Relationship looks up the dynamic between two companions in either order.
func (w *World) Relationship(a, b CompanionID) (*RelationshipDynamic, bool) {
	if rel, ok := w.relationships[pairKey{a, b}]; ok {
		return rel, true
	}
	if rel, ok := w.relationships[pairKey{b, a}]; ok {
		return rel, true
	}
	return nil, false
}

// CompanionIDs returns companion ids in configured order.
func (w *World) CompanionIDs() []CompanionID {
	ids := make([]CompanionID, 0, len(w.Companions))
	for _, c := range w.Companions {
		ids = append(ids, c.ID)
	}
	return ids
}

// LandmarkIDs returns landmark ids in configured order.
func (w *World) LandmarkIDs() []LandmarkID {
	ids := make([]LandmarkID, 0, len(w.Landmarks))
	for _, l := range w.Landmarks {
		ids = append(ids, l.ID)
	}
	return ids
}

// Order returns the configured position of a companion, used to break ties.
func (w *World) Order(id CompanionID) int {
	for i, c := range w.Companions {
		if c.ID == id {
			return i
		}
	}
	return len(w.Companions)
}

// ByRole returns the first companion that plays role.
func (w *World) ByRole(role Role) (*Companion, bool) {
	for i := range w.Companions {
		if w.Companions[i].Role == role {
			return &w.Companions[i], true
		}
	}
	return nil, false
}

// Atmosphere returns the ambient line for a dominant tone.
func (w *World) Atmosphere(tone string) string {
	if line, ok := w.Atmospheres[tone]; ok {
		return line
	}
	return w.Atmospheres["neutral"]
}
