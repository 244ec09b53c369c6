package world

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed world.yaml
var defaultConfig []byte

var worldSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	schema, err := jsonschema.For[World](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to infer world schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve world schema: %w", err)
	}
	return resolved, nil
})

// Default loads the embedded sanctuary configuration.
func Default() (*World, error) {
	return Parse(defaultConfig)
}

// LoadFile loads a world configuration from a YAML file.
func LoadFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, schema-checks and indexes a YAML world configuration.
// A missing required field or a dangling id fails here rather than at
// first use.
func Parse(data []byte) (*World, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse world config: %w", err)
	}
	instance, err := jsonValue(raw)
	if err != nil {
		return nil, err
	}
	resolved, err := worldSchema()
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid world config: %w", err)
	}

	var w World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode world config: %w", err)
	}
	w.index()
	if err := w.validate(); err != nil {
		return nil, fmt.Errorf("invalid world config: %w", err)
	}
	if err := w.compileFallbacks(); err != nil {
		return nil, err
	}
	return &w, nil
}

// jsonValue turns a YAML document into the map/slice/float64 shape the
// schema validator expects.
func jsonValue(raw any) (any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert world config: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to convert world config: %w", err)
	}
	return out, nil
}

func (w *World) validate() error {
	var errs []error

	if len(w.Companions) == 0 {
		errs = append(errs, errors.New("no companions configured"))
	}
	if len(w.Companions) != len(w.companions) {
		errs = append(errs, errors.New("duplicate companion id"))
	}
	if len(w.Landmarks) != len(w.landmarks) {
		errs = append(errs, errors.New("duplicate landmark id"))
	}
	if !w.HasLandmark(w.StartLandmark) {
		errs = append(errs, fmt.Errorf("start landmark: %w: %q", ErrUnknownLandmark, w.StartLandmark))
	}

	for _, c := range w.Companions {
		if c.ID == "" {
			errs = append(errs, errors.New("companion without id"))
		}
		switch c.Role {
		case RoleGuide, RoleSupport, RolePhilosopher:
		default:
			errs = append(errs, fmt.Errorf("companion %q: unknown role %q", c.ID, c.Role))
		}
		if len(c.Expertise.Primary) == 0 {
			errs = append(errs, fmt.Errorf("companion %q: no primary expertise", c.ID))
		}
		for id, weight := range c.LandmarkAffinity {
			if !w.HasLandmark(id) {
				errs = append(errs, fmt.Errorf("companion %q affinity: %w: %q", c.ID, ErrUnknownLandmark, id))
			}
			if weight < 0 || weight > 1 {
				errs = append(errs, fmt.Errorf("companion %q affinity for %q out of range: %v", c.ID, id, weight))
			}
		}
	}
	if _, ok := w.ByRole(RoleSupport); !ok {
		errs = append(errs, errors.New("no companion with the support role"))
	}

	for _, l := range w.Landmarks {
		if len(l.Features) == 0 {
			errs = append(errs, fmt.Errorf("landmark %q: no features", l.ID))
		}
	}

	for _, rel := range w.Relationships {
		if len(rel.Pair) != 2 || rel.Pair[0] == rel.Pair[1] {
			errs = append(errs, fmt.Errorf("relationship %q: pair must name two companions", rel.Relationship))
			continue
		}
		for _, id := range rel.Pair {
			if !w.HasCompanion(id) {
				errs = append(errs, fmt.Errorf("relationship %q: %w: %q", rel.Relationship, ErrUnknownCompanion, id))
			}
		}
	}
	if len(w.Relationships) != len(w.relationships) {
		errs = append(errs, errors.New("duplicate relationship pair"))
	}

	t := w.Tuning
	if t.Thresholds.Must < t.Thresholds.Should || t.Thresholds.Should < t.Thresholds.May {
		errs = append(errs, errors.New("thresholds must satisfy must >= should >= may"))
	}
	if t.Memory.RecentMessages <= 0 || t.Memory.ContextWindow <= 0 || t.Memory.Themes <= 0 {
		errs = append(errs, errors.New("memory capacities must be positive"))
	}
	if t.Words.Max <= 0 || t.Words.Discussion <= 0 {
		errs = append(errs, errors.New("word limits must be positive"))
	}
	if t.MaxCompanions <= 0 {
		errs = append(errs, errors.New("max_companions must be positive"))
	}
	d := t.Discussion
	for name, p := range map[string]float64{
		"base_probability":       d.BaseProbability,
		"max_probability":        d.MaxProbability,
		"reply_back_probability": d.ReplyBackProbability,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("discussion %s out of range: %v", name, p))
		}
	}
	if d.BaseProbability > d.MaxProbability {
		errs = append(errs, errors.New("discussion base_probability exceeds max_probability"))
	}
	for _, p := range d.Patterns {
		if p.Weight <= 0 {
			errs = append(errs, fmt.Errorf("discussion pattern %q: weight must be positive", p.Style))
		}
	}

	return errors.Join(errs...)
}

func (w *World) compileFallbacks() error {
	compiled := make(map[CompanionID]*template.Template, len(w.Companions))
	for _, c := range w.Companions {
		tmpl, err := template.New(string(c.ID)).Option("missingkey=error").Parse(c.Fallback)
		if err != nil {
			return fmt.Errorf("failed to parse fallback for %q: %w", c.ID, err)
		}
		compiled[c.ID] = tmpl
	}
	w.fallbacks = compiled
	return nil
}
