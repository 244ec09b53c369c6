package world

import (
	"bytes"
	"fmt"
	"strings"
)

// Fallback renders the static line a companion says when generation fails.
// landmark may be nil.
func (w *World) Fallback(id CompanionID, landmark *Landmark) (string, error) {
	tmpl, ok := w.fallbacks[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCompanion, id)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Landmark *Landmark }{Landmark: landmark}); err != nil {
		return "", fmt.Errorf("failed to render fallback for %q: %w", id, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
