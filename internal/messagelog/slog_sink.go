package messagelog

import (
	"context"
	"log/slog"

	"github.com/easeaico/crystal-sanctuary/internal/types"
)

// SlogSink writes entries to a slog.Logger. It is used when no database is
// configured.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Append(ctx context.Context, entries []types.LogEntry) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, e := range entries {
		attrs := []any{
			"journey", e.JourneyID,
			"type", e.Type,
			"sender", e.Sender,
			"landmark", e.Landmark,
		}
		if e.Type == types.LogDecision {
			attrs = append(attrs, "responders", e.Responders, "discussion", e.Discussion, "crisis", e.Crisis)
		} else {
			attrs = append(attrs, "content", e.Content)
		}
		if e.TokensUsed > 0 {
			attrs = append(attrs, "tokens", e.TokensUsed)
		}
		logger.DebugContext(ctx, "message log", attrs...)
	}
	return nil
}
