package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"golang.org/x/time/rate"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/crystal-sanctuary/internal/prompt"
	"github.com/easeaico/crystal-sanctuary/internal/utils"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

const (
	defaultMaxOutputTokens = 80
	defaultTemperature     = 0.8
	defaultBackoff         = time.Second
)

// Options tunes an LLMGateway. Zero values take the defaults.
type Options struct {
	// MinCallDelay is the minimum spacing between backend calls.
	MinCallDelay time.Duration
	// MaxRetries bounds retries of transient failures.
	MaxRetries int
	// Backoff is the first retry delay; it doubles on each retry.
	Backoff         time.Duration
	MaxOutputTokens int32
	Temperature     float32
}

// LLMGateway generates utterances through an adk model.LLM.
type LLMGateway struct {
	llm     model.LLM
	world   *world.World
	builder *prompt.Builder
	limiter *rate.Limiter
	opts    Options
}

// NewLLMGateway returns a gateway over llm.
func NewLLMGateway(llm model.LLM, w *world.World, opts Options) *LLMGateway {
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = defaultMaxOutputTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}

	limit := rate.Inf
	if opts.MinCallDelay > 0 {
		limit = rate.Every(opts.MinCallDelay)
	}

	return &LLMGateway{
		llm:     llm,
		world:   w,
		builder: prompt.NewBuilder(w, w.Tuning.Memory.ContextWindow),
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
	}
}

// Generate produces one utterance for id. Unknown companion, landmark or
// partner ids are returned as lookup errors; backend failures as *Error.
func (g *LLMGateway) Generate(ctx context.Context, id world.CompanionID, pc PromptContext) (Utterance, error) {
	bc, err := g.resolve(id, pc)
	if err != nil {
		return Utterance{}, err
	}
	contents, err := g.builder.Build(bc)
	if err != nil {
		return Utterance{}, &Error{Companion: id, Err: err}
	}

	resp, err := g.callWithRetry(ctx, id, contents)
	if err != nil {
		return Utterance{}, err
	}

	raw := utils.ExtractContentText(resp.Content)
	text, err := utils.CleanReply(raw, bc.Companion.Name)
	if err != nil {
		return Utterance{}, &Error{Companion: id, Err: err}
	}
	text = utils.TruncateWords(text, g.world.Tuning.Words.Max)

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if tokens == 0 {
		tokens = estimateRequestTokens(contents) + countTokens(text)
	}
	return Utterance{Text: text, TokensUsed: tokens}, nil
}

func (g *LLMGateway) resolve(id world.CompanionID, pc PromptContext) (prompt.BuildContext, error) {
	c, err := g.world.Companion(id)
	if err != nil {
		return prompt.BuildContext{}, err
	}
	bc := prompt.BuildContext{
		Companion:  c,
		Mood:       pc.Mood,
		Atmosphere: pc.Atmosphere,
		History:    pc.History,
		Message:    pc.Message,
	}
	if pc.Landmark != "" {
		if bc.Landmark, err = g.world.Landmark(pc.Landmark); err != nil {
			return prompt.BuildContext{}, err
		}
	}
	if d := pc.Discussion; d != nil {
		partner, err := g.world.Companion(d.Partner)
		if err != nil {
			return prompt.BuildContext{}, err
		}
		dynamic, _ := g.world.Relationship(id, d.Partner)
		bc.Discussion = &prompt.Discussion{
			Partner: partner,
			Dynamic: dynamic,
			Style:   d.Style,
			Topic:   d.Topic,
			ReplyTo: d.ReplyTo,
		}
	}
	return bc, nil
}

func (g *LLMGateway) callWithRetry(ctx context.Context, id world.CompanionID, contents []*genai.Content) (*model.LLMResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := g.opts.Backoff << (attempt - 1)
			slog.Warn("generation rate limited, retrying", "companion", id, "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := g.call(ctx, g.request(contents))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !IsTransient(err) {
			return nil, &Error{Companion: id, Err: err}
		}
	}
	return nil, &Error{
		Companion: id,
		Transient: true,
		Err:       fmt.Errorf("failed after %d retries: %w", g.opts.MaxRetries, lastErr),
	}
}

func (g *LLMGateway) request(contents []*genai.Content) *model.LLMRequest {
	temperature := g.opts.Temperature
	req := &model.LLMRequest{
		Config: &genai.GenerateContentConfig{
			MaxOutputTokens: g.opts.MaxOutputTokens,
			Temperature:     &temperature,
		},
	}
	for _, c := range contents {
		if c.Role == "system" {
			req.Config.SystemInstruction = c
			continue
		}
		req.Contents = append(req.Contents, c)
	}
	return req
}

func (g *LLMGateway) call(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	for resp, err := range g.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return nil, err
		}
		if resp != nil && resp.Content != nil {
			return resp, nil
		}
	}
	return nil, errors.New("empty model response")
}

// IsTransient reports whether err is a rate limit worth retrying.
func IsTransient(err error) bool {
	if errors.Is(err, ErrTransient) {
		return true
	}
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode == 429
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == 429
	}
	return false
}
