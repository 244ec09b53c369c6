package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/crystal-sanctuary/internal/analysis"
	"github.com/easeaico/crystal-sanctuary/internal/dialogue"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/types"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

// JourneyStore persists journeys. Load and Latest return nil, nil when
// nothing matches.
type JourneyStore interface {
	Save(ctx context.Context, j types.Journey) error
	Load(ctx context.Context, id string) (*types.Journey, error)
	Latest(ctx context.Context, userID string) (*types.Journey, error)
	Deactivate(ctx context.Context, id string) error
}

// MessageLogger receives audit entries. Log must not block.
type MessageLogger interface {
	Log(entry types.LogEntry)
}

// Options configures an Engine.
type Options struct {
	UserID string
	// Journeys is optional; without it journeys live in memory only.
	Journeys JourneyStore
	// Logger is optional.
	Logger MessageLogger
	// Rand drives the discussion draws. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Reply is one companion line of a turn.
type Reply struct {
	Companion  world.CompanionID
	Name       string
	Text       string
	TokensUsed int
	// Fallback is set when generation failed and the static line was used.
	Fallback bool
	// With is the discussion partner; empty for primary replies.
	With world.CompanionID
}

// TurnResult is the outcome of one player message.
type TurnResult struct {
	Analysis   analysis.Analysis
	Landmark   world.LandmarkID
	Moved      bool
	Responders []world.CompanionID
	Replies    []Reply
	Discussed  bool
	TokensUsed int
}

// Engine runs the turns of one journey. Turns never overlap.
type Engine struct {
	world    *world.World
	analyzer *analysis.Analyzer
	gateway  dialogue.Gateway
	state    *session.State
	journeys JourneyStore
	logger   MessageLogger
	rnd      *rand.Rand
	lock     *turnLock

	userID    string
	journeyID string
	tokens    atomic.Int64
}

// NewEngine returns an engine on a fresh journey.
func NewEngine(w *world.World, gw dialogue.Gateway, opts Options) *Engine {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	return &Engine{
		world:     w,
		analyzer:  analysis.NewAnalyzer(w),
		gateway:   gw,
		state:     session.New(w),
		journeys:  opts.Journeys,
		logger:    opts.Logger,
		rnd:       rnd,
		lock:      newTurnLock(),
		userID:    opts.UserID,
		journeyID: uuid.NewString(),
	}
}

// JourneyID returns the id of the current journey.
func (e *Engine) JourneyID() string {
	return e.journeyID
}

// Resume restores the user's latest active journey. It reports false when
// there is none to resume.
func (e *Engine) Resume(ctx context.Context) (bool, error) {
	if e.journeys == nil {
		return false, nil
	}
	if err := e.lock.Acquire(ctx); err != nil {
		return false, err
	}
	defer e.lock.Release()

	j, err := e.journeys.Latest(ctx, e.userID)
	if err != nil {
		return false, fmt.Errorf("failed to load latest journey: %w", err)
	}
	if j == nil {
		return false, nil
	}
	if err := e.state.Restore(j.Snapshot); err != nil {
		return false, err
	}
	e.journeyID = j.ID
	e.tokens.Store(int64(j.TokenCount))
	slog.Info("journey resumed", "journey", j.ID, "landmark", j.Landmark(), "turn", j.Snapshot.Counter)
	return true, nil
}

// NewJourney closes the current journey and starts over at the starting
// landmark.
func (e *Engine) NewJourney(ctx context.Context) error {
	if err := e.lock.Acquire(ctx); err != nil {
		return err
	}
	defer e.lock.Release()

	if e.journeys != nil {
		if err := e.journeys.Deactivate(ctx, e.journeyID); err != nil {
			slog.Error("failed to deactivate journey", "journey", e.journeyID, "error", err.Error())
		}
	}
	e.state.Reset()
	e.journeyID = uuid.NewString()
	e.tokens.Store(0)
	e.save(ctx)
	return nil
}

// MoveTo takes the party to another landmark.
func (e *Engine) MoveTo(ctx context.Context, id world.LandmarkID) error {
	if err := e.lock.Acquire(ctx); err != nil {
		return err
	}
	defer e.lock.Release()

	if err := e.state.MoveTo(id); err != nil {
		return err
	}
	slog.Info("party moved", "journey", e.journeyID, "landmark", id)
	e.save(ctx)
	return nil
}

// Snapshot returns the current session state.
func (e *Engine) Snapshot(ctx context.Context) (session.Snapshot, error) {
	if err := e.lock.Acquire(ctx); err != nil {
		return session.Snapshot{}, err
	}
	defer e.lock.Release()
	return e.state.Snapshot(), nil
}

// TokenCount returns the tokens spent on the current journey.
// It is safe to call while a turn is running.
func (e *Engine) TokenCount() int {
	return int(e.tokens.Load())
}

// HandleMessage runs one player turn: analysis, responder selection,
// primary replies in rank order and an optional discussion.
func (e *Engine) HandleMessage(ctx context.Context, text string) (TurnResult, error) {
	if err := e.lock.Acquire(ctx); err != nil {
		return TurnResult{}, err
	}
	defer e.lock.Release()

	e.state.BeginTurn()
	a := e.analyzer.Analyze(text, e.state)
	e.state.Fold(a)
	e.log(types.LogEntry{Type: types.LogPlayer, Sender: session.PlayerSender, Content: text})

	res := TurnResult{Analysis: a}
	moved, err := e.followMentions(a)
	if err != nil {
		return res, err
	}
	res.Moved = moved

	responders, err := DetermineResponders(a, e.state, e.world)
	if err != nil {
		return res, err
	}
	res.Responders = responders

	for _, id := range responders {
		reply, err := e.reply(ctx, id, text)
		if err != nil {
			return res, err
		}
		res.Replies = append(res.Replies, reply)
	}

	if ShouldDiscuss(a, responders, e.state, e.world, e.rnd) {
		replies, err := e.discuss(ctx, PlanDiscussion(a, responders, e.world, e.rnd))
		if err != nil {
			return res, err
		}
		res.Discussed = len(replies) > 0
		res.Replies = append(res.Replies, replies...)
	}

	res.Landmark = e.state.Landmark()
	for _, r := range res.Replies {
		res.TokensUsed += r.TokensUsed
	}
	e.tokens.Add(int64(res.TokensUsed))

	slog.Info("turn complete",
		"journey", e.journeyID,
		"turn", e.state.Counter(),
		"responders", responders,
		"discussion", res.Discussed,
		"crisis", a.Crisis(),
	)
	e.log(types.LogEntry{
		Type:       types.LogDecision,
		Sender:     "coordinator",
		Responders: responders,
		Discussion: res.Discussed,
		Crisis:     a.Crisis(),
		TokensUsed: res.TokensUsed,
	})
	e.save(ctx)
	return res, nil
}

func (e *Engine) followMentions(a analysis.Analysis) (bool, error) {
	if len(a.MentionedLandmarks) == 0 || slices.Contains(a.MentionedLandmarks, e.state.Landmark()) {
		return false, nil
	}
	to := a.MentionedLandmarks[0]
	if err := e.state.MoveTo(to); err != nil {
		return false, err
	}
	slog.Info("party moved", "journey", e.journeyID, "landmark", to)
	return true, nil
}

// reply generates a primary reply, degrading to the companion's fallback
// line when generation fails.
func (e *Engine) reply(ctx context.Context, id world.CompanionID, message string) (Reply, error) {
	out, err := e.speak(ctx, id, dialogue.PromptContext{Message: message})
	if err != nil {
		return Reply{}, err
	}
	e.log(types.LogEntry{Type: types.LogCompanion, Sender: string(id), Content: out.Text, TokensUsed: out.TokensUsed})
	return out, nil
}

// discuss runs the exchange. A failed turn is replaced by the speaker's
// fallback line and the exchange goes on.
func (e *Engine) discuss(ctx context.Context, x Exchange) ([]Reply, error) {
	turns := [][2]world.CompanionID{{x.Opener, x.Partner}}
	if x.ReplyBack {
		turns = append(turns, [2]world.CompanionID{x.Partner, x.Opener})
	}

	var out []Reply
	replyTo := ""
	for _, turn := range turns {
		speaker, partner := turn[0], turn[1]
		r, err := e.speak(ctx, speaker, dialogue.PromptContext{
			Discussion: &dialogue.DiscussionContext{
				Partner: partner,
				Style:   x.Pattern,
				Topic:   x.Topic,
				ReplyTo: replyTo,
			},
		})
		if err != nil {
			return out, err
		}
		r.With = partner
		e.log(types.LogEntry{Type: types.LogDiscussion, Sender: string(speaker), Content: r.Text, TokensUsed: r.TokensUsed})
		out = append(out, r)
		replyTo = r.Text
	}
	return out, nil
}

// speak generates one line for id and records it in memory. Generation
// failures become the fallback line; lookup errors are returned.
func (e *Engine) speak(ctx context.Context, id world.CompanionID, pc dialogue.PromptContext) (Reply, error) {
	c, err := e.world.Companion(id)
	if err != nil {
		return Reply{}, err
	}
	out := Reply{Companion: id, Name: c.Name}

	u, err := e.generate(ctx, id, pc)
	switch {
	case err == nil:
		out.Text, out.TokensUsed = u.Text, u.TokensUsed
	case isLookupError(err):
		return Reply{}, err
	default:
		slog.Error("failed to generate reply", "companion", id, "discussion", pc.Discussion != nil, "error", err.Error())
		landmark, lerr := e.world.Landmark(e.state.Landmark())
		if lerr != nil {
			return Reply{}, lerr
		}
		if out.Text, err = e.world.Fallback(id, landmark); err != nil {
			return Reply{}, err
		}
		out.Fallback = true
	}

	e.state.Record(session.Entry{Sender: string(id), Content: out.Text})
	return out, nil
}

// generate fills in the session side of the prompt context and calls the
// gateway.
func (e *Engine) generate(ctx context.Context, id world.CompanionID, pc dialogue.PromptContext) (dialogue.Utterance, error) {
	mem := e.state.Memory()
	pc.Landmark = e.state.Landmark()
	pc.Mood = e.state.Companion(id).Mood.Mood
	pc.Atmosphere = e.world.Atmosphere(string(mem.DominantTone))
	pc.History = mem.Entries
	return e.gateway.Generate(ctx, id, pc)
}

func (e *Engine) log(entry types.LogEntry) {
	if e.logger == nil {
		return
	}
	entry.Timestamp = time.Now()
	entry.UserID = e.userID
	entry.JourneyID = e.journeyID
	entry.Landmark = e.state.Landmark()
	e.logger.Log(entry)
}

// save persists the journey. Failures are logged only; the conversation
// goes on from memory.
func (e *Engine) save(ctx context.Context) {
	if e.journeys == nil {
		return
	}
	j := types.Journey{
		ID:         e.journeyID,
		UserID:     e.userID,
		Snapshot:   e.state.Snapshot(),
		TokenCount: e.TokenCount(),
		Active:     true,
		LastSaved:  time.Now(),
	}
	if err := e.journeys.Save(context.WithoutCancel(ctx), j); err != nil {
		slog.Error("failed to save journey", "journey", e.journeyID, "error", err.Error())
	}
}

func isLookupError(err error) bool {
	return errors.Is(err, world.ErrUnknownCompanion) || errors.Is(err, world.ErrUnknownLandmark)
}
