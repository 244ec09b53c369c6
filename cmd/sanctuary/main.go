// Package main runs the Crystal Sanctuary chat in a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/easeaico/crystal-sanctuary/internal/config"
	"github.com/easeaico/crystal-sanctuary/internal/coordinator"
	"github.com/easeaico/crystal-sanctuary/internal/dialogue"
	"github.com/easeaico/crystal-sanctuary/internal/messagelog"
	"github.com/easeaico/crystal-sanctuary/internal/models"
	"github.com/easeaico/crystal-sanctuary/internal/storage"
	"github.com/easeaico/crystal-sanctuary/internal/types"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := loadWorld(cfg.WorldFile)
	if err != nil {
		log.Fatalf("failed to load world: %v", err)
	}

	llm, err := models.New(ctx, cfg.Provider, cfg.LLMModel, cfg.APIKey)
	if err != nil {
		log.Fatalf("failed to create model: %v", err)
	}
	gateway := dialogue.NewLLMGateway(llm, w, dialogue.Options{
		MinCallDelay: cfg.MinCallDelay,
		MaxRetries:   cfg.MaxRetries,
	})

	p, err := openPersistence(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open persistence: %v", err)
	}
	defer p.Close()

	msgLog := messagelog.New(p.sink, messagelog.Config{QueueSize: cfg.LogBuffer})
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := msgLog.Close(flushCtx); err != nil {
			slog.Error("failed to flush message log", "error", err.Error())
		}
	}()

	engine := coordinator.NewEngine(w, gateway, coordinator.Options{
		UserID:   cfg.UserID,
		Journeys: p.journeys,
		Logger:   msgLog,
	})

	resumed, err := engine.Resume(ctx)
	if err != nil {
		slog.Error("failed to resume journey", "error", err.Error())
	}
	greet(ctx, engine, w, resumed)
	if resumed && p.store != nil {
		lines, err := recap(ctx, p.store.Logs, engine.JourneyID(), w, recapLines)
		if err != nil {
			slog.Error("failed to recap journey", "error", err.Error())
		}
		for _, line := range lines {
			fmt.Println("  " + line)
		}
	}

	if err := chat(ctx, engine, w); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("chat ended", "error", err.Error())
	}
	fmt.Println("\nThe crystals dim. Until next time, traveler.")
}

const recapLines = 6

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelWarn
	}
	return level
}

func loadWorld(path string) (*world.World, error) {
	if path == "" {
		return world.Default()
	}
	return world.LoadFile(path)
}

type persistence struct {
	journeys coordinator.JourneyStore
	sink     messagelog.Sink
	store    *storage.Store
	redis    *redis.Client
}

// openPersistence wires PostgreSQL and Redis when configured. Without
// either the journey lives in memory and the message log goes to slog.
func openPersistence(ctx context.Context, cfg config.Config) (*persistence, error) {
	p := &persistence{sink: messagelog.SlogSink{}}

	var backing storage.JourneyStore
	if cfg.DatabaseURL != "" {
		store, err := storage.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		p.store = store
		p.sink = store.Logs
		backing = store.Journeys
		p.journeys = store.Journeys
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			p.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		p.redis = client
		p.journeys = storage.NewCachedJourneys(storage.NewJourneyCache(client, cfg.CacheTTL), backing)
	}
	return p, nil
}

func (p *persistence) Close() {
	if p.redis != nil {
		_ = p.redis.Close()
	}
	if p.store != nil {
		p.store.Close()
	}
}

func greet(ctx context.Context, engine *coordinator.Engine, w *world.World, resumed bool) {
	snap, err := engine.Snapshot(ctx)
	if err != nil {
		return
	}
	landmark, err := w.Landmark(snap.Landmark)
	if err != nil {
		return
	}
	if resumed {
		fmt.Printf("Your journey continues at %s.\n", landmark.Name)
	} else {
		fmt.Printf("Welcome to %s. You stand in %s.\n%s\n", w.Name, landmark.Name, landmark.Description)
	}
	fmt.Println("Type to talk. Commands: /go [place], /where, /new, /quit")
}

func chat(ctx context.Context, engine *coordinator.Engine, w *world.World) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := command(ctx, engine, w, line)
			if err != nil {
				fmt.Println(err)
			}
			if quit {
				return nil
			}
			continue
		}

		res, err := engine.HandleMessage(ctx, line)
		if err != nil {
			return err
		}
		if res.Moved {
			if l, err := w.Landmark(res.Landmark); err == nil {
				fmt.Printf("~ The party arrives at %s.\n", l.Name)
			}
		}
		for _, r := range res.Replies {
			fmt.Println(formatReply(w, r))
		}
	}
}

func command(ctx context.Context, engine *coordinator.Engine, w *world.World, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/new":
		if err := engine.NewJourney(ctx); err != nil {
			return false, err
		}
		greet(ctx, engine, w, false)
	case "/where":
		snap, err := engine.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		l, err := w.Landmark(snap.Landmark)
		if err != nil {
			return false, err
		}
		fmt.Printf("%s (turn %d, %d tokens)\n%s\n", l.Name, snap.Counter, engine.TokenCount(), l.Description)
	case "/go":
		if strings.TrimSpace(arg) == "" {
			fmt.Println("Places: " + placeList(w))
			return false, nil
		}
		id, ok := findLandmark(w, arg)
		if !ok {
			return false, fmt.Errorf("unknown place %q, try one of: %s", arg, placeList(w))
		}
		if err := engine.MoveTo(ctx, id); err != nil {
			return false, err
		}
		l, err := w.Landmark(id)
		if err != nil {
			return false, err
		}
		fmt.Printf("~ The party arrives at %s.\n", l.Name)
	default:
		return false, fmt.Errorf("unknown command %s", name)
	}
	return false, nil
}

// formatReply renders a companion line. Discussion lines name the partner
// when it is known.
func formatReply(w *world.World, r coordinator.Reply) string {
	if r.With != "" {
		partner, err := w.Companion(r.With)
		if err == nil {
			return fmt.Sprintf("%s (to %s): %s", r.Name, partner.Name, r.Text)
		}
		slog.Warn("discussion partner not in world", "partner", r.With, "error", err.Error())
	}
	return fmt.Sprintf("%s: %s", r.Name, r.Text)
}

// placeList names every landmark in configured order.
func placeList(w *world.World) string {
	ids := w.LandmarkIDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if l, err := w.Landmark(id); err == nil {
			names = append(names, l.Name)
		}
	}
	return strings.Join(names, ", ")
}

// historySource returns the latest logged entries of a journey, oldest
// first.
type historySource interface {
	Recent(ctx context.Context, journeyID string, limit int) ([]types.LogEntry, error)
}

// recap renders the last spoken lines of a resumed journey.
func recap(ctx context.Context, src historySource, journeyID string, w *world.World, limit int) ([]string, error) {
	entries, err := src.Recent(ctx, journeyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}
	var lines []string
	for _, e := range entries {
		switch e.Type {
		case types.LogPlayer:
			lines = append(lines, "you: "+e.Content)
		case types.LogCompanion, types.LogDiscussion:
			name := e.Sender
			if c, err := w.Companion(world.CompanionID(e.Sender)); err == nil {
				name = c.Name
			}
			lines = append(lines, name+": "+e.Content)
		}
	}
	return lines, nil
}

// findLandmark matches a landmark by id or by name, ignoring case and a
// leading "the".
func findLandmark(w *world.World, query string) (world.LandmarkID, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.TrimPrefix(q, "the ")
	for _, l := range w.Landmarks {
		name := strings.TrimPrefix(strings.ToLower(l.Name), "the ")
		if q == string(l.ID) || q == name || strings.ReplaceAll(q, " ", "_") == string(l.ID) {
			return l.ID, true
		}
	}
	return "", false
}
