package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/types"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

func newJourney(t *testing.T, id, userID string) types.Journey {
	t.Helper()
	w, err := world.Default()
	if err != nil {
		t.Fatalf("failed to load world: %v", err)
	}
	st := session.New(w)
	st.BeginTurn()
	if err := st.MoveTo("mirror_lake"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.MarkSpoke("kael", []string{"philosophy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return types.Journey{
		ID:         id,
		UserID:     userID,
		Snapshot:   st.Snapshot(),
		TokenCount: 120,
		Active:     true,
		LastSaved:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newCache(t *testing.T) (*JourneyCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJourneyCache(client, 0), mr
}

func TestJourneyModelKeepsSnapshot(t *testing.T) {
	j := newJourney(t, "j1", "u1")

	record, err := journeyToModel(j)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Landmark != "mirror_lake" || record.Counter != 1 {
		t.Fatalf("expected landmark and counter columns, got %q and %d", record.Landmark, record.Counter)
	}

	got, err := journeyFromModel(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(j, *got); diff != "" {
		t.Fatalf("journey mismatch (-want +got):\n%s", diff)
	}
}

func TestJourneyFromModelRejectsBadSnapshot(t *testing.T) {
	if _, err := journeyFromModel(journeyModel{ID: "j1", Snapshot: []byte("{")}); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestMessageLogModel(t *testing.T) {
	entry := types.LogEntry{
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UserID:     "u1",
		JourneyID:  "j1",
		Type:       types.LogDecision,
		Sender:     "coordinator",
		Landmark:   "crystal_grove",
		Responders: []world.CompanionID{"bramble", "elara"},
		Crisis:     true,
	}

	record := messageLogToModel(entry)
	if record.Responders != "bramble,elara" {
		t.Fatalf("expected joined responders, got %q", record.Responders)
	}
	if diff := cmp.Diff(entry, messageLogFromModel(record)); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}

	plain := messageLogFromModel(messageLogToModel(types.LogEntry{Type: types.LogPlayer}))
	if plain.Responders != nil {
		t.Fatalf("expected no responders, got %v", plain.Responders)
	}
}

func TestJourneyCache(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()
	j := newJourney(t, "j1", "u1")

	if got, err := cache.Get(ctx, "j1"); err != nil || got != nil {
		t.Fatalf("expected a miss, got %v and %v", got, err)
	}
	if err := cache.Put(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(j, *got); diff != "" {
		t.Fatalf("journey mismatch (-want +got):\n%s", diff)
	}
	if id, err := cache.LatestID(ctx, "u1"); err != nil || id != "j1" {
		t.Fatalf("expected latest j1, got %q and %v", id, err)
	}

	mr.FastForward(DefaultCacheTTL + time.Minute)
	if got, err := cache.Get(ctx, "j1"); err != nil || got != nil {
		t.Fatalf("expected the entry to expire, got %v and %v", got, err)
	}
}

type fakeStore struct {
	journeys map[string]types.Journey
	loads    int
	latests  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{journeys: make(map[string]types.Journey)}
}

func (f *fakeStore) Save(ctx context.Context, j types.Journey) error {
	f.journeys[j.ID] = j
	return nil
}

func (f *fakeStore) Load(ctx context.Context, id string) (*types.Journey, error) {
	f.loads++
	j, ok := f.journeys[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (f *fakeStore) Latest(ctx context.Context, userID string) (*types.Journey, error) {
	f.latests++
	var latest *types.Journey
	for _, j := range f.journeys {
		if j.UserID == userID && j.Active && (latest == nil || j.LastSaved.After(latest.LastSaved)) {
			latest = &j
		}
	}
	return latest, nil
}

func (f *fakeStore) Deactivate(ctx context.Context, id string) error {
	j := f.journeys[id]
	j.Active = false
	f.journeys[id] = j
	return nil
}

func TestCachedJourneysReadThrough(t *testing.T) {
	cache, _ := newCache(t)
	backing := newFakeStore()
	store := NewCachedJourneys(cache, backing)
	ctx := context.Background()

	backing.journeys["j1"] = newJourney(t, "j1", "u1")

	for range 2 {
		got, err := store.Load(ctx, "j1")
		if err != nil || got == nil || got.ID != "j1" {
			t.Fatalf("expected j1, got %v and %v", got, err)
		}
	}
	if backing.loads != 1 {
		t.Fatalf("expected the second load to hit the cache, got %d backing loads", backing.loads)
	}

	if got, err := store.Latest(ctx, "u1"); err != nil || got == nil || got.ID != "j1" {
		t.Fatalf("expected latest j1, got %v and %v", got, err)
	}
	if backing.latests != 0 {
		t.Fatalf("expected latest from the cache, got %d backing queries", backing.latests)
	}
}

func TestCachedJourneysDeactivate(t *testing.T) {
	cache, _ := newCache(t)
	backing := newFakeStore()
	store := NewCachedJourneys(cache, backing)
	ctx := context.Background()

	if err := store.Save(ctx, newJourney(t, "j1", "u1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Deactivate(ctx, "j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backing.journeys["j1"].Active {
		t.Fatalf("expected the backing copy to be inactive")
	}
	if got, err := store.Latest(ctx, "u1"); err != nil || got != nil {
		t.Fatalf("expected no active journey, got %v and %v", got, err)
	}
}

func TestCachedJourneysWithoutBacking(t *testing.T) {
	cache, _ := newCache(t)
	store := NewCachedJourneys(cache, nil)
	ctx := context.Background()

	if err := store.Save(ctx, newJourney(t, "j1", "u1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := store.Latest(ctx, "u1"); err != nil || got == nil || got.ID != "j1" {
		t.Fatalf("expected latest j1, got %v and %v", got, err)
	}
	if err := store.Deactivate(ctx, "j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := store.Latest(ctx, "u1"); err != nil || got != nil {
		t.Fatalf("expected no active journey, got %v and %v", got, err)
	}
	got, err := store.Load(ctx, "j1")
	if err != nil || got == nil || got.Active {
		t.Fatalf("expected the inactive journey to stay loadable, got %v and %v", got, err)
	}
}
