package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"photoview/internal/decoder"
	"photoview/internal/display"
	"photoview/internal/sequence"
)

// loopbackDecoder answers every request immediately on its results channel.
type loopbackDecoder struct {
	mu      sync.Mutex
	next    decoder.Handle
	results chan decoder.Result
}

func (d *loopbackDecoder) Submit(id sequence.ItemID, size image.Point, angle int, p decoder.Priority) decoder.Handle {
	d.mu.Lock()
	d.next++
	h := d.next
	d.mu.Unlock()

	full := image.Pt(800, 600)
	raster := size
	if raster.X < 0 {
		raster = full
	}
	d.results <- decoder.Result{
		Handle: h, ItemID: id, RequestedSize: size, FullSize: full, Angle: angle, Priority: p,
		Raster: image.NewRGBA(image.Rectangle{Max: raster}),
	}
	return h
}

func (d *loopbackDecoder) Cancel(decoder.Handle) {}
func (d *loopbackDecoder) CancelAll()            {}

type memStore struct {
	mu   sync.Mutex
	last map[string]sequence.ItemID
}

func (m *memStore) GetLastViewed(_ context.Context, folder string) (sequence.ItemID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[folder], nil
}

func (m *memStore) SetLastViewed(_ context.Context, folder string, id sequence.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[folder] = id
	return nil
}

func newSession(t *testing.T, store LastViewedStore) (*Session, *sequence.List) {
	t.Helper()
	dec := &loopbackDecoder{results: make(chan decoder.Result, 64)}
	seq := sequence.NewList([]sequence.ItemID{"/p/a.jpg", "/p/b.jpg", "/p/c.jpg"})
	p := display.New(dec, seq, display.Config{CacheBudget: 3 * 160 * 120 * 4, ViewSize: image.Pt(160, 120)})
	s := New(p, dec.results, Options{Store: store, Folder: "/p"})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		s.Stop()
	})
	return s, seq
}

// waitFor polls the snapshot until cond holds.
func waitFor(t *testing.T, s *Session, cond func(*Snapshot) bool) *Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := s.Snapshot(); cond(snap) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met, last state %+v", s.Snapshot().State)
	return nil
}

func TestSessionNavigates(t *testing.T) {
	store := &memStore{last: map[string]sequence.ItemID{}}
	s, _ := newSession(t, store)

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	if err := s.Do(ctx, func(p *display.Pipeline) { p.SetCurrent("/p/a.jpg", true) }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	snap := waitFor(t, s, func(sn *Snapshot) bool { return sn.Frame != nil && sn.State.Busy == 0 })
	if snap.State.ItemID != "/p/a.jpg" {
		t.Errorf("ItemID = %s", snap.State.ItemID)
	}

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Error("no update notification")
	}

	if err := s.Do(ctx, func(p *display.Pipeline) { p.Next() }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	waitFor(t, s, func(sn *Snapshot) bool { return sn.State.ItemID == "/p/b.jpg" && sn.Frame != nil })

	stats := s.GetStats()
	if stats.SequenceLength != 3 || stats.CacheCapacity != 3 {
		t.Errorf("GetStats() = %+v", stats)
	}

	store.mu.Lock()
	last := store.last["/p"]
	store.mu.Unlock()
	if last != "/p/b.jpg" {
		t.Errorf("last viewed = %q, want /p/b.jpg", last)
	}
}

func TestDoAfterStop(t *testing.T) {
	s, _ := newSession(t, nil)
	s.Stop()

	err := s.Do(context.Background(), func(*display.Pipeline) {})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Do() after Stop = %v, want ErrStopped", err)
	}
}

func TestResume(t *testing.T) {
	seq := sequence.NewList([]sequence.ItemID{"/p/a.jpg", "/p/b.jpg"})
	store := &memStore{last: map[string]sequence.ItemID{}}
	ctx := context.Background()

	if got := Resume(ctx, store, "/p", seq); got != "/p/a.jpg" {
		t.Errorf("Resume() with nothing stored = %q", got)
	}
	store.last["/p"] = "/p/b.jpg"
	if got := Resume(ctx, store, "/p/", seq); got != "/p/b.jpg" {
		t.Errorf("Resume() = %q, want /p/b.jpg", got)
	}
	store.last["/p"] = "/p/gone.jpg"
	if got := Resume(ctx, store, "/p", seq); got != "/p/a.jpg" {
		t.Errorf("Resume() with a removed item = %q", got)
	}
	if got := Resume(ctx, nil, "/p", sequence.NewList(nil)); got != "" {
		t.Errorf("Resume() on empty sequence = %q", got)
	}
}
