// Package session runs the control loop that owns a display pipeline.
//
// The pipeline is single-threaded. Front ends (HTTP handlers, the terminal)
// never touch it directly: they post closures with [Session.Do], which run
// on the loop goroutine between decode results. After every command or
// result the loop publishes an immutable [Snapshot] that front ends read
// without locking.
package session

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"photoview/internal/decoder"
	"photoview/internal/display"
	"photoview/internal/logging"
	"photoview/internal/metrics"
	"photoview/internal/sequence"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("session stopped")

// LastViewedStore remembers the last item shown per folder.
type LastViewedStore interface {
	GetLastViewed(ctx context.Context, folder string) (sequence.ItemID, error)
	SetLastViewed(ctx context.Context, folder string, id sequence.ItemID) error
}

// Snapshot is what front ends render. It is never modified after
// publication.
type Snapshot struct {
	Seq   uint64
	Frame image.Image
	State display.State
}

type command struct {
	fn   func(*display.Pipeline)
	done chan struct{}
}

// Session owns one pipeline and its control loop.
type Session struct {
	pipeline *display.Pipeline
	results  <-chan decoder.Result
	commands chan command
	store    LastViewedStore
	folder   string

	snapshot atomic.Pointer[Snapshot]
	seq      uint64
	lastSeen sequence.ItemID

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Options configures a Session.
type Options struct {
	// Store, when set, records the current item per Folder.
	Store  LastViewedStore
	Folder string
}

// New creates a session around p, fed with results. Call Run to start the
// loop.
func New(p *display.Pipeline, results <-chan decoder.Result, opts Options) *Session {
	s := &Session{
		pipeline: p,
		results:  results,
		commands: make(chan command, 16),
		store:    opts.Store,
		folder:   filepath.Clean(opts.Folder),
		subs:     make(map[chan struct{}]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.snapshot.Store(&Snapshot{State: p.State()})
	return s
}

// Run executes the control loop until ctx is cancelled or Stop is called.
// On exit the pipeline's outstanding loads are cancelled.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	defer s.pipeline.Stop()

	s.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case cmd := <-s.commands:
			cmd.fn(s.pipeline)
			close(cmd.done)
		case r, ok := <-s.results:
			if !ok {
				logging.Warn("Session: decoder results closed, stopping")
				return
			}
			s.pipeline.HandleResult(r)
			s.pipeline.Drain(s.results)
		}
		s.publish()
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (s *Session) Do(ctx context.Context, fn func(*display.Pipeline)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the loop and waits for it to exit.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Snapshot returns the latest published snapshot.
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Subscribe returns a channel that receives a value whenever a new snapshot
// is published. Notifications coalesce; the channel never blocks the loop.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch, func() {
		s.subMu.Lock()
		delete(s.subs, ch)
		s.subMu.Unlock()
	}
}

// GetStats implements metrics.StatsProvider.
func (s *Session) GetStats() metrics.Stats {
	st := s.Snapshot().State
	return metrics.Stats{
		SequenceLength: st.Count,
		CacheEntries:   len(st.Cached),
		CacheCapacity:  st.Capacity,
		Busy:           st.Busy,
	}
}

func (s *Session) publish() {
	s.seq++
	snap := &Snapshot{
		Seq:   s.seq,
		Frame: s.pipeline.CurrentFrame(),
		State: s.pipeline.State(),
	}
	s.snapshot.Store(snap)
	s.remember(snap.State.ItemID)

	s.subMu.Lock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.subMu.Unlock()
}

// remember records the current item for resuming. Failures are logged and
// otherwise ignored.
func (s *Session) remember(id sequence.ItemID) {
	if s.store == nil || id == "" || id == s.lastSeen {
		return
	}
	s.lastSeen = id
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.SetLastViewed(ctx, s.folder, id); err != nil {
		logging.Warn("Session: failed to remember %s: %v", id, err)
	}
}

// Resume returns the item to start from: the last one viewed in folder if
// it is still in seq, otherwise the first item.
func Resume(ctx context.Context, store LastViewedStore, folder string, seq sequence.Provider) sequence.ItemID {
	if seq.Count() == 0 {
		return ""
	}
	if store != nil {
		id, err := store.GetLastViewed(ctx, filepath.Clean(folder))
		if err != nil {
			logging.Warn("Session: failed to read last viewed item: %v", err)
		} else if id != "" && seq.IndexOf(id) >= 0 {
			logging.Info("Resuming at %s", filepath.Base(string(id)))
			return id
		}
	}
	return seq.At(0)
}
