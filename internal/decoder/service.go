package decoder

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync"
	"time"

	"photoview/internal/logging"
	"photoview/internal/memory"
	"photoview/internal/metrics"
	"photoview/internal/sequence"
	"photoview/internal/workers"
)

// ErrDecodeFailed wraps every failure to produce a raster.
var ErrDecodeFailed = errors.New("decode failed")

// FullSize requests the raster at its native resolution.
var FullSize = image.Pt(-1, -1)

// Priority orders pending requests.
type Priority int

const (
	// Background requests fill the preload cache.
	Background Priority = iota
	// Interactive requests are for the item on screen.
	Interactive
)

// String returns the metrics label for p.
func (p Priority) String() string {
	if p == Interactive {
		return metrics.PriorityInteractive
	}
	return metrics.PriorityBackground
}

// Handle identifies one submitted request.
type Handle uint64

// Result is the outcome of one request. On failure Err wraps
// ErrDecodeFailed and Raster is nil.
type Result struct {
	Handle        Handle
	ItemID        sequence.ItemID
	RequestedSize image.Point
	FullSize      image.Point
	Angle         int
	Priority      Priority
	Raster        image.Image
	Err           error
}

// Loader produces a raster for id, rotated clockwise by angle degrees and
// fitted inside size (FullSize for no scaling). It returns the raster and the
// item's full size after rotation.
type Loader interface {
	Load(ctx context.Context, id sequence.ItemID, size image.Point, angle int) (image.Image, image.Point, error)
}

// Options configures a Service.
type Options struct {
	// Workers is the pool size; 0 uses one worker per CPU, at most 8.
	Workers int
	// ResultBuffer is the capacity of the results channel.
	ResultBuffer int
	// Monitor, when set, delays background work under memory pressure.
	Monitor *memory.Monitor
}

type job struct {
	handle Handle
	req    Result
	ctx    context.Context
	cancel context.CancelFunc
	queued time.Time
}

// Service is a prioritised decode worker pool.
type Service struct {
	loader  Loader
	monitor *memory.Monitor

	mu          sync.Mutex
	cond        *sync.Cond
	interactive []*job
	background  []*job
	jobs        map[Handle]*job
	next        Handle
	closed      bool

	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup
}

// New starts a Service that decodes with loader.
func New(loader Loader, opts Options) *Service {
	n := opts.Workers
	if n <= 0 {
		n = workers.ForCPU(8)
	}
	buf := opts.ResultBuffer
	if buf <= 0 {
		buf = 64
	}

	s := &Service{
		loader:  loader,
		monitor: opts.Monitor,
		jobs:    make(map[Handle]*job),
		results: make(chan Result, buf),
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	logging.Info("Decoder starting with %d workers", n)
	for i := 0; i < n; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Results returns the channel results are delivered on. It is closed by
// Close. Cancelled requests produce no result.
func (s *Service) Results() <-chan Result {
	return s.results
}

// Submit queues a request and returns its handle. After Close it returns 0
// and the request is dropped.
func (s *Service) Submit(id sequence.ItemID, size image.Point, angle int, priority Priority) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	s.next++
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		handle: s.next,
		req: Result{
			Handle:        s.next,
			ItemID:        id,
			RequestedSize: size,
			Angle:         angle,
			Priority:      priority,
		},
		ctx:    ctx,
		cancel: cancel,
		queued: time.Now(),
	}
	s.jobs[j.handle] = j

	if priority == Interactive {
		s.interactive = append(s.interactive, j)
	} else {
		s.background = append(s.background, j)
	}
	metrics.DecodeRequestsTotal.WithLabelValues(priority.String()).Inc()
	s.updateQueueDepth()
	s.cond.Signal()

	logging.Debug("Decoder: queued %s request %d for %s at %v (angle %d)", priority, j.handle, id, size, angle)
	return j.handle
}

// Cancel abandons one request. Queued work is dropped; running work is
// interrupted where the loader honours its context and its result discarded.
func (s *Service) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(h)
	s.updateQueueDepth()
}

// CancelAll abandons every outstanding request.
func (s *Service) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.jobs)
	for h := range s.jobs {
		s.cancelLocked(h)
	}
	s.updateQueueDepth()
	if n > 0 {
		logging.Debug("Decoder: cancelled %d outstanding requests", n)
	}
}

func (s *Service) cancelLocked(h Handle) {
	j, ok := s.jobs[h]
	if !ok {
		return
	}
	j.cancel()
	delete(s.jobs, h)

	isJob := func(q *job) bool { return q == j }
	s.interactive = slices.DeleteFunc(s.interactive, isJob)
	s.background = slices.DeleteFunc(s.background, isJob)
	metrics.DecodeResultsTotal.WithLabelValues(j.req.Priority.String(), "canceled").Inc()
}

// Close cancels everything, stops the workers and closes the results
// channel.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for h := range s.jobs {
		s.cancelLocked(h)
	}
	s.updateQueueDepth()
	close(s.done)
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
	close(s.results)
	logging.Info("Decoder stopped")
}

// Pending returns the number of queued and running requests.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Service) updateQueueDepth() {
	metrics.DecodeQueueDepth.WithLabelValues(metrics.PriorityInteractive).Set(float64(len(s.interactive)))
	metrics.DecodeQueueDepth.WithLabelValues(metrics.PriorityBackground).Set(float64(len(s.background)))
}

// take blocks until work is available, interactive first. It returns nil
// once the service is closed.
func (s *Service) take() *job {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.closed && len(s.interactive) == 0 && len(s.background) == 0 {
		s.cond.Wait()
	}
	if s.closed {
		return nil
	}

	var j *job
	if len(s.interactive) > 0 {
		j, s.interactive = s.interactive[0], s.interactive[1:]
	} else {
		j, s.background = s.background[0], s.background[1:]
	}
	s.updateQueueDepth()
	return j
}

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		j := s.take()
		if j == nil {
			return
		}
		s.run(j)
	}
}

func (s *Service) run(j *job) {
	defer j.cancel()
	label := j.req.Priority.String()

	if j.req.Priority == Background && s.monitor != nil && s.monitor.IsPaused() {
		metrics.DecodeBackpressureWaits.Inc()
		logging.Debug("Decoder: request %d waiting for memory pressure to ease", j.handle)
		if !s.monitor.WaitIfPaused(j.ctx) {
			return
		}
	}
	if j.ctx.Err() != nil {
		return
	}

	start := time.Now()
	raster, full, err := s.loader.Load(j.ctx, j.req.ItemID, j.req.RequestedSize, j.req.Angle)
	metrics.DecodeDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	s.mu.Lock()
	_, live := s.jobs[j.handle]
	delete(s.jobs, j.handle)
	s.mu.Unlock()
	if !live || j.ctx.Err() != nil {
		return
	}

	res := j.req
	res.FullSize = full
	if err != nil {
		if !errors.Is(err, ErrDecodeFailed) {
			err = errors.Join(ErrDecodeFailed, err)
		}
		res.Err = err
		metrics.DecodeResultsTotal.WithLabelValues(label, "error").Inc()
		logging.Warn("Decoder: %s request %d for %s failed: %v", label, j.handle, j.req.ItemID, err)
	} else {
		res.Raster = raster
		metrics.DecodeResultsTotal.WithLabelValues(label, "success").Inc()
		logging.Debug("Decoder: %s request %d for %s done in %v (queued %v)",
			label, j.handle, j.req.ItemID, time.Since(start), start.Sub(j.queued))
	}

	select {
	case s.results <- res:
	case <-s.done:
	}
}
