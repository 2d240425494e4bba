package metrics

import (
	"time"

	"photoview/internal/logging"
)

// StatsProvider is implemented by the viewer session.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a point-in-time view of one viewing session.
type Stats struct {
	SequenceLength int
	CacheEntries   int
	CacheCapacity  int
	Busy           int
}

// Collector periodically copies session stats into gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	SequenceLength.Set(float64(stats.SequenceLength))
	PreloadCacheEntries.Set(float64(stats.CacheEntries))
	PreloadCacheCapacity.Set(float64(stats.CacheCapacity))
	ViewerBusy.Set(float64(stats.Busy))

	logging.Debug("Metrics collected: items=%d, cache=%d/%d, busy=%d",
		stats.SequenceLength, stats.CacheEntries, stats.CacheCapacity, stats.Busy)
}
