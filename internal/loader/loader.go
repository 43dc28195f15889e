package loader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/UnknownOlympus/pinmap/internal/metrics"
	"github.com/UnknownOlympus/pinmap/internal/models"
	"github.com/UnknownOlympus/pinmap/internal/parser"
	"github.com/UnknownOlympus/pinmap/internal/repository"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// loadKey is the singleflight key; the loader owns exactly one file.
const loadKey = "load"

// Loader owns the file-backed point cache. It re-parses the source file
// only when its modification time advances and otherwise serves the last
// successfully normalized result. The cache entry is replaced wholesale,
// never mutated in place.
type Loader struct {
	path          string               // Path to the source CSV file.
	log           *slog.Logger         // Logger for load activity.
	metrics       *metrics.Metrics     // Metrics for cache and parse behavior.
	repo          repository.Interface // Optional snapshot sink; may be nil.
	readTimeout   time.Duration        // Upper bound on a single file read.
	preserveStale bool                 // Keep the last good entry when the source is unavailable.
	clock         clockwork.Clock      // Time source, swappable in tests.

	group singleflight.Group
	mu    sync.RWMutex
	entry *cacheEntry
}

// cacheEntry pairs normalized points with the modification time of the file
// content that produced them.
type cacheEntry struct {
	points   []models.Point
	modTime  time.Time
	loadedAt time.Time
}

// New creates a Loader for the given source file. The repository may be nil
// when snapshot persistence is not configured.
func New(
	path string,
	log *slog.Logger,
	mtr *metrics.Metrics,
	repo repository.Interface,
	readTimeout time.Duration,
	preserveStale bool,
) *Loader {
	return &Loader{
		path:          path,
		log:           log,
		metrics:       mtr,
		repo:          repo,
		readTimeout:   readTimeout,
		preserveStale: preserveStale,
		clock:         clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source. Pass nil to reset to real time.
// Tests inject a fake clock for deterministic staleness ages.
func (l *Loader) SetClock(c clockwork.Clock) {
	if c == nil {
		l.clock = clockwork.NewRealClock()
		return
	}
	l.clock = c
}

// LoadPoints returns the current ordered point list, re-parsing the source
// file only when its modification time is newer than the cached one.
// It never returns an error: when the file is unavailable the loader either
// serves the last good entry (preserve-stale policy) or an empty list.
// Concurrent callers that detect a stale cache share a single reload.
func (l *Loader) LoadPoints(ctx context.Context) []models.Point {
	info, err := os.Stat(l.path)
	if err != nil {
		return l.serveUnavailable(ctx, err)
	}

	if entry := l.current(); entry != nil && !info.ModTime().After(entry.modTime) {
		l.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return entry.points
	}

	result, err, _ := l.group.Do(loadKey, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have already
		// refreshed the cache while this one was waiting.
		if entry := l.current(); entry != nil && !info.ModTime().After(entry.modTime) {
			return entry, nil
		}
		return l.reload(ctx)
	})
	if err != nil {
		return l.serveUnavailable(ctx, err)
	}

	entry, ok := result.(*cacheEntry)
	if !ok {
		l.log.ErrorContext(ctx, "Unexpected singleflight result type")
		return []models.Point{}
	}

	return entry.points
}

// current returns the cache entry without copying; entries are immutable
// once published.
func (l *Loader) current() *cacheEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.entry
}

// reload reads and normalizes the whole source file, then replaces the
// cache atomically. The modification time is taken from a stat performed
// right before the read; a rewrite between the two is benign because the
// next call re-detects the change.
func (l *Loader) reload(ctx context.Context) (*cacheEntry, error) {
	start := l.clock.Now()

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}

	data, err := l.readFile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	rows, err := readRawRows(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse source file: %w", err)
	}

	points, dropped := parser.NormalizeRows(rows)
	if dropped > 0 {
		l.log.WarnContext(ctx, "Dropped invalid rows during normalization",
			"dropped", dropped, "kept", len(points))
	}

	entry := &cacheEntry{
		points:   points,
		modTime:  info.ModTime(),
		loadedAt: l.clock.Now(),
	}

	l.mu.Lock()
	l.entry = entry
	l.mu.Unlock()

	l.metrics.CacheLookups.WithLabelValues("reload").Inc()
	l.metrics.RowsDropped.Add(float64(dropped))
	l.metrics.PointsLoaded.Set(float64(len(points)))
	l.metrics.LoadSeconds.Observe(l.clock.Since(start).Seconds())

	l.log.InfoContext(ctx, "Source file parsed",
		"points", len(points), "dropped", dropped, "mod_time", entry.modTime)

	l.saveSnapshot(ctx, entry, dropped)

	return entry, nil
}

// readFile reads the whole source file, bounded by the configured timeout
// so an unresponsive mount cannot stall the calling request indefinitely.
func (l *Loader) readFile(ctx context.Context) ([]byte, error) {
	if l.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.readTimeout)
		defer cancel()
	}

	type readResult struct {
		data []byte
		err  error
	}

	resultCh := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(l.path)
		resultCh <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("read interrupted: %w", ctx.Err())
	case res := <-resultCh:
		return res.data, res.err
	}
}

// serveUnavailable handles a load-level failure. Under the preserve-stale
// policy the last good entry keeps being served with a staleness warning;
// otherwise the caller gets an empty list. Either way no error escapes.
func (l *Loader) serveUnavailable(ctx context.Context, err error) []models.Point {
	l.metrics.LoadFailures.Inc()

	if entry := l.current(); l.preserveStale && entry != nil {
		l.metrics.CacheLookups.WithLabelValues("stale").Inc()
		l.log.WarnContext(ctx, "Source file unavailable, serving stale points",
			"error", err, "age", l.clock.Since(entry.loadedAt), "points", len(entry.points))
		return entry.points
	}

	l.metrics.CacheLookups.WithLabelValues("empty").Inc()
	l.log.ErrorContext(ctx, "Source file unavailable, serving empty point list", "error", err)

	return []models.Point{}
}

// saveSnapshot records the parse outcome when a sink is configured.
// Persistence failures are logged and never surfaced to callers.
func (l *Loader) saveSnapshot(ctx context.Context, entry *cacheEntry, dropped int) {
	if l.repo == nil {
		return
	}

	snap := models.Snapshot{
		LoadedAt:      entry.loadedAt,
		SourceModTime: entry.modTime,
		PointCount:    len(entry.points),
		DroppedCount:  dropped,
	}
	if err := l.repo.SaveSnapshot(ctx, snap); err != nil {
		l.log.ErrorContext(ctx, "Failed to persist load snapshot", "error", err)
	}
}
