// Package cache holds per-timeframe bar series and merges finalized history
// with the in-progress live bar into analysis views.
package cache

import (
	"sync"
	"time"

	cerrors "candle-scanner/internal/errors"
	"candle-scanner/internal/models"
)

// DefaultMaxBars caps the finalized history kept per timeframe when the
// caller passes no positive limit.
const DefaultMaxBars = 500

type timeframeState struct {
	finalBars []models.Bar
	liveBar   *models.Bar

	// lastFinalizedClose is the close time of the newest finalized bar.
	// Finalization events at or before it are duplicates and ignored.
	lastFinalizedClose time.Time
}

// TimeframeCache is the in-memory store of bar series keyed by timeframe.
// All methods are safe for concurrent use; views are independent copies and
// never alias internal state.
type TimeframeCache struct {
	mu      sync.Mutex
	states  map[models.Timeframe]*timeframeState
	maxBars int
}

// NewTimeframeCache creates an empty cache. maxBars bounds the finalized
// history per timeframe; older bars are evicted as newer ones arrive.
func NewTimeframeCache(maxBars int) *TimeframeCache {
	if maxBars <= 0 {
		maxBars = DefaultMaxBars
	}
	return &TimeframeCache{
		states:  make(map[models.Timeframe]*timeframeState),
		maxBars: maxBars,
	}
}

// IngestFinalHistory replaces the finalized series for the timeframe with
// bars. Every bar must be final and open times must be strictly ascending;
// otherwise ErrInvalidBarSequence is returned and the previous state is
// kept. A stored live bar survives the swap unless the new history already
// covers it.
func (c *TimeframeCache) IngestFinalHistory(tf models.Timeframe, bars []models.Bar) error {
	for i, b := range bars {
		if !b.IsFinal {
			return cerrors.NewIngestError(string(tf), "non-final bar in history", cerrors.ErrInvalidBarSequence)
		}
		if err := b.Validate(); err != nil {
			return cerrors.NewIngestError(string(tf), "malformed bar in history", cerrors.ErrInvalidBarSequence)
		}
		if i > 0 && !bars[i-1].OpenTime.Before(b.OpenTime) {
			return cerrors.NewIngestError(string(tf), "open times not strictly ascending", cerrors.ErrInvalidBarSequence)
		}
	}

	trimmed := bars
	if len(trimmed) > c.maxBars {
		trimmed = trimmed[len(trimmed)-c.maxBars:]
	}
	finals := make([]models.Bar, len(trimmed))
	copy(finals, trimmed)

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(tf)
	st.finalBars = finals
	if len(finals) > 0 {
		st.lastFinalizedClose = finals[len(finals)-1].CloseTime
		if st.liveBar != nil && !st.liveBar.OpenTime.After(finals[len(finals)-1].OpenTime) {
			st.liveBar = nil
		}
	}
	return nil
}

// IngestLiveUpdate stores the in-progress bar for the timeframe. When the
// update is final and its close time is newer than anything finalized so
// far, the bar is promoted into the finalized series and finalized reports
// true; repeated deliveries of the same final bar report false. Non-final
// updates simply replace the stored live bar.
func (c *TimeframeCache) IngestLiveUpdate(tf models.Timeframe, bar models.Bar) (finalized bool, err error) {
	if err := bar.Validate(); err != nil {
		return false, cerrors.NewIngestError(string(tf), "malformed live bar", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(tf)
	if !bar.IsFinal {
		b := bar
		st.liveBar = &b
		return false, nil
	}

	if !bar.CloseTime.After(st.lastFinalizedClose) {
		// Duplicate finalization, often replayed after a reconnect.
		if st.liveBar != nil && st.liveBar.OpenTime.Equal(bar.OpenTime) {
			st.liveBar = nil
		}
		return false, nil
	}

	st.finalBars = append(st.finalBars, bar)
	if len(st.finalBars) > c.maxBars {
		st.finalBars = st.finalBars[len(st.finalBars)-c.maxBars:]
	}
	st.lastFinalizedClose = bar.CloseTime
	st.liveBar = nil
	return true, nil
}

// MergedView returns a copy of the finalized series with the live bar
// merged in: appended when it opens after the last finalized bar, replacing
// the last bar when it re-delivers the same open time, dropped when stale.
func (c *TimeframeCache) MergedView(tf models.Timeframe) []models.Bar {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mergedViewLocked(tf)
}

// MergedViews returns merged views for every timeframe under a single lock
// acquisition, so cross-timeframe analysis sees one consistent snapshot.
func (c *TimeframeCache) MergedViews() map[models.Timeframe][]models.Bar {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[models.Timeframe][]models.Bar, len(c.states))
	for tf := range c.states {
		out[tf] = c.mergedViewLocked(tf)
	}
	return out
}

// LiveBar returns the stored in-progress bar for the timeframe, if any.
func (c *TimeframeCache) LiveBar(tf models.Timeframe) (models.Bar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[tf]
	if !ok || st.liveBar == nil {
		return models.Bar{}, false
	}
	return *st.liveBar, true
}

// Timeframes returns the timeframes with any state, sorted by rank.
func (c *TimeframeCache) Timeframes() []models.Timeframe {
	c.mu.Lock()
	defer c.mu.Unlock()

	tfs := make([]models.Timeframe, 0, len(c.states))
	for tf := range c.states {
		tfs = append(tfs, tf)
	}
	models.SortTimeframes(tfs)
	return tfs
}

// Len returns the number of finalized bars stored for the timeframe.
func (c *TimeframeCache) Len(tf models.Timeframe) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[tf]
	if !ok {
		return 0
	}
	return len(st.finalBars)
}

func (c *TimeframeCache) state(tf models.Timeframe) *timeframeState {
	st, ok := c.states[tf]
	if !ok {
		st = &timeframeState{}
		c.states[tf] = st
	}
	return st
}

func (c *TimeframeCache) mergedViewLocked(tf models.Timeframe) []models.Bar {
	st, ok := c.states[tf]
	if !ok {
		return nil
	}

	view := make([]models.Bar, len(st.finalBars), len(st.finalBars)+1)
	copy(view, st.finalBars)

	if st.liveBar == nil {
		return view
	}
	live := *st.liveBar
	if len(view) == 0 {
		return append(view, live)
	}
	last := view[len(view)-1]
	switch {
	case live.OpenTime.After(last.OpenTime):
		view = append(view, live)
	case live.OpenTime.Equal(last.OpenTime):
		view[len(view)-1] = live
	}
	return view
}
