// Package patterns provides candlestick, chart and market-structure pattern
// detection over merged bar views.
package patterns

import (
	"candle-scanner/internal/analysis"
	"candle-scanner/internal/models"
)

// ExtractSwings scans the view for confirmed swing highs and lows.
//
// An interior index i is a swing high when no bar in [i-window, i+window] has
// a strictly greater high and the bar at i+window trades low enough
// afterwards (low < high[i] * (1-threshold)); the confirmation step rejects
// highs that price never actually breaks away from. Swing lows mirror the
// condition. Callers choose window and threshold per detector: coarse for
// chart patterns, fine for structure breaks.
//
// Returned slices are ordered by index. Views shorter than 2*window+1 bars
// yield empty results.
func ExtractSwings(view []models.Bar, window int, threshold float64) (highs, lows []analysis.SwingPoint) {
	if window < 1 || len(view) < 2*window+1 {
		return nil, nil
	}

	for i := window; i < len(view)-window; i++ {
		high := view[i].High
		low := view[i].Low

		isHigh := true
		for j := i - window; j <= i+window; j++ {
			if j != i && view[j].High > high {
				isHigh = false
				break
			}
		}
		if isHigh && view[i+window].Low < high*(1-threshold) {
			highs = append(highs, analysis.SwingPoint{Index: i, Price: high, Kind: analysis.SwingHigh})
		}

		isLow := true
		for j := i - window; j <= i+window; j++ {
			if j != i && view[j].Low < low {
				isLow = false
				break
			}
		}
		if isLow && view[i+window].High > low*(1+threshold) {
			lows = append(lows, analysis.SwingPoint{Index: i, Price: low, Kind: analysis.SwingLow})
		}
	}

	return highs, lows
}
