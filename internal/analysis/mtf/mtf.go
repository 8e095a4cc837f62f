// Package mtf correlates one timeframe's findings against the trend state of
// equal-or-higher ranked timeframes.
package mtf

import (
	"fmt"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/analysis/patterns"
	"candle-scanner/internal/models"
)

// MinConfirmationBars is the minimum merged-view length a higher timeframe
// needs before its trend counts as signal.
const MinConfirmationBars = 5

// Confirmations compares the analyzed timeframe's trend and detected pattern
// polarity against every other timeframe of equal or higher rank. An aligned
// trend yields a confirmation string naming the higher timeframe; a
// directional pattern corroborated by a matching higher-timeframe trend
// yields a stronger one. Timeframes with fewer than MinConfirmationBars bars
// are skipped.
func Confirmations(tf models.Timeframe, found []analysis.Pattern, views map[models.Timeframe][]models.Bar) []string {
	own := patterns.TrendDirection(views[tf])

	hasBullish := false
	hasBearish := false
	for _, p := range found {
		switch p.Direction {
		case analysis.PatternBullish:
			hasBullish = true
		case analysis.PatternBearish:
			hasBearish = true
		}
	}

	others := make([]models.Timeframe, 0, len(views))
	for other := range views {
		if other == tf || other.Rank() < tf.Rank() {
			continue
		}
		others = append(others, other)
	}
	models.SortTimeframes(others)

	var out []string
	for _, other := range others {
		view := views[other]
		if len(view) < MinConfirmationBars {
			continue
		}
		trend := patterns.TrendDirection(view)
		if trend != analysis.TrendUp && trend != analysis.TrendDown {
			continue
		}

		if own == trend {
			out = append(out, fmt.Sprintf("%s trend aligned with %s %s", tf.Upper(), other.Upper(), trend))
		}
		if hasBullish && trend == analysis.TrendUp {
			out = append(out, fmt.Sprintf("Bullish pattern on %s confirmed by %s Uptrend", tf.Upper(), other.Upper()))
		}
		if hasBearish && trend == analysis.TrendDown {
			out = append(out, fmt.Sprintf("Bearish pattern on %s confirmed by %s Downtrend", tf.Upper(), other.Upper()))
		}
	}
	return out
}
