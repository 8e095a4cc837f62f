package patterns

import (
	"candle-scanner/internal/analysis"
	"candle-scanner/internal/models"
)

// TrendLookback is the number of closes the SMA-slope trend test uses.
const TrendLookback = 10

// TrendDirection classifies the trend of a bar sequence by comparing the
// SMA of the last TrendLookback closes against the SMA of the same window
// excluding the newest close. Fewer than TrendLookback bars yield Unknown.
func TrendDirection(view []models.Bar) analysis.TrendDirection {
	if len(view) < TrendLookback {
		return analysis.TrendUnknown
	}

	closes := make([]float64, TrendLookback)
	for i := 0; i < TrendLookback; i++ {
		closes[i] = view[len(view)-TrendLookback+i].Close
	}

	var prevSum, curSum float64
	for i, c := range closes {
		curSum += c
		if i < len(closes)-1 {
			prevSum += c
		}
	}
	smaPrev := prevSum / float64(TrendLookback-1)
	smaCur := curSum / float64(TrendLookback)

	switch {
	case smaCur > smaPrev:
		return analysis.TrendUp
	case smaCur < smaPrev:
		return analysis.TrendDown
	default:
		return analysis.TrendSideways
	}
}
