package report

import (
	"fmt"
	"strings"
	"time"

	"candle-scanner/internal/models"
)

// Volume and stage thresholds for the live-bar narrative.
const (
	// VolumeBandRatio is the relative band around the expected
	// volume-so-far beyond which volume reads high or low.
	VolumeBandRatio = 0.2
	// EarlyStageFraction / LateStageFraction split a bar's window into
	// early, developing and late stages.
	EarlyStageFraction = 0.33
	LateStageFraction  = 0.66
	// WickPressureRatio is the shadow/range ratio above which a wick
	// reads as rejection pressure.
	WickPressureRatio = 0.3
)

// Narrative describes a still-forming bar: directional bias, wick rejection
// pressure, volume so far against the pace implied by history, and how far
// through its window the bar is. history is the finalized series preceding
// the live bar; an unknown timeframe yields a zero elapsed fraction.
func Narrative(tf models.Timeframe, live models.Bar, history []models.Bar, now time.Time) string {
	p := models.ComputeProperties(live)
	var parts []string

	switch {
	case p.IsBullish:
		parts = append(parts, "buyers in control so far")
	case p.IsBearish:
		parts = append(parts, "sellers in control so far")
	default:
		parts = append(parts, "open and close balanced so far")
	}

	switch {
	case p.LowerRatio > WickPressureRatio && p.LowerRatio > p.UpperRatio:
		parts = append(parts, "long lower wick shows rejection from below")
	case p.UpperRatio > WickPressureRatio && p.UpperRatio > p.LowerRatio:
		parts = append(parts, "long upper wick shows rejection from above")
	}

	fraction := elapsedFraction(tf, live.OpenTime, now)

	if note := volumeNote(live.Volume, history, fraction); note != "" {
		parts = append(parts, note)
	}

	switch {
	case fraction <= 0:
		// Unknown timeframe or a bar that just opened; no stage note.
	case fraction < EarlyStageFraction:
		parts = append(parts, fmt.Sprintf("%.0f%% of the window elapsed, early and unstable", fraction*100))
	case fraction > LateStageFraction:
		parts = append(parts, fmt.Sprintf("%.0f%% of the window elapsed, shape is representative", fraction*100))
	default:
		parts = append(parts, fmt.Sprintf("%.0f%% of the window elapsed", fraction*100))
	}

	return strings.Join(parts, "; ")
}

// elapsedFraction is the wall-clock share of the bar's window that has
// passed, clamped to [0, 1]. Unknown timeframes have duration 0 and yield 0.
func elapsedFraction(tf models.Timeframe, openTime, now time.Time) float64 {
	d := tf.Duration()
	if d <= 0 {
		return 0
	}
	f := float64(now.Sub(openTime)) / float64(d)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// volumeNote compares volume so far against the mean finalized volume scaled
// by the elapsed fraction. No history or no elapsed time means no note.
func volumeNote(soFar float64, history []models.Bar, fraction float64) string {
	if len(history) == 0 || fraction <= 0 {
		return ""
	}
	var sum float64
	for _, b := range history {
		sum += b.Volume
	}
	expected := sum / float64(len(history)) * fraction
	if expected <= 0 {
		return ""
	}
	switch {
	case soFar > expected*(1+VolumeBandRatio):
		return "volume running high for this stage"
	case soFar < expected*(1-VolumeBandRatio):
		return "volume running low for this stage"
	default:
		return "volume in line with this stage"
	}
}
