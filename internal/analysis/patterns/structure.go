package patterns

import (
	"fmt"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/models"
)

// Market structure thresholds. Swings here use a fine window so structure
// breaks trigger close to the event rather than twenty bars later.
const (
	// MinStructureBars is the minimum view length for structure analysis.
	MinStructureBars = 30
	// StructureSwingWindow / StructureSwingThreshold parameterize swing
	// extraction for structure breaks.
	StructureSwingWindow    = 10
	StructureSwingThreshold = 0.002
	// BreakMarginRatio is the relative margin the close must clear beyond
	// the swing level to count as a break.
	BreakMarginRatio = 0.0005
)

// StructureDetector labels breaks of market structure. A close beyond the
// most recent swing level in the direction of the established structure is a
// break of structure (BOS); a close beyond it against the structure is a
// change of character (CHoCH). Views without two swing highs and two swing
// lows have no established structure and produce nothing.
type StructureDetector struct {
	swingWindow    int
	swingThreshold float64
	breakMargin    float64
}

// NewStructureDetector creates a detector with the default thresholds.
func NewStructureDetector() *StructureDetector {
	return &StructureDetector{
		swingWindow:    StructureSwingWindow,
		swingThreshold: StructureSwingThreshold,
		breakMargin:    BreakMarginRatio,
	}
}

func (d *StructureDetector) Name() string {
	return "StructureDetector"
}

// MinBars returns the minimum number of bars the detector needs.
func (d *StructureDetector) MinBars() int {
	return MinStructureBars
}

// Detect classifies the structure from the last two swing highs and lows and
// reports a break when the latest close clears the most recent swing level
// by the margin.
func (d *StructureDetector) Detect(view []models.Bar) []analysis.Pattern {
	if len(view) < MinStructureBars {
		return nil
	}

	highs, lows := ExtractSwings(view, d.swingWindow, d.swingThreshold)
	if len(highs) < 2 || len(lows) < 2 {
		return nil
	}

	h1, h2 := highs[len(highs)-2], highs[len(highs)-1]
	l1, l2 := lows[len(lows)-2], lows[len(lows)-1]
	uptrend := h2.Price > h1.Price && l2.Price > l1.Price
	downtrend := h2.Price < h1.Price && l2.Price < l1.Price

	lastClose := view[len(view)-1].Close

	var out []analysis.Pattern
	if lastClose > h2.Price*(1+d.breakMargin) {
		switch {
		case uptrend:
			out = append(out, d.structureBreak(analysis.BullishBOS, analysis.PatternBullish, h2.Price, lastClose))
		case downtrend:
			out = append(out, d.structureBreak(analysis.BullishCHoCH, analysis.PatternBullish, h2.Price, lastClose))
		}
	}
	if lastClose < l2.Price*(1-d.breakMargin) {
		switch {
		case downtrend:
			out = append(out, d.structureBreak(analysis.BearishBOS, analysis.PatternBearish, l2.Price, lastClose))
		case uptrend:
			out = append(out, d.structureBreak(analysis.BearishCHoCH, analysis.PatternBearish, l2.Price, lastClose))
		}
	}
	return out
}

func (d *StructureDetector) structureBreak(kind analysis.PatternKind, dir analysis.PatternDirection, level, close float64) analysis.Pattern {
	return analysis.Pattern{
		Kind:        kind,
		Type:        analysis.PatternTypeStructure,
		Direction:   dir,
		Neckline:    level,
		BreakPrice:  close,
		Description: fmt.Sprintf("close %.8g broke swing level %.8g", close, level),
	}
}
