package patterns

import (
	"fmt"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/models"
)

// Chart pattern thresholds. Swings for multi-bar formations are extracted
// with a coarse window so that minor wiggles do not register as peaks.
const (
	// MinDoubleBars is the minimum view length for double top / bottom.
	MinDoubleBars = 70
	// MinHeadShouldersBars is the minimum view length for head and
	// shoulders formations.
	MinHeadShouldersBars = 100
	// ChartSwingWindow / ChartSwingThreshold parameterize swing
	// extraction for chart patterns.
	ChartSwingWindow    = 20
	ChartSwingThreshold = 0.01
	// MinPeakSeparation is the minimum bar distance between the two
	// extremes of a double formation.
	MinPeakSeparation = 5
	// PeakMatchTolerance is the maximum relative distance between the two
	// tops (or bottoms) of a double formation.
	PeakMatchTolerance = 0.015
	// ValleyBreakRatio confirms a double top once price closes below the
	// intervening valley by this factor; double bottoms use its inverse.
	ValleyBreakRatio = 0.99
	// HeadMarginRatio is the minimum relative margin of the head above
	// (or below) both shoulders.
	HeadMarginRatio = 0.01
	// ShoulderMatchTolerance is the maximum relative distance between the
	// two shoulders.
	ShoulderMatchTolerance = 0.03
	// NecklineBreakRatio confirms a head and shoulders once price closes
	// below the neckline by this factor; the inverse formation uses its
	// reciprocal.
	NecklineBreakRatio = 0.995
)

// ChartDetector recognizes confirmed multi-bar reversal formations: double
// top, double bottom, head and shoulders and its inverse. A formation is
// reported only once the latest close has broken its neckline; unbroken
// shapes stay silent.
type ChartDetector struct {
	swingWindow       int
	swingThreshold    float64
	minSeparation     int
	peakTolerance     float64
	valleyBreakRatio  float64
	headMargin        float64
	shoulderTolerance float64
	necklineBreak     float64
}

// NewChartDetector creates a detector with the default thresholds.
func NewChartDetector() *ChartDetector {
	return &ChartDetector{
		swingWindow:       ChartSwingWindow,
		swingThreshold:    ChartSwingThreshold,
		minSeparation:     MinPeakSeparation,
		peakTolerance:     PeakMatchTolerance,
		valleyBreakRatio:  ValleyBreakRatio,
		headMargin:        HeadMarginRatio,
		shoulderTolerance: ShoulderMatchTolerance,
		necklineBreak:     NecklineBreakRatio,
	}
}

func (d *ChartDetector) Name() string {
	return "ChartDetector"
}

// MinBars returns the minimum number of bars the detector needs. Head and
// shoulders additionally requires MinHeadShouldersBars and skips itself on
// shorter views.
func (d *ChartDetector) MinBars() int {
	return MinDoubleBars
}

// Detect runs every chart formation check against the view.
func (d *ChartDetector) Detect(view []models.Bar) []analysis.Pattern {
	if len(view) < MinDoubleBars {
		return nil
	}

	highs, lows := ExtractSwings(view, d.swingWindow, d.swingThreshold)
	lastClose := view[len(view)-1].Close

	var out []analysis.Pattern
	if p := d.detectDoubleTop(highs, lows, lastClose); p != nil {
		out = append(out, *p)
	}
	if p := d.detectDoubleBottom(highs, lows, lastClose); p != nil {
		out = append(out, *p)
	}
	if len(view) >= MinHeadShouldersBars {
		if p := d.detectHeadAndShoulders(highs, lows, lastClose); p != nil {
			out = append(out, *p)
		}
		if p := d.detectInverseHeadAndShoulders(highs, lows, lastClose); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// detectDoubleTop checks the last two swing highs for matching tops and a
// confirmed break of the valley between them. The valley is the highest
// swing low between the tops, so the break condition is the conservative
// one.
func (d *ChartDetector) detectDoubleTop(highs, lows []analysis.SwingPoint, lastClose float64) *analysis.Pattern {
	if len(highs) < 2 {
		return nil
	}
	t1 := highs[len(highs)-2]
	t2 := highs[len(highs)-1]
	if t2.Index-t1.Index < d.minSeparation {
		return nil
	}
	if absf(t1.Price-t2.Price)/t1.Price > d.peakTolerance {
		return nil
	}

	valley, ok := highestLowBetween(lows, t1.Index, t2.Index)
	if !ok {
		return nil
	}
	if lastClose >= valley*d.valleyBreakRatio {
		return nil
	}
	return &analysis.Pattern{
		Kind:       analysis.DoubleTop,
		Type:       analysis.PatternTypeChart,
		Direction:  analysis.PatternBearish,
		Neckline:   valley,
		BreakPrice: lastClose,
		Description: fmt.Sprintf("tops near %.8g and %.8g, close %.8g broke valley %.8g",
			t1.Price, t2.Price, lastClose, valley),
	}
}

func (d *ChartDetector) detectDoubleBottom(highs, lows []analysis.SwingPoint, lastClose float64) *analysis.Pattern {
	if len(lows) < 2 {
		return nil
	}
	b1 := lows[len(lows)-2]
	b2 := lows[len(lows)-1]
	if b2.Index-b1.Index < d.minSeparation {
		return nil
	}
	if absf(b1.Price-b2.Price)/b1.Price > d.peakTolerance {
		return nil
	}

	peak, ok := lowestHighBetween(highs, b1.Index, b2.Index)
	if !ok {
		return nil
	}
	if lastClose <= peak*(2-d.valleyBreakRatio) {
		return nil
	}
	return &analysis.Pattern{
		Kind:       analysis.DoubleBottom,
		Type:       analysis.PatternTypeChart,
		Direction:  analysis.PatternBullish,
		Neckline:   peak,
		BreakPrice: lastClose,
		Description: fmt.Sprintf("bottoms near %.8g and %.8g, close %.8g broke peak %.8g",
			b1.Price, b2.Price, lastClose, peak),
	}
}

// detectHeadAndShoulders checks the last three swing highs for a head above
// both shoulders, matched shoulders, and a confirmed break of the neckline
// drawn through the two lows flanking the head.
func (d *ChartDetector) detectHeadAndShoulders(highs, lows []analysis.SwingPoint, lastClose float64) *analysis.Pattern {
	if len(highs) < 3 {
		return nil
	}
	ls := highs[len(highs)-3]
	head := highs[len(highs)-2]
	rs := highs[len(highs)-1]

	if head.Price <= ls.Price*(1+d.headMargin) || head.Price <= rs.Price*(1+d.headMargin) {
		return nil
	}
	if absf(ls.Price-rs.Price)/ls.Price > d.shoulderTolerance {
		return nil
	}

	left, okL := highestLowBetween(lows, ls.Index, head.Index)
	right, okR := highestLowBetween(lows, head.Index, rs.Index)
	if !okL || !okR {
		return nil
	}
	neckline := (left + right) / 2
	if lastClose >= neckline*d.necklineBreak {
		return nil
	}
	return &analysis.Pattern{
		Kind:       analysis.HeadAndShoulders,
		Type:       analysis.PatternTypeChart,
		Direction:  analysis.PatternBearish,
		Neckline:   neckline,
		BreakPrice: lastClose,
		Description: fmt.Sprintf("head %.8g over shoulders %.8g / %.8g, close %.8g broke neckline %.8g",
			head.Price, ls.Price, rs.Price, lastClose, neckline),
	}
}

func (d *ChartDetector) detectInverseHeadAndShoulders(highs, lows []analysis.SwingPoint, lastClose float64) *analysis.Pattern {
	if len(lows) < 3 {
		return nil
	}
	ls := lows[len(lows)-3]
	head := lows[len(lows)-2]
	rs := lows[len(lows)-1]

	if head.Price >= ls.Price*(1-d.headMargin) || head.Price >= rs.Price*(1-d.headMargin) {
		return nil
	}
	if absf(ls.Price-rs.Price)/ls.Price > d.shoulderTolerance {
		return nil
	}

	left, okL := lowestHighBetween(highs, ls.Index, head.Index)
	right, okR := lowestHighBetween(highs, head.Index, rs.Index)
	if !okL || !okR {
		return nil
	}
	neckline := (left + right) / 2
	if lastClose <= neckline*(2-d.necklineBreak) {
		return nil
	}
	return &analysis.Pattern{
		Kind:       analysis.InverseHeadAndShoulders,
		Type:       analysis.PatternTypeChart,
		Direction:  analysis.PatternBullish,
		Neckline:   neckline,
		BreakPrice: lastClose,
		Description: fmt.Sprintf("head %.8g under shoulders %.8g / %.8g, close %.8g broke neckline %.8g",
			head.Price, ls.Price, rs.Price, lastClose, neckline),
	}
}

// highestLowBetween returns the highest swing-low price strictly between the
// two indices.
func highestLowBetween(lows []analysis.SwingPoint, from, to int) (float64, bool) {
	var best float64
	found := false
	for _, l := range lows {
		if l.Index <= from || l.Index >= to {
			continue
		}
		if !found || l.Price > best {
			best = l.Price
			found = true
		}
	}
	return best, found
}

// lowestHighBetween returns the lowest swing-high price strictly between the
// two indices.
func lowestHighBetween(highs []analysis.SwingPoint, from, to int) (float64, bool) {
	var best float64
	found := false
	for _, h := range highs {
		if h.Index <= from || h.Index >= to {
			continue
		}
		if !found || h.Price < best {
			best = h.Price
			found = true
		}
	}
	return best, found
}
