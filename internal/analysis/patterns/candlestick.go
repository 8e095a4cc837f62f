package patterns

import (
	"candle-scanner/internal/analysis"
	"candle-scanner/internal/models"
)

// Candlestick detection thresholds. These are the primary tunable surface of
// the detector; the constructor copies them so tests can sweep alternatives.
const (
	// ShadowBodyRatio is the minimum shadow-to-body multiple for the
	// rejection-wick patterns (pin bar, hammer family).
	ShadowBodyRatio = 1.8
	// EngulfBodyRatio is the minimum current-body to prior-body multiple
	// for engulfing patterns.
	EngulfBodyRatio = 0.9
	// SmallBodyRatio is the maximum body/range ratio for wick-dominated
	// candles (pin bar, hammer family).
	SmallBodyRatio = 0.35
	// TinyShadowRatio is the maximum opposite-shadow/range ratio for the
	// hammer family.
	TinyShadowRatio = 0.1
	// PinBarOppositeRatio is the maximum opposite-shadow/range ratio for
	// pin bars.
	PinBarOppositeRatio = 0.2
	// TweezerTolerance is the maximum relative distance between the two
	// matching extremes of a tweezer.
	TweezerTolerance = 0.0005
	// LongBodyRatio is the minimum body/range ratio of the outer candles
	// of star patterns.
	LongBodyRatio = 0.5
	// StarBodyRatio is the maximum body/range ratio of the middle star
	// candle.
	StarBodyRatio = 0.3
	// MarchBodyRatio is the minimum body/range ratio of each candle in
	// three-soldiers / three-crows.
	MarchBodyRatio = 0.6
	// HaramiOuterRatio / HaramiInnerRatio bound the body sizes of the two
	// harami candles.
	HaramiOuterRatio = 0.6
	HaramiInnerRatio = 0.4
)

// MinCandlestickBars is the minimum merged-view length the detector needs.
const MinCandlestickBars = 3

// CandlestickDetector recognizes single, double and triple-bar formations on
// the tail of a merged view. Only the last three bars are examined; trend
// context for the single-bar reversal candles comes from the SMA slope of
// the bars preceding the tail.
type CandlestickDetector struct {
	shadowBodyRatio     float64
	engulfBodyRatio     float64
	smallBodyRatio      float64
	tinyShadowRatio     float64
	pinBarOppositeRatio float64
	tweezerTolerance    float64
	longBodyRatio       float64
	starBodyRatio       float64
	marchBodyRatio      float64
	haramiOuterRatio    float64
	haramiInnerRatio    float64
	confirmVolume       bool
}

// NewCandlestickDetector creates a detector with the default thresholds.
// When confirmVolume is set, engulfing patterns additionally require the
// engulfing bar to out-trade the engulfed one.
func NewCandlestickDetector(confirmVolume bool) *CandlestickDetector {
	return &CandlestickDetector{
		shadowBodyRatio:     ShadowBodyRatio,
		engulfBodyRatio:     EngulfBodyRatio,
		smallBodyRatio:      SmallBodyRatio,
		tinyShadowRatio:     TinyShadowRatio,
		pinBarOppositeRatio: PinBarOppositeRatio,
		tweezerTolerance:    TweezerTolerance,
		longBodyRatio:       LongBodyRatio,
		starBodyRatio:       StarBodyRatio,
		marchBodyRatio:      MarchBodyRatio,
		haramiOuterRatio:    HaramiOuterRatio,
		haramiInnerRatio:    HaramiInnerRatio,
		confirmVolume:       confirmVolume,
	}
}

func (d *CandlestickDetector) Name() string {
	return "CandlestickDetector"
}

// MinBars returns the minimum number of bars the detector needs.
func (d *CandlestickDetector) MinBars() int {
	return MinCandlestickBars
}

// Detect runs every candlestick predicate against the tail of the view.
// Patterns may co-occur; the result order is not significant.
func (d *CandlestickDetector) Detect(view []models.Bar) []analysis.Pattern {
	if len(view) < MinCandlestickBars {
		return nil
	}

	c1 := view[len(view)-3]
	c2 := view[len(view)-2]
	c3 := view[len(view)-1]
	trend := TrendDirection(view[:len(view)-1])

	var out []analysis.Pattern
	add := func(kind analysis.PatternKind, dir analysis.PatternDirection) {
		out = append(out, analysis.Pattern{
			Kind:      kind,
			Type:      analysis.PatternTypeCandlestick,
			Direction: dir,
		})
	}
	addCtx := func(kind analysis.PatternKind, dir analysis.PatternDirection) {
		out = append(out, analysis.Pattern{
			Kind:      kind,
			Type:      analysis.PatternTypeCandlestick,
			Direction: dir,
			Context:   trend,
		})
	}

	// Two-bar formations on (c2, c3).
	if d.IsBullishEngulfing(c2, c3) {
		add(analysis.BullishEngulfing, analysis.PatternBullish)
	}
	if d.IsBearishEngulfing(c2, c3) {
		add(analysis.BearishEngulfing, analysis.PatternBearish)
	}
	if d.isInsideBar(c2, c3) {
		add(analysis.InsideBar, analysis.PatternNeutral)
	}
	if d.isOutsideBar(c2, c3) {
		add(analysis.OutsideBar, analysis.PatternNeutral)
	}
	if d.isTweezerTop(c2, c3) {
		add(analysis.TweezerTop, analysis.PatternBearish)
	}
	if d.isTweezerBottom(c2, c3) {
		add(analysis.TweezerBottom, analysis.PatternBullish)
	}
	if d.isDarkCloudCover(c2, c3) {
		add(analysis.DarkCloudCover, analysis.PatternBearish)
	}
	if d.isPiercingLine(c2, c3) {
		add(analysis.PiercingLine, analysis.PatternBullish)
	}
	if d.isBullishHarami(c2, c3) {
		add(analysis.BullishHarami, analysis.PatternBullish)
	}
	if d.isBearishHarami(c2, c3) {
		add(analysis.BearishHarami, analysis.PatternBearish)
	}

	// Single-bar formations on c3.
	if d.isPinBar(c3) {
		add(analysis.PinBar, analysis.PatternNeutral)
	}
	if models.ComputeProperties(c3).IsDojiLike {
		add(analysis.Doji, analysis.PatternNeutral)
	}
	if d.isHammerShape(c3) {
		addCtx(analysis.Hammer, analysis.PatternBullish)
		addCtx(analysis.HangingMan, analysis.PatternBearish)
	}
	if d.isInvertedHammerShape(c3) {
		addCtx(analysis.InvertedHammer, analysis.PatternBullish)
		addCtx(analysis.ShootingStar, analysis.PatternBearish)
	}

	// Three-bar formations on (c1, c2, c3).
	if d.isMorningStar(c1, c2, c3) {
		add(analysis.MorningStar, analysis.PatternBullish)
	}
	if d.isEveningStar(c1, c2, c3) {
		add(analysis.EveningStar, analysis.PatternBearish)
	}
	if d.isThreeWhiteSoldiers(c1, c2, c3) {
		add(analysis.ThreeWhiteSoldiers, analysis.PatternBullish)
	}
	if d.isThreeBlackCrows(c1, c2, c3) {
		add(analysis.ThreeBlackCrows, analysis.PatternBearish)
	}

	return out
}

// IsBullishEngulfing reports whether c2 is a bullish candle engulfing the
// bearish c1 with at least engulfBodyRatio of its body.
func (d *CandlestickDetector) IsBullishEngulfing(c1, c2 models.Bar) bool {
	if !(c1.Close < c1.Open && c2.Close > c2.Open) {
		return false
	}
	engulfs := c2.Close > c1.Open && c2.Open < c1.Close &&
		(c2.Close-c2.Open) >= d.engulfBodyRatio*(c1.Open-c1.Close)
	if d.confirmVolume {
		return engulfs && c2.Volume > c1.Volume
	}
	return engulfs
}

// IsBearishEngulfing mirrors IsBullishEngulfing.
func (d *CandlestickDetector) IsBearishEngulfing(c1, c2 models.Bar) bool {
	if !(c1.Close > c1.Open && c2.Close < c2.Open) {
		return false
	}
	engulfs := c2.Close < c1.Open && c2.Open > c1.Close &&
		(c2.Open-c2.Close) >= d.engulfBodyRatio*(c1.Close-c1.Open)
	if d.confirmVolume {
		return engulfs && c2.Volume > c1.Volume
	}
	return engulfs
}

func (d *CandlestickDetector) isInsideBar(c1, c2 models.Bar) bool {
	return c2.High < c1.High && c2.Low > c1.Low
}

func (d *CandlestickDetector) isOutsideBar(c1, c2 models.Bar) bool {
	return c2.High > c1.High && c2.Low < c1.Low
}

func (d *CandlestickDetector) isTweezerTop(c1, c2 models.Bar) bool {
	if c1.High == 0 || absf(c1.High-c2.High)/c1.High >= d.tweezerTolerance {
		return false
	}
	return c1.Close > c1.Open && c2.Close < c2.Open
}

func (d *CandlestickDetector) isTweezerBottom(c1, c2 models.Bar) bool {
	if c1.Low == 0 || absf(c1.Low-c2.Low)/c1.Low >= d.tweezerTolerance {
		return false
	}
	return c1.Close < c1.Open && c2.Close > c2.Open
}

func (d *CandlestickDetector) isDarkCloudCover(c1, c2 models.Bar) bool {
	if !(c1.Close > c1.Open && c2.Close < c2.Open) {
		return false
	}
	if c2.Open <= c1.High {
		return false
	}
	mid := (c1.Open + c1.Close) / 2
	return c2.Close < mid && c2.Close > c1.Open
}

func (d *CandlestickDetector) isPiercingLine(c1, c2 models.Bar) bool {
	if !(c1.Close < c1.Open && c2.Close > c2.Open) {
		return false
	}
	if c2.Open >= c1.Low {
		return false
	}
	mid := (c1.Open + c1.Close) / 2
	return c2.Close > mid && c2.Close < c1.Open
}

func (d *CandlestickDetector) isBullishHarami(c1, c2 models.Bar) bool {
	p1 := models.ComputeProperties(c1)
	p2 := models.ComputeProperties(c2)
	if !(p1.IsBearish && p2.IsBullish &&
		p1.BodyRatio > d.haramiOuterRatio && p2.BodyRatio < d.haramiInnerRatio) {
		return false
	}
	return c2.Open > c1.Close && c2.Close < c1.Open
}

func (d *CandlestickDetector) isBearishHarami(c1, c2 models.Bar) bool {
	p1 := models.ComputeProperties(c1)
	p2 := models.ComputeProperties(c2)
	if !(p1.IsBullish && p2.IsBearish &&
		p1.BodyRatio > d.haramiOuterRatio && p2.BodyRatio < d.haramiInnerRatio) {
		return false
	}
	return c2.Open < c1.Close && c2.Close > c1.Open
}

func (d *CandlestickDetector) isPinBar(c models.Bar) bool {
	p := models.ComputeProperties(c)
	if p.FullRange == 0 || p.BodyRatio > d.smallBodyRatio {
		return false
	}
	bullishPin := p.IsBullish &&
		p.LowerShadow >= d.shadowBodyRatio*p.BodyAbs &&
		p.UpperShadow < d.pinBarOppositeRatio*p.FullRange
	bearishPin := p.IsBearish &&
		p.UpperShadow >= d.shadowBodyRatio*p.BodyAbs &&
		p.LowerShadow < d.pinBarOppositeRatio*p.FullRange
	return bullishPin || bearishPin
}

// isHammerShape covers hammer and hanging man; which one applies is a matter
// of the trend context attached by the caller.
func (d *CandlestickDetector) isHammerShape(c models.Bar) bool {
	p := models.ComputeProperties(c)
	if p.FullRange == 0 || p.BodyRatio > d.smallBodyRatio {
		return false
	}
	return p.LowerShadow >= d.shadowBodyRatio*p.BodyAbs &&
		p.UpperShadow < d.tinyShadowRatio*p.FullRange
}

// isInvertedHammerShape covers inverted hammer and shooting star.
func (d *CandlestickDetector) isInvertedHammerShape(c models.Bar) bool {
	p := models.ComputeProperties(c)
	if p.FullRange == 0 || p.BodyRatio > d.smallBodyRatio {
		return false
	}
	return p.UpperShadow >= d.shadowBodyRatio*p.BodyAbs &&
		p.LowerShadow < d.tinyShadowRatio*p.FullRange
}

func (d *CandlestickDetector) isMorningStar(c1, c2, c3 models.Bar) bool {
	p1 := models.ComputeProperties(c1)
	p2 := models.ComputeProperties(c2)
	p3 := models.ComputeProperties(c3)
	if !(p1.IsBearish && p3.IsBullish &&
		p1.BodyRatio > d.longBodyRatio && p3.BodyRatio > d.longBodyRatio) {
		return false
	}
	if !(p2.IsDojiLike || p2.BodyRatio < d.starBodyRatio) {
		return false
	}
	return c3.Close > (c1.Open+c1.Close)/2
}

func (d *CandlestickDetector) isEveningStar(c1, c2, c3 models.Bar) bool {
	p1 := models.ComputeProperties(c1)
	p2 := models.ComputeProperties(c2)
	p3 := models.ComputeProperties(c3)
	if !(p1.IsBullish && p3.IsBearish &&
		p1.BodyRatio > d.longBodyRatio && p3.BodyRatio > d.longBodyRatio) {
		return false
	}
	if !(p2.IsDojiLike || p2.BodyRatio < d.starBodyRatio) {
		return false
	}
	return c3.Close < (c1.Open+c1.Close)/2
}

func (d *CandlestickDetector) isThreeWhiteSoldiers(c1, c2, c3 models.Bar) bool {
	p1 := models.ComputeProperties(c1)
	p2 := models.ComputeProperties(c2)
	p3 := models.ComputeProperties(c3)
	if !(p1.IsBullish && p2.IsBullish && p3.IsBullish &&
		p1.BodyRatio > d.marchBodyRatio && p2.BodyRatio > d.marchBodyRatio && p3.BodyRatio > d.marchBodyRatio) {
		return false
	}
	if !(c2.Close > c1.Close && c3.Close > c2.Close) {
		return false
	}
	if !(c2.Open > c1.Open && c2.Open < c1.Close) {
		return false
	}
	return c3.Open > c2.Open && c3.Open < c2.Close
}

func (d *CandlestickDetector) isThreeBlackCrows(c1, c2, c3 models.Bar) bool {
	p1 := models.ComputeProperties(c1)
	p2 := models.ComputeProperties(c2)
	p3 := models.ComputeProperties(c3)
	if !(p1.IsBearish && p2.IsBearish && p3.IsBearish &&
		p1.BodyRatio > d.marchBodyRatio && p2.BodyRatio > d.marchBodyRatio && p3.BodyRatio > d.marchBodyRatio) {
		return false
	}
	if !(c2.Close < c1.Close && c3.Close < c2.Close) {
		return false
	}
	if !(c2.Open < c1.Open && c2.Open > c1.Close) {
		return false
	}
	return c3.Open < c2.Open && c3.Open > c2.Close
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
