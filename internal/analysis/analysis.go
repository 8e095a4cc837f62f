// Package analysis provides the shared result types for market-structure
// analysis: detected patterns, swing points, trend state and price levels.
package analysis

import "fmt"

// PatternKind is the closed set of patterns the detectors can emit.
// Consumers match on the kind, never on description text.
type PatternKind string

// Candlestick formations (tail of the merged view).
const (
	BullishEngulfing   PatternKind = "bullish_engulfing"
	BearishEngulfing   PatternKind = "bearish_engulfing"
	InsideBar          PatternKind = "inside_bar"
	OutsideBar         PatternKind = "outside_bar"
	TweezerTop         PatternKind = "tweezer_top"
	TweezerBottom      PatternKind = "tweezer_bottom"
	DarkCloudCover     PatternKind = "dark_cloud_cover"
	PiercingLine       PatternKind = "piercing_line"
	BullishHarami      PatternKind = "bullish_harami"
	BearishHarami      PatternKind = "bearish_harami"
	PinBar             PatternKind = "pin_bar"
	Doji               PatternKind = "doji"
	Hammer             PatternKind = "hammer"
	HangingMan         PatternKind = "hanging_man"
	InvertedHammer     PatternKind = "inverted_hammer"
	ShootingStar       PatternKind = "shooting_star"
	MorningStar        PatternKind = "morning_star"
	EveningStar        PatternKind = "evening_star"
	ThreeWhiteSoldiers PatternKind = "three_white_soldiers"
	ThreeBlackCrows    PatternKind = "three_black_crows"
)

// Chart patterns (swing-point geometry).
const (
	DoubleTop               PatternKind = "double_top"
	DoubleBottom            PatternKind = "double_bottom"
	HeadAndShoulders        PatternKind = "head_and_shoulders"
	InverseHeadAndShoulders PatternKind = "inverse_head_and_shoulders"
)

// Market-structure breaks.
const (
	BullishBOS   PatternKind = "bullish_bos"
	BearishBOS   PatternKind = "bearish_bos"
	BullishCHoCH PatternKind = "bullish_choch"
	BearishCHoCH PatternKind = "bearish_choch"
)

// PatternType groups kinds by the detector family that produces them.
type PatternType string

const (
	PatternTypeCandlestick PatternType = "candlestick"
	PatternTypeChart       PatternType = "chart"
	PatternTypeStructure   PatternType = "structure"
)

// PatternDirection represents the expected direction of a pattern.
type PatternDirection string

const (
	PatternBullish PatternDirection = "bullish"
	PatternBearish PatternDirection = "bearish"
	PatternNeutral PatternDirection = "neutral"
)

// TrendDirection represents the SMA-slope trend state of a bar sequence.
type TrendDirection string

const (
	TrendUp       TrendDirection = "Uptrend"
	TrendDown     TrendDirection = "Downtrend"
	TrendSideways TrendDirection = "Sideways"
	TrendUnknown  TrendDirection = "Unknown"
)

// Pattern represents one detected formation with its attached parameters.
// Kind is the structural identity; Description carries the human-readable
// rationale for the report surface.
type Pattern struct {
	Kind        PatternKind
	Type        PatternType
	Direction   PatternDirection
	Description string

	// Trend context for single-bar reversal candles (hammer family).
	Context TrendDirection

	// Chart/structure parameters. Zero when not applicable.
	Neckline   float64 // valley, peak or averaged neckline price
	BreakPrice float64 // close that confirmed the formation
}

// Label returns the display tag for the pattern, including trend context
// where one was attached.
func (p Pattern) Label() string {
	if p.Context != "" {
		return fmt.Sprintf("%s (in %s context)", patternNames[p.Kind], p.Context)
	}
	return patternNames[p.Kind]
}

var patternNames = map[PatternKind]string{
	BullishEngulfing:        "Bullish Engulfing",
	BearishEngulfing:        "Bearish Engulfing",
	InsideBar:               "Inside Bar",
	OutsideBar:              "Outside Bar",
	TweezerTop:              "Tweezer Top",
	TweezerBottom:           "Tweezer Bottom",
	DarkCloudCover:          "Dark Cloud Cover",
	PiercingLine:            "Piercing Pattern",
	BullishHarami:           "Bullish Harami",
	BearishHarami:           "Bearish Harami",
	PinBar:                  "Pin Bar",
	Doji:                    "Doji",
	Hammer:                  "Hammer",
	HangingMan:              "Hanging Man",
	InvertedHammer:          "Inverted Hammer",
	ShootingStar:            "Shooting Star",
	MorningStar:             "Morning Star",
	EveningStar:             "Evening Star",
	ThreeWhiteSoldiers:      "Three White Soldiers",
	ThreeBlackCrows:         "Three Black Crows",
	DoubleTop:               "Double Top",
	DoubleBottom:            "Double Bottom",
	HeadAndShoulders:        "Head & Shoulders",
	InverseHeadAndShoulders: "Inverse Head & Shoulders",
	BullishBOS:              "Bullish BOS (New HH)",
	BearishBOS:              "Bearish BOS (New LL)",
	BullishCHoCH:            "Bullish CHoCH (Downtrend Reversal)",
	BearishCHoCH:            "Bearish CHoCH (Uptrend Reversal)",
}

// SwingKind distinguishes swing highs from swing lows.
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a confirmed local extremum in a merged view. Ephemeral:
// recomputed on every detection call, indexed into the view it came from.
type SwingPoint struct {
	Index int
	Price float64
	Kind  SwingKind
}

// LevelKind represents the type of a clustered price level.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is a support or resistance level derived by clustering swing prices.
type Level struct {
	Price     float64
	Kind      LevelKind
	Touches   int
	Proximate bool // within the proximity band of the current price
}
