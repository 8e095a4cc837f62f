// Package models provides domain models for the market-structure scanner.
package models

import (
	"fmt"
	"time"
)

// Bar represents one OHLCV sample over a fixed time window.
// IsFinal marks a closed bar; a bar with IsFinal=false is still forming and
// its OHLCV may change on every feed update.
type Bar struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	IsFinal   bool
}

// Validate checks the structural invariants of a bar.
func (b Bar) Validate() error {
	if !b.CloseTime.After(b.OpenTime) {
		return fmt.Errorf("close time %s not after open time %s", b.CloseTime, b.OpenTime)
	}
	if b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("high %.8f below body", b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("low %.8f above body", b.Low)
	}
	return nil
}

// BarProperties holds the derived geometry of a single bar. Every pattern
// predicate downstream is expressed in terms of this structure so the whole
// system shares one notion of bullish/bearish/doji.
type BarProperties struct {
	BodyAbs     float64
	FullRange   float64
	UpperShadow float64
	LowerShadow float64
	IsBullish   bool
	IsBearish   bool
	IsDojiLike  bool
	BodyRatio   float64 // body / range
	UpperRatio  float64 // upper shadow / range
	LowerRatio  float64 // lower shadow / range
}

// DojiBodyRatio is the body/range ratio below which a bar counts as doji-like.
const DojiBodyRatio = 0.15

// ComputeProperties derives BarProperties from a bar. Total function: a
// zero-range bar yields all ratios 0 and counts as doji-like by convention.
func ComputeProperties(b Bar) BarProperties {
	p := BarProperties{
		BodyAbs:     abs(b.Close - b.Open),
		FullRange:   b.High - b.Low,
		UpperShadow: b.High - maxf(b.Open, b.Close),
		LowerShadow: minf(b.Open, b.Close) - b.Low,
		IsBullish:   b.Close > b.Open,
		IsBearish:   b.Close < b.Open,
	}

	if p.FullRange == 0 {
		p.IsDojiLike = true
		return p
	}

	p.BodyRatio = p.BodyAbs / p.FullRange
	p.UpperRatio = p.UpperShadow / p.FullRange
	p.LowerRatio = p.LowerShadow / p.FullRange
	p.IsDojiLike = p.BodyRatio < DojiBodyRatio
	return p
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
