package models

import "time"

// Timeframe identifies a bar interval using the exchange's interval notation
// ("1m", "1h", "4h", "1d", ...).
type Timeframe string

// Common timeframes used for multi-timeframe scans.
const (
	Timeframe1Min  Timeframe = "1m"
	Timeframe5Min  Timeframe = "5m"
	Timeframe15Min Timeframe = "15m"
	Timeframe1Hour Timeframe = "1h"
	Timeframe4Hour Timeframe = "4h"
	Timeframe1Day  Timeframe = "1d"
)

// timeframeSeconds maps interval notation to its fixed duration in seconds.
// 1M is approximated as 30 days.
var timeframeSeconds = map[Timeframe]int64{
	"1m": 60, "3m": 180, "5m": 300, "15m": 900, "30m": 1800,
	"1h": 3600, "2h": 7200, "4h": 14400, "6h": 21600, "8h": 28800,
	"12h": 43200, "1d": 86400, "3d": 259200, "1w": 604800, "1M": 2592000,
}

// timeframeRank orders timeframes by structural weight: a longer duration
// outranks a shorter one. Unknown timeframes rank 0.
var timeframeRank = map[Timeframe]int{
	"1m": 1, "3m": 2, "5m": 3, "15m": 4, "30m": 5,
	"1h": 6, "2h": 7, "4h": 8, "6h": 9, "8h": 10,
	"12h": 11, "1d": 12, "3d": 13, "1w": 14, "1M": 15,
}

// Seconds returns the fixed duration of the timeframe in seconds, or 0 when
// the notation is unknown.
func (tf Timeframe) Seconds() int64 {
	return timeframeSeconds[tf]
}

// Duration returns the timeframe's fixed duration, or 0 when unknown.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf.Seconds()) * time.Second
}

// Rank returns the structural rank of the timeframe; higher means longer.
func (tf Timeframe) Rank() int {
	return timeframeRank[tf]
}

// Known reports whether the timeframe notation is recognized.
func (tf Timeframe) Known() bool {
	_, ok := timeframeSeconds[tf]
	return ok
}

// Upper returns the display form of the timeframe ("4h" -> "4H").
func (tf Timeframe) Upper() string {
	s := []byte(string(tf))
	for i, c := range s {
		if c >= 'a' && c <= 'z' {
			s[i] = c - 'a' + 'A'
		}
	}
	return string(s)
}

// SortTimeframes orders timeframes ascending by rank, in place.
func SortTimeframes(tfs []Timeframe) {
	for i := 1; i < len(tfs); i++ {
		for j := i; j > 0 && tfs[j].Rank() < tfs[j-1].Rank(); j-- {
			tfs[j], tfs[j-1] = tfs[j-1], tfs[j]
		}
	}
}
