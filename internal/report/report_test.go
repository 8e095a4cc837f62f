package report

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"candle-scanner/internal/models"
)

func trendingView(n int, start, step float64, final bool) []models.Bar {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	view := make([]models.Bar, n)
	for i := range view {
		c := start + step*float64(i)
		view[i] = models.Bar{
			OpenTime:  t0.Add(time.Duration(i) * time.Hour),
			CloseTime: t0.Add(time.Duration(i+1) * time.Hour),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    100,
			IsFinal:   true,
		}
	}
	if !final && n > 0 {
		view[n-1].IsFinal = false
	}
	return view
}

func TestAssembleInsufficientData(t *testing.T) {
	a := NewAssembler(zerolog.Nop(), false)
	views := map[models.Timeframe][]models.Bar{
		models.Timeframe1Hour: trendingView(10, 100, 1, true),
	}

	rep := a.Assemble("BTCUSDT", views)
	if len(rep.Timeframes) != 1 {
		t.Fatalf("timeframes = %d, want 1", len(rep.Timeframes))
	}

	tr := rep.Timeframes[0]
	// 10 bars clear the candlestick minimum but not chart, structure or
	// level minimums; each short detector leaves an informational note.
	if len(tr.Notes) != 3 {
		t.Fatalf("notes = %v, want 3 insufficient-data entries", tr.Notes)
	}
	for _, note := range tr.Notes {
		if !strings.Contains(note, "insufficient data") {
			t.Fatalf("unexpected note %q", note)
		}
	}
}

func TestAssembleEmptyTimeframe(t *testing.T) {
	a := NewAssembler(zerolog.Nop(), false)
	views := map[models.Timeframe][]models.Bar{
		models.Timeframe1Hour: nil,
	}

	rep := a.Assemble("BTCUSDT", views)
	tr := rep.Timeframes[0]
	if len(tr.Notes) != 1 || !strings.Contains(tr.Notes[0], "no data") {
		t.Fatalf("notes = %v, want a single no-data entry", tr.Notes)
	}
	if tr.LiveNarrative != "" {
		t.Fatalf("empty timeframe must not narrate, got %q", tr.LiveNarrative)
	}
}

func TestAssembleSortedByRank(t *testing.T) {
	a := NewAssembler(zerolog.Nop(), false)
	views := map[models.Timeframe][]models.Bar{
		models.Timeframe1Day:  trendingView(10, 100, 1, true),
		models.Timeframe1Min:  trendingView(10, 100, 1, true),
		models.Timeframe1Hour: trendingView(10, 100, 1, true),
	}

	rep := a.Assemble("BTCUSDT", views)
	want := []models.Timeframe{models.Timeframe1Min, models.Timeframe1Hour, models.Timeframe1Day}
	for i, tf := range want {
		if rep.Timeframes[i].Timeframe != tf {
			t.Fatalf("timeframe order = %v at %d, want %v", rep.Timeframes[i].Timeframe, i, tf)
		}
	}
}

func TestAssembleConfirmationsAcrossTimeframes(t *testing.T) {
	a := NewAssembler(zerolog.Nop(), false)
	views := map[models.Timeframe][]models.Bar{
		models.Timeframe1Hour: trendingView(20, 100, 1, true),
		models.Timeframe4Hour: trendingView(20, 100, 1, true),
	}

	rep := a.Assemble("BTCUSDT", views)
	var hourly *TimeframeReport
	for i := range rep.Timeframes {
		if rep.Timeframes[i].Timeframe == models.Timeframe1Hour {
			hourly = &rep.Timeframes[i]
		}
	}
	if hourly == nil {
		t.Fatal("missing 1h entry")
	}
	found := false
	for _, c := range hourly.Confirmations {
		if strings.Contains(c, "4H") {
			found = true
		}
	}
	if !found {
		t.Fatalf("confirmations = %v, want one naming 4H", hourly.Confirmations)
	}
}

func TestAssembleLiveNarrative(t *testing.T) {
	a := NewAssembler(zerolog.Nop(), false)
	view := trendingView(20, 100, 1, false)
	a.now = func() time.Time {
		// Half of the live bar's hour window.
		return view[len(view)-1].OpenTime.Add(30 * time.Minute)
	}

	views := map[models.Timeframe][]models.Bar{models.Timeframe1Hour: view}
	rep := a.Assemble("BTCUSDT", views)
	tr := rep.Timeframes[0]
	if tr.LiveNarrative == "" {
		t.Fatal("expected a live narrative for a forming bar")
	}
	if !strings.Contains(tr.LiveNarrative, "window elapsed") {
		t.Fatalf("narrative %q missing stage note", tr.LiveNarrative)
	}
}

func TestRunDetectorRecoversPanic(t *testing.T) {
	a := NewAssembler(zerolog.Nop(), false)
	tr := TimeframeReport{Timeframe: models.Timeframe1Hour}

	a.runDetector(&tr, "ChartDetector", 0, 10, func() {
		panic("division by zero")
	})

	if len(tr.Notes) != 1 {
		t.Fatalf("notes = %v, want one failure entry", tr.Notes)
	}
	if !strings.Contains(tr.Notes[0], "ChartDetector") || !strings.Contains(tr.Notes[0], "division by zero") {
		t.Fatalf("unexpected failure note %q", tr.Notes[0])
	}
}

func TestNarrativeContent(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := trendingView(10, 100, 0, true)

	live := models.Bar{
		OpenTime:  t0.Add(10 * time.Hour),
		CloseTime: t0.Add(11 * time.Hour),
		Open:      100,
		High:      100.6,
		Low:       97,
		Close:     100.5,
		Volume:    10, // well under 100 * 0.5 expected pace
		IsFinal:   false,
	}
	now := live.OpenTime.Add(30 * time.Minute)

	got := Narrative(models.Timeframe1Hour, live, history, now)
	for _, want := range []string{
		"buyers in control",
		"rejection from below",
		"volume running low",
		"50% of the window elapsed",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("narrative %q missing %q", got, want)
		}
	}
}

func TestNarrativeUnknownTimeframe(t *testing.T) {
	history := trendingView(10, 100, 0, true)
	live := history[9]
	live.IsFinal = false

	got := Narrative(models.Timeframe("7x"), live, history[:9], live.OpenTime.Add(time.Minute))
	if strings.Contains(got, "window elapsed") {
		t.Fatalf("unknown timeframe must not produce a stage note, got %q", got)
	}
	if strings.Contains(got, "volume") {
		t.Fatalf("zero fraction must not produce a volume note, got %q", got)
	}
}
