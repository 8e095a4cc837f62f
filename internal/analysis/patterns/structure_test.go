package patterns

import (
	"testing"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/models"
)

// uptrendStructure builds a 60-bar series with higher highs (101 then 102)
// and higher lows (99 then 99.5). The tail highs rise so the flat bars after
// the last swing do not register as swings themselves; lastClose sets the
// final close.
func uptrendStructure(lastClose float64) []models.Bar {
	view := make([]models.Bar, 60)
	for i := range view {
		view[i] = seriesBar(i, 100, 100.2, 99.8, 100)
	}
	view[15] = seriesBar(15, 100, 101, 99.8, 100)
	view[35] = seriesBar(35, 100, 102, 99.8, 100)
	view[25] = seriesBar(25, 100, 100.2, 99, 100)
	view[45] = seriesBar(45, 100, 100.2, 99.5, 100)
	for i := 46; i < 60; i++ {
		view[i] = seriesBar(i, 100, 100.2+0.05*float64(i-45), 99.8, 100)
	}
	view[59].Close = lastClose
	if lastClose > view[59].High {
		view[59].High = lastClose
	}
	if lastClose < view[59].Low {
		view[59].Low = lastClose
	}
	return view
}

func TestDetectBullishBOS(t *testing.T) {
	d := NewStructureDetector()
	got := d.Detect(uptrendStructure(103))
	if !hasKind(got, analysis.BullishBOS) {
		t.Fatalf("expected bullish BOS in %v", got)
	}
	for _, p := range got {
		if p.Kind == analysis.BullishBOS && p.Neckline != 102 {
			t.Errorf("broken level = %v, want the last swing high 102", p.Neckline)
		}
	}
}

func TestDetectNoBreakWithinRange(t *testing.T) {
	d := NewStructureDetector()
	// Close inside the swing range produces nothing.
	if got := d.Detect(uptrendStructure(100)); got != nil {
		t.Fatalf("expected no structure events, got %v", got)
	}
}

func TestDetectBearishCHoCH(t *testing.T) {
	d := NewStructureDetector()
	// Uptrend structure with a close under the last swing low reverses.
	got := d.Detect(uptrendStructure(98.5))
	if !hasKind(got, analysis.BearishCHoCH) {
		t.Fatalf("expected bearish CHoCH in %v", got)
	}
	if hasKind(got, analysis.BearishBOS) {
		t.Fatalf("uptrend structure must not yield a bearish BOS, got %v", got)
	}
}

func TestDetectBearishBOS(t *testing.T) {
	// Mirror of the uptrend fixture: lower highs and lower lows, close
	// under the last swing low.
	view := make([]models.Bar, 60)
	for i := range view {
		view[i] = seriesBar(i, 100, 100.2, 99.8, 100)
	}
	view[15] = seriesBar(15, 100, 102, 99.8, 100)
	view[35] = seriesBar(35, 100, 101, 99.8, 100)
	view[25] = seriesBar(25, 100, 100.2, 99.5, 100)
	view[45] = seriesBar(45, 100, 100.2, 99, 100)
	for i := 46; i < 60; i++ {
		view[i] = seriesBar(i, 100, 100.2-0.05*float64(i-45), 99.8-0.05*float64(i-45), 100)
	}
	view[59] = seriesBar(59, 99.4, 99.5, 97.9, 98)

	d := NewStructureDetector()
	got := d.Detect(view)
	if !hasKind(got, analysis.BearishBOS) {
		t.Fatalf("expected bearish BOS in %v", got)
	}
}

func TestDetectStructureShortView(t *testing.T) {
	d := NewStructureDetector()
	if got := d.Detect(flatSeries(29, 100)); got != nil {
		t.Fatalf("expected nil below the minimum view length, got %v", got)
	}
}
