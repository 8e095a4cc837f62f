package patterns

import (
	"testing"
	"time"

	"candle-scanner/internal/models"
)

func seriesBar(i int, open, high, low, close float64) models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Bar{
		OpenTime:  start.Add(time.Duration(i) * time.Hour),
		CloseTime: start.Add(time.Duration(i+1) * time.Hour),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    1000,
		IsFinal:   true,
	}
}

// flatSeries builds n identical range-bound bars around the base price.
func flatSeries(n int, base float64) []models.Bar {
	view := make([]models.Bar, n)
	for i := range view {
		view[i] = seriesBar(i, base, base+0.5, base-0.5, base)
	}
	return view
}

func TestExtractSwingsShortView(t *testing.T) {
	view := flatSeries(4, 100)
	highs, lows := ExtractSwings(view, 2, 0.01)
	if highs != nil || lows != nil {
		t.Fatalf("expected no swings on a 4-bar view with window 2, got %v / %v", highs, lows)
	}
}

func TestExtractSwingsIndexBounds(t *testing.T) {
	const window = 2
	view := flatSeries(9, 100)
	view[4] = seriesBar(4, 100, 110, 99.5, 100)
	view[6] = seriesBar(6, 100, 100.5, 95, 100)

	highs, lows := ExtractSwings(view, window, 0.01)
	for _, s := range highs {
		if s.Index < window || s.Index > len(view)-window-1 {
			t.Errorf("swing high index %d outside [%d, %d]", s.Index, window, len(view)-window-1)
		}
	}
	for _, s := range lows {
		if s.Index < window || s.Index > len(view)-window-1 {
			t.Errorf("swing low index %d outside [%d, %d]", s.Index, window, len(view)-window-1)
		}
	}

	if len(highs) != 1 || highs[0].Index != 4 || highs[0].Price != 110 {
		t.Fatalf("expected a single swing high at index 4 price 110, got %v", highs)
	}
}

func TestExtractSwingsConfirmation(t *testing.T) {
	// The peak at index 4 is a local maximum but price never pulls back
	// below high*(1-threshold), so it must not be confirmed.
	view := flatSeries(9, 100)
	view[4] = seriesBar(4, 100, 101, 99.9, 100.9)

	highs, _ := ExtractSwings(view, 2, 0.05)
	if len(highs) != 0 {
		t.Fatalf("expected no confirmed swing highs, got %v", highs)
	}
}
