package patterns

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"candle-scanner/internal/models"
)

func viewGen(minLen, maxLen int) gopter.Gen {
	barGen := gen.Struct(reflect.TypeOf(models.Bar{}), map[string]gopter.Gen{
		"Open":   gen.Float64Range(1.0, 1000.0),
		"High":   gen.Float64Range(1.0, 1000.0),
		"Low":    gen.Float64Range(1.0, 1000.0),
		"Close":  gen.Float64Range(1.0, 1000.0),
		"Volume": gen.Float64Range(0, 1e6),
	}).Map(func(b models.Bar) models.Bar {
		b.High = math.Max(b.High, math.Max(b.Open, b.Close))
		b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
		b.IsFinal = true
		return b
	})

	return gen.IntRange(minLen, maxLen).FlatMap(func(n interface{}) gopter.Gen {
		return gen.SliceOfN(n.(int), barGen)
	}, reflect.TypeOf([]models.Bar{})).SuchThat(func(view []models.Bar) bool {
		return len(view) >= minLen && len(view) <= maxLen
	}).Map(func(view []models.Bar) []models.Bar {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := range view {
			view[i].OpenTime = start.Add(time.Duration(i) * time.Hour)
			view[i].CloseTime = start.Add(time.Duration(i+1) * time.Hour)
		}
		return view
	})
}

func TestProperty_SwingIndicesWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("swing indices stay within the interior window", prop.ForAll(
		func(view []models.Bar) bool {
			const window = 3
			highs, lows := ExtractSwings(view, window, 0.002)
			for _, s := range append(highs, lows...) {
				if s.Index < window || s.Index > len(view)-window-1 {
					return false
				}
			}
			return true
		},
		viewGen(0, 40),
	))

	properties.Property("swing indices are strictly increasing per kind", prop.ForAll(
		func(view []models.Bar) bool {
			highs, lows := ExtractSwings(view, 3, 0.002)
			for i := 1; i < len(highs); i++ {
				if highs[i].Index <= highs[i-1].Index {
					return false
				}
			}
			for i := 1; i < len(lows); i++ {
				if lows[i].Index <= lows[i-1].Index {
					return false
				}
			}
			return true
		},
		viewGen(0, 40),
	))

	properties.TestingRun(t)
}

func TestProperty_DetectorsTotalOnArbitraryViews(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	candles := NewCandlestickDetector(true)
	structure := NewStructureDetector()
	clusterer := NewLevelClusterer()

	properties.Property("candlestick patterns carry a kind and direction", prop.ForAll(
		func(view []models.Bar) bool {
			for _, p := range candles.Detect(view) {
				if p.Kind == "" || p.Direction == "" {
					return false
				}
			}
			return true
		},
		viewGen(0, 20),
	))

	properties.Property("structure events only break beyond the swing level", prop.ForAll(
		func(view []models.Bar) bool {
			for _, p := range structure.Detect(view) {
				if p.BreakPrice == p.Neckline {
					return false
				}
			}
			return true
		},
		viewGen(30, 60),
	))

	properties.Property("levels are sorted toward the current price", prop.ForAll(
		func(view []models.Bar) bool {
			support, resistance := clusterer.Levels(view)
			for i := 1; i < len(support); i++ {
				if support[i].Price > support[i-1].Price {
					return false
				}
			}
			for i := 1; i < len(resistance); i++ {
				if resistance[i].Price < resistance[i-1].Price {
					return false
				}
			}
			for _, l := range append(support, resistance...) {
				if l.Touches < MinClusterTouches {
					return false
				}
			}
			return true
		},
		viewGen(50, 90),
	))

	properties.TestingRun(t)
}
