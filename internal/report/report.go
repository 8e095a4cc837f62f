// Package report assembles the per-timeframe detector output into one
// aggregate scan report.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/analysis/mtf"
	"candle-scanner/internal/analysis/patterns"
	cerrors "candle-scanner/internal/errors"
	"candle-scanner/internal/models"
	"candle-scanner/internal/performance"
)

// TimeframeReport is the analysis result for a single timeframe.
type TimeframeReport struct {
	Timeframe  models.Timeframe
	Bar        models.Bar
	Properties models.BarProperties

	Candlesticks    []analysis.Pattern
	ChartPatterns   []analysis.Pattern
	StructureEvents []analysis.Pattern
	Support         []analysis.Level
	Resistance      []analysis.Level
	Confirmations   []string

	// LiveNarrative is set only when the analyzed bar is still forming.
	LiveNarrative string

	// Notes carries informational entries: detectors skipped for lack of
	// bars, detector failures, empty timeframes. Never fatal to the scan.
	Notes []string
}

// Report is one aggregate scan over every timeframe's merged view.
type Report struct {
	Symbol      string
	GeneratedAt time.Time
	Timeframes  []TimeframeReport
}

// Assembler runs the detector suite over merged views and collects the
// results. Detector failures are isolated per detector: a panic inside one
// becomes a note on its timeframe and never aborts the scan.
type Assembler struct {
	log       zerolog.Logger
	candles   *patterns.CandlestickDetector
	chart     *patterns.ChartDetector
	structure *patterns.StructureDetector
	levels    *patterns.LevelClusterer

	now func() time.Time
}

// NewAssembler creates an assembler with the default detector suite.
func NewAssembler(log zerolog.Logger, confirmVolume bool) *Assembler {
	return &Assembler{
		log:       log,
		candles:   patterns.NewCandlestickDetector(confirmVolume),
		chart:     patterns.NewChartDetector(),
		structure: patterns.NewStructureDetector(),
		levels:    patterns.NewLevelClusterer(),
		now:       time.Now,
	}
}

// Assemble produces a report over the given views, one entry per timeframe
// sorted by rank. Empty timeframes appear as informational entries.
func (a *Assembler) Assemble(symbol string, views map[models.Timeframe][]models.Bar) *Report {
	tfs := make([]models.Timeframe, 0, len(views))
	for tf := range views {
		tfs = append(tfs, tf)
	}
	models.SortTimeframes(tfs)

	rep := &Report{
		Symbol:      symbol,
		GeneratedAt: a.now(),
		Timeframes:  make([]TimeframeReport, len(tfs)),
	}

	// Timeframes are independent; analyze them in parallel. Each task writes
	// only its own slot.
	pool := performance.NewWorkerPool(len(tfs))
	pool.Start()
	var wg sync.WaitGroup
	for i, tf := range tfs {
		i, tf := i, tf
		wg.Add(1)
		task := func() {
			defer wg.Done()
			rep.Timeframes[i] = a.assembleTimeframe(tf, views)
		}
		if !pool.Submit(task) {
			task()
		}
	}
	wg.Wait()
	pool.Stop()
	return rep
}

func (a *Assembler) assembleTimeframe(tf models.Timeframe, views map[models.Timeframe][]models.Bar) TimeframeReport {
	view := views[tf]
	tr := TimeframeReport{Timeframe: tf}
	if len(view) == 0 {
		tr.Notes = append(tr.Notes, cerrors.ErrNoData.Error())
		return tr
	}

	tr.Bar = view[len(view)-1]
	tr.Properties = models.ComputeProperties(tr.Bar)

	a.runDetector(&tr, a.candles.Name(), a.candles.MinBars(), len(view), func() {
		tr.Candlesticks = a.candles.Detect(view)
	})
	a.runDetector(&tr, a.chart.Name(), a.chart.MinBars(), len(view), func() {
		tr.ChartPatterns = a.chart.Detect(view)
	})
	a.runDetector(&tr, a.structure.Name(), a.structure.MinBars(), len(view), func() {
		tr.StructureEvents = a.structure.Detect(view)
	})
	a.runDetector(&tr, a.levels.Name(), a.levels.MinBars(), len(view), func() {
		tr.Support, tr.Resistance = a.levels.Levels(view)
	})

	directional := make([]analysis.Pattern, 0,
		len(tr.Candlesticks)+len(tr.ChartPatterns)+len(tr.StructureEvents))
	directional = append(directional, tr.Candlesticks...)
	directional = append(directional, tr.ChartPatterns...)
	directional = append(directional, tr.StructureEvents...)
	tr.Confirmations = mtf.Confirmations(tf, directional, views)

	if !tr.Bar.IsFinal {
		tr.LiveNarrative = Narrative(tf, tr.Bar, view[:len(view)-1], a.now())
	}
	return tr
}

// runDetector invokes one detector with panic isolation. Short views become
// an informational insufficient-data note instead of a detector call.
func (a *Assembler) runDetector(tr *TimeframeReport, name string, minBars, have int, run func()) {
	if have < minBars {
		tr.Notes = append(tr.Notes, fmt.Sprintf("%s: %v (have %d, need %d)",
			name, cerrors.ErrInsufficientData, have, minBars))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err := cerrors.NewDetectorError(name, string(tr.Timeframe), fmt.Errorf("%v", r))
			a.log.Error().Err(err).Str("timeframe", string(tr.Timeframe)).Msg("detector failed")
			tr.Notes = append(tr.Notes, err.Error())
		}
	}()
	run()
}
