// Package scanner wires the feed, cache, detectors and notifiers into the
// running service: load history, consume the live stream, scan on schedule
// and on every bar finalization.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"candle-scanner/internal/cache"
	"candle-scanner/internal/config"
	"candle-scanner/internal/feed"
	"candle-scanner/internal/logging"
	"candle-scanner/internal/models"
	"candle-scanner/internal/notify"
	"candle-scanner/internal/report"
)

// Scanner owns one symbol's scan loop.
type Scanner struct {
	cfg        *config.Config
	log        zerolog.Logger
	cache      *cache.TimeframeCache
	fetcher    feed.HistoryFetcher
	stream     *feed.Stream
	assembler  *report.Assembler
	notifier   notify.Notifier
	timeframes []models.Timeframe

	// scanCh serializes scan requests; a scan already pending absorbs
	// further triggers.
	scanCh chan struct{}
}

// New creates a scanner from the configuration.
func New(cfg *config.Config, log zerolog.Logger) *Scanner {
	tfs := cfg.Timeframes()
	logger := logging.WithSymbol(log, cfg.Market.Symbol)
	return &Scanner{
		cfg:        cfg,
		log:        logger,
		cache:      cache.NewTimeframeCache(cfg.Market.BarLimit),
		fetcher:    feed.NewBinanceClient(cfg.Feed.RestURL, logger),
		stream:     feed.NewStream(cfg.Feed.WebsocketURL, cfg.Market.Symbol, tfs, logger),
		assembler:  report.NewAssembler(logger, cfg.Scan.ConfirmVolume),
		notifier:   notify.NewMultiNotifier(&cfg.Notifications),
		timeframes: tfs,
		scanCh:     make(chan struct{}, 1),
	}
}

// SetNotifier replaces the report consumer. Used by the one-shot command to
// print to the terminal instead of delivering webhooks.
func (s *Scanner) SetNotifier(n notify.Notifier) {
	s.notifier = n
}

// Run loads history, starts the stream and the scan schedule, and blocks
// until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.loadHistory(ctx)

	s.stream.OnUpdate(func(u feed.LiveUpdate) {
		s.handleUpdate(ctx, u)
	})
	s.stream.OnError(func(err error) {
		s.log.Warn().Err(err).Msg("stream error")
	})

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Scan.Schedule, s.requestScan); err != nil {
		return fmt.Errorf("registering scan schedule %q: %w", s.cfg.Scan.Schedule, err)
	}
	c.Start()
	defer c.Stop()

	go s.scanLoop(ctx)
	s.requestScan()

	return s.stream.Run(ctx)
}

// ScanOnce loads history and runs a single scan pass.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	s.loadHistory(ctx)
	return s.scan(ctx)
}

// loadHistory fetches startup history for every timeframe. A timeframe that
// fails to load is left empty and shows up as insufficient data in reports;
// it does not stop the rest.
func (s *Scanner) loadHistory(ctx context.Context) {
	for _, tf := range s.timeframes {
		if err := s.refreshHistory(ctx, tf); err != nil {
			s.log.Warn().Err(err).Str("timeframe", string(tf)).Msg("history load failed")
		}
	}
}

func (s *Scanner) refreshHistory(ctx context.Context, tf models.Timeframe) error {
	bars, err := s.fetcher.FetchHistory(ctx, s.cfg.Market.Symbol, tf, s.cfg.Market.BarLimit)
	if err != nil {
		return err
	}
	return s.cache.IngestFinalHistory(tf, bars)
}

// handleUpdate feeds one stream push into the cache. A finalized bar
// triggers an authoritative history refetch and an immediate scan; plain
// live updates are stored and awaited by the next scheduled scan.
func (s *Scanner) handleUpdate(ctx context.Context, u feed.LiveUpdate) {
	finalized, err := s.cache.IngestLiveUpdate(u.Timeframe, u.Bar)
	if err != nil {
		s.log.Warn().Err(err).Str("timeframe", string(u.Timeframe)).Msg("live update rejected")
		return
	}
	if !finalized {
		return
	}

	logging.LogFinalization(s.log, s.cfg.Market.Symbol, string(u.Timeframe), u.Bar.CloseTime, u.Bar.Close)
	if err := s.refreshHistory(ctx, u.Timeframe); err != nil {
		// The promoted stream bar stays authoritative enough to scan on.
		s.log.Warn().Err(err).Str("timeframe", string(u.Timeframe)).Msg("history refetch failed")
	}
	s.requestScan()
}

// requestScan queues a scan; a queue already holding one absorbs the request.
func (s *Scanner) requestScan() {
	select {
	case s.scanCh <- struct{}{}:
	default:
	}
}

func (s *Scanner) scanLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.scanCh:
			if err := s.scan(ctx); err != nil {
				s.log.Error().Err(err).Msg("scan failed")
			}
		}
	}
}

func (s *Scanner) scan(ctx context.Context) error {
	start := time.Now()
	views := s.cache.MergedViews()
	for _, tf := range s.timeframes {
		if _, ok := views[tf]; !ok {
			// Timeframes with no data yet still get a report entry.
			views[tf] = nil
		}
	}

	rep := s.assembler.Assemble(s.cfg.Market.Symbol, views)

	patterns := 0
	for _, tr := range rep.Timeframes {
		patterns += len(tr.Candlesticks) + len(tr.ChartPatterns) + len(tr.StructureEvents)
		for _, p := range tr.Candlesticks {
			logging.LogPattern(s.log, rep.Symbol, string(tr.Timeframe), p.Label())
		}
		for _, p := range tr.ChartPatterns {
			logging.LogPattern(s.log, rep.Symbol, string(tr.Timeframe), p.Label())
		}
		for _, p := range tr.StructureEvents {
			logging.LogPattern(s.log, rep.Symbol, string(tr.Timeframe), p.Label())
		}
	}
	logging.LogScan(s.log, rep.Symbol, len(rep.Timeframes), patterns, time.Since(start))

	// The notifier decides delivery; with notifications disabled it holds no
	// channels, and the one-shot command installs a terminal writer.
	return s.notifier.SendReport(ctx, rep)
}
