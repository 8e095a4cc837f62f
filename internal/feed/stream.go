package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	cerrors "candle-scanner/internal/errors"
	"candle-scanner/internal/models"
)

// LiveUpdate is one kline push from the stream.
type LiveUpdate struct {
	Timeframe models.Timeframe
	Bar       models.Bar
}

// Stream consumes the exchange's combined kline websocket for one symbol
// across several timeframes. It reconnects with capped exponential backoff
// and resubscribes after every reconnect; Run returns only when the context
// is cancelled.
type Stream struct {
	url        string
	symbol     string
	timeframes []models.Timeframe
	log        zerolog.Logger

	onUpdate func(LiveUpdate)
	onError  func(error)

	baseDelay time.Duration
	maxDelay  time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a stream client for the given websocket endpoint
// (e.g. wss://stream.binance.com:9443/ws).
func NewStream(url, symbol string, tfs []models.Timeframe, log zerolog.Logger) *Stream {
	return &Stream{
		url:        url,
		symbol:     symbol,
		timeframes: tfs,
		log:        log,
		baseDelay:  time.Second,
		maxDelay:   time.Minute,
	}
}

// OnUpdate sets the handler invoked for every kline push. Must be set
// before Run.
func (s *Stream) OnUpdate(fn func(LiveUpdate)) {
	s.onUpdate = fn
}

// OnError sets the handler invoked for stream-level errors.
func (s *Stream) OnError(fn func(error)) {
	s.onError = fn
}

// Connected reports whether the stream currently holds an open connection.
func (s *Stream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Run connects, subscribes and consumes the stream until ctx is cancelled,
// reconnecting on any failure.
func (s *Stream) Run(ctx context.Context) error {
	delay := s.baseDelay
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.reportError(err)
			s.log.Warn().Err(err).Dur("retry_in", delay).Msg("stream disconnected")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

func (s *Stream) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return cerrors.NewFeedError(s.url, s.symbol, err)
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.connected = false
		s.mu.Unlock()
	}()

	if err := s.subscribe(conn); err != nil {
		return cerrors.NewFeedError(s.url, s.symbol, err)
	}
	s.log.Info().Str("symbol", s.symbol).Int("streams", len(s.timeframes)).Msg("stream subscribed")

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return cerrors.NewFeedError(s.url, s.symbol, err)
		}
		update, ok, err := parseKlineEvent(payload)
		if err != nil {
			s.reportError(err)
			continue
		}
		if ok && s.onUpdate != nil {
			s.onUpdate(update)
		}
	}
}

func (s *Stream) subscribe(conn *websocket.Conn) error {
	params := make([]string, 0, len(s.timeframes))
	for _, tf := range s.timeframes {
		params = append(params, fmt.Sprintf("%s@kline_%s", strings.ToLower(s.symbol), tf))
	}
	req := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}
	return conn.WriteJSON(req)
}

func (s *Stream) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

// klineEvent is the stream's kline push payload.
type klineEvent struct {
	EventType   string  `json:"e"`
	EventMillis int64   `json:"E"`
	Symbol      string  `json:"s"`
	Kline     klineV1 `json:"k"`
}

type klineV1 struct {
	OpenMillis  int64  `json:"t"`
	CloseMillis int64  `json:"T"`
	Interval    string `json:"i"`
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Close       string `json:"c"`
	Volume      string `json:"v"`
	IsFinal     bool   `json:"x"`
}

// parseKlineEvent decodes one stream payload. Non-kline messages (such as
// subscription acks) report ok=false without an error.
func parseKlineEvent(payload []byte) (LiveUpdate, bool, error) {
	var ev klineEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return LiveUpdate{}, false, fmt.Errorf("decoding stream payload: %w", err)
	}
	if ev.EventType != "kline" {
		return LiveUpdate{}, false, nil
	}

	bar := models.Bar{
		OpenTime:  time.UnixMilli(ev.Kline.OpenMillis).UTC(),
		CloseTime: time.UnixMilli(ev.Kline.CloseMillis).UTC(),
		IsFinal:   ev.Kline.IsFinal,
	}
	var err error
	if bar.Open, err = strconv.ParseFloat(ev.Kline.Open, 64); err != nil {
		return LiveUpdate{}, false, fmt.Errorf("kline open: %w", err)
	}
	if bar.High, err = strconv.ParseFloat(ev.Kline.High, 64); err != nil {
		return LiveUpdate{}, false, fmt.Errorf("kline high: %w", err)
	}
	if bar.Low, err = strconv.ParseFloat(ev.Kline.Low, 64); err != nil {
		return LiveUpdate{}, false, fmt.Errorf("kline low: %w", err)
	}
	if bar.Close, err = strconv.ParseFloat(ev.Kline.Close, 64); err != nil {
		return LiveUpdate{}, false, fmt.Errorf("kline close: %w", err)
	}
	if bar.Volume, err = strconv.ParseFloat(ev.Kline.Volume, 64); err != nil {
		return LiveUpdate{}, false, fmt.Errorf("kline volume: %w", err)
	}
	return LiveUpdate{Timeframe: models.Timeframe(ev.Kline.Interval), Bar: bar}, true, nil
}
