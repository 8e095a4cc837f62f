// Package feed acquires bars from the exchange: an authoritative REST
// history fetcher and a websocket live stream.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	cerrors "candle-scanner/internal/errors"
	"candle-scanner/internal/logging"
	"candle-scanner/internal/models"
	"candle-scanner/internal/performance"
	"candle-scanner/pkg/utils"
)

// HistoryFetcher provides finalized bar history for a symbol and timeframe.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error)
}

// BinanceClient fetches kline history from the Binance REST API.
type BinanceClient struct {
	baseURL    string
	httpClient *http.Client
	retry      utils.RetryConfig
	limiter    *performance.RateLimiter
	log        zerolog.Logger
}

// NewBinanceClient creates a REST client for the given base URL
// (e.g. https://api.binance.com).
func NewBinanceClient(baseURL string, log zerolog.Logger) *BinanceClient {
	return &BinanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retry:      utils.DefaultRetryConfig(),
		// Klines carry weight 2 of a 6000-per-minute budget; 10 rps with a
		// burst covering a full startup load stays far under it.
		limiter: performance.NewRateLimiter(10, 20),
		log:     log,
	}
}

// FetchHistory fetches up to limit finalized klines, oldest first. The still
// forming last kline the API returns is dropped so every bar is final. The
// call retries transient failures with exponential backoff.
func (c *BinanceClient) FetchHistory(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error) {
	if !tf.Known() {
		return nil, cerrors.Wrapf(cerrors.ErrUnknownTimeframe, "%q", tf)
	}

	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d", c.baseURL, symbol, tf, limit)
	return utils.RetryWithResult(ctx, c.retry, func() ([]models.Bar, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		start := time.Now()
		bars, err := c.fetchKlines(ctx, url, tf)
		logging.LogAPICall(c.log, http.MethodGet, url, time.Since(start), err)
		if err != nil {
			return nil, cerrors.NewFeedError(url, symbol, err)
		}
		return bars, nil
	})
}

func (c *BinanceClient) fetchKlines(ctx context.Context, url string, tf models.Timeframe) ([]models.Bar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	bars, err := parseKlines(body)
	if err != nil {
		return nil, err
	}
	// The API includes the currently forming kline as the last row.
	if n := len(bars); n > 0 && time.Now().Before(bars[n-1].CloseTime) {
		bars = bars[:n-1]
	}
	for i := range bars {
		bars[i].IsFinal = true
	}
	return bars, nil
}

// parseKlines decodes the REST kline rows:
// [openTime, "open", "high", "low", "close", "volume", closeTime, ...].
func parseKlines(data []byte) ([]models.Bar, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding klines: %w", err)
	}

	bars := make([]models.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("kline row %d has %d fields", i, len(row))
		}
		var openMillis, closeMillis int64
		if err := json.Unmarshal(row[0], &openMillis); err != nil {
			return nil, fmt.Errorf("kline row %d open time: %w", i, err)
		}
		if err := json.Unmarshal(row[6], &closeMillis); err != nil {
			return nil, fmt.Errorf("kline row %d close time: %w", i, err)
		}
		var err error
		bar := models.Bar{
			OpenTime:  time.UnixMilli(openMillis).UTC(),
			CloseTime: time.UnixMilli(closeMillis).UTC(),
		}
		if bar.Open, err = parsePrice(row[1]); err != nil {
			return nil, fmt.Errorf("kline row %d open: %w", i, err)
		}
		if bar.High, err = parsePrice(row[2]); err != nil {
			return nil, fmt.Errorf("kline row %d high: %w", i, err)
		}
		if bar.Low, err = parsePrice(row[3]); err != nil {
			return nil, fmt.Errorf("kline row %d low: %w", i, err)
		}
		if bar.Close, err = parsePrice(row[4]); err != nil {
			return nil, fmt.Errorf("kline row %d close: %w", i, err)
		}
		if bar.Volume, err = parsePrice(row[5]); err != nil {
			return nil, fmt.Errorf("kline row %d volume: %w", i, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parsePrice decodes the API's quoted decimal strings.
func parsePrice(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
