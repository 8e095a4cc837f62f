package feed

import (
	"testing"
	"time"

	"candle-scanner/internal/models"
)

func TestParseKlines(t *testing.T) {
	payload := []byte(`[
		[1700000000000, "37000.10", "37100.00", "36950.50", "37050.00", "123.45", 1700000059999],
		[1700000060000, "37050.00", "37080.00", "37000.00", "37020.25", "98.70", 1700000119999]
	]`)

	bars, err := parseKlines(payload)
	if err != nil {
		t.Fatalf("parseKlines: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}

	first := bars[0]
	if got := first.OpenTime; !got.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Errorf("open time = %v", got)
	}
	if !first.CloseTime.After(first.OpenTime) {
		t.Error("close time not after open time")
	}
	if first.Open != 37000.10 || first.High != 37100.00 || first.Low != 36950.50 ||
		first.Close != 37050.00 || first.Volume != 123.45 {
		t.Errorf("unexpected OHLCV: %+v", first)
	}
}

func TestParseKlinesMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not an array", payload: `{"code": -1121}`},
		{name: "short row", payload: `[[1700000000000, "1.0"]]`},
		{name: "bad price", payload: `[[1700000000000, "x", "1", "1", "1", "1", 1700000059999]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseKlines([]byte(tt.payload)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseKlineEvent(t *testing.T) {
	payload := []byte(`{
		"e": "kline", "E": 1700000030000, "s": "BTCUSDT",
		"k": {
			"t": 1700000000000, "T": 1700000059999, "s": "BTCUSDT", "i": "1m",
			"o": "37000.10", "c": "37020.00", "h": "37050.00", "l": "36990.00",
			"v": "42.5", "x": false
		}
	}`)

	update, ok, err := parseKlineEvent(payload)
	if err != nil {
		t.Fatalf("parseKlineEvent: %v", err)
	}
	if !ok {
		t.Fatal("expected a kline update")
	}
	if update.Timeframe != models.Timeframe1Min {
		t.Errorf("timeframe = %v, want 1m", update.Timeframe)
	}
	if update.Bar.IsFinal {
		t.Error("x=false must map to a non-final bar")
	}
	if update.Bar.Close != 37020.00 || update.Bar.Volume != 42.5 {
		t.Errorf("unexpected bar: %+v", update.Bar)
	}
}

func TestParseKlineEventFinalFlag(t *testing.T) {
	payload := []byte(`{
		"e": "kline", "s": "BTCUSDT",
		"k": {"t": 1700000000000, "T": 1700000059999, "i": "1m",
			"o": "1", "c": "1", "h": "1", "l": "1", "v": "0", "x": true}
	}`)

	update, ok, err := parseKlineEvent(payload)
	if err != nil || !ok {
		t.Fatalf("parseKlineEvent: ok=%v err=%v", ok, err)
	}
	if !update.Bar.IsFinal {
		t.Error("x=true must map to a final bar")
	}
}

func TestParseKlineEventIgnoresAcks(t *testing.T) {
	_, ok, err := parseKlineEvent([]byte(`{"result": null, "id": 1}`))
	if err != nil {
		t.Fatalf("parseKlineEvent: %v", err)
	}
	if ok {
		t.Fatal("subscription ack must not produce an update")
	}
}
