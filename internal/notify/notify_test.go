package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/config"
	"candle-scanner/internal/models"
	"candle-scanner/internal/report"
)

func sampleReport() *report.Report {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &report.Report{
		Symbol:      "BTCUSDT",
		GeneratedAt: t0,
		Timeframes: []report.TimeframeReport{
			{
				Timeframe: models.Timeframe1Hour,
				Bar: models.Bar{
					OpenTime:  t0.Add(-time.Hour),
					CloseTime: t0,
					Open:      100, High: 105, Low: 99, Close: 104,
					Volume: 1234, IsFinal: true,
				},
				Properties: models.ComputeProperties(models.Bar{
					Open: 100, High: 105, Low: 99, Close: 104,
				}),
				Candlesticks: []analysis.Pattern{{
					Kind:      analysis.Hammer,
					Type:      analysis.PatternTypeCandlestick,
					Direction: analysis.PatternBullish,
					Context:   analysis.TrendDown,
				}},
				StructureEvents: []analysis.Pattern{{
					Kind:      analysis.BullishBOS,
					Type:      analysis.PatternTypeStructure,
					Direction: analysis.PatternBullish,
				}},
				Support: []analysis.Level{
					{Price: 98.5, Kind: analysis.LevelSupport, Touches: 3, Proximate: true},
				},
				Confirmations: []string{"1H trend aligned with 4H Uptrend"},
			},
			{
				Timeframe: models.Timeframe4Hour,
				Notes:     []string{"no data"},
			},
		},
	}
}

func TestFormatReport(t *testing.T) {
	got := FormatReport(sampleReport())

	for _, want := range []string{
		"BTCUSDT",
		"[1H]",
		"Hammer (in Downtrend context)",
		"Bullish BOS (New HH)",
		"support: 98.5 (3 touches) *near price*",
		"confirmation: 1H trend aligned with 4H Uptrend",
		"[4H]",
		"note: no data",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatted report missing %q:\n%s", want, got)
		}
	}
}

func TestBuildEmbedPayload(t *testing.T) {
	payload := buildEmbedPayload(sampleReport())

	embeds, ok := payload["embeds"].([]map[string]interface{})
	if !ok || len(embeds) != 1 {
		t.Fatalf("payload embeds = %v", payload["embeds"])
	}
	if title := embeds[0]["title"]; title != "Market Structure Scan: BTCUSDT" {
		t.Fatalf("title = %v", title)
	}
	desc, _ := embeds[0]["description"].(string)
	if len(desc) == 0 || len(desc) > discordDescriptionLimit {
		t.Fatalf("description length = %d", len(desc))
	}
}

func TestTerminalNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewTerminalNotifierWithWriter(&buf)

	if err := n.SendReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if !strings.Contains(buf.String(), "BTCUSDT") {
		t.Fatalf("terminal output missing symbol:\n%s", buf.String())
	}
}

func TestNewMultiNotifierHonorsEnabledGate(t *testing.T) {
	cfg := &config.NotificationConfig{
		Enabled: false,
		Webhook: config.WebhookConfig{Enabled: true, URL: "https://example.com/hook"},
	}
	mn := NewMultiNotifier(cfg)
	if len(mn.channels) != 0 {
		t.Fatalf("disabled notifications built %d channels", len(mn.channels))
	}
	if err := mn.SendReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("no-op SendReport: %v", err)
	}

	cfg.Enabled = true
	if mn = NewMultiNotifier(cfg); len(mn.channels) != 1 {
		t.Fatalf("enabled webhook built %d channels, want 1", len(mn.channels))
	}
}

func TestMultiNotifierCollectsFailures(t *testing.T) {
	mn := &MultiNotifier{}
	mn.AddChannel(failingChannel{})
	mn.AddChannel(NewTerminalNotifierWithWriter(&bytes.Buffer{}))

	err := mn.SendReport(context.Background(), sampleReport())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want the failing channel's error", err)
	}
}

type failingChannel struct{}

func (failingChannel) Name() string    { return "failing" }
func (failingChannel) IsEnabled() bool { return true }
func (failingChannel) SendReport(context.Context, *report.Report) error {
	return errors.New("boom")
}
