package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"candle-scanner/internal/config"
)

func testApp() (*config.Config, zerolog.Logger) {
	cfg := &config.Config{
		Market: config.MarketConfig{
			Symbol:     "BTCUSDT",
			Timeframes: []string{"1h"},
			BarLimit:   100,
		},
		Scan: config.ScanConfig{Schedule: "@every 5m"},
	}
	return cfg, zerolog.Nop()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg, logger := testApp()
	root := NewRootCmd(cfg, logger)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Fatalf("output missing version: %q", out)
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["version"] != Version {
		t.Fatalf("version = %q, want %q", got["version"], Version)
	}
}

func TestConfigValidateCommand(t *testing.T) {
	out, err := execute(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "valid") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "notifications are disabled") {
		t.Fatalf("missing disabled-notifications warning: %q", out)
	}
}

func TestConfigValidateCommandRejectsBadConfig(t *testing.T) {
	cfg, logger := testApp()
	cfg.Market.Symbol = ""
	root := NewRootCmd(cfg, logger)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"config", "validate"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigShowCommand(t *testing.T) {
	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "BTCUSDT") {
		t.Fatalf("output missing symbol: %q", out)
	}
}
