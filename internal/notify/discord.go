package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"candle-scanner/internal/config"
	"candle-scanner/internal/report"
	"candle-scanner/internal/resilience"
)

// Discord embed description limit.
const discordDescriptionLimit = 4096

// DiscordNotifier posts reports to a Discord webhook as a single embed.
type DiscordNotifier struct {
	url     string
	enabled bool
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

// NewDiscordNotifier creates a webhook notifier.
func NewDiscordNotifier(cfg config.WebhookConfig) *DiscordNotifier {
	return &DiscordNotifier{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: resilience.NewCircuitBreaker("discord-webhook", resilience.DefaultCircuitBreakerConfig()),
	}
}

// Name returns the name of the notifier.
func (d *DiscordNotifier) Name() string {
	return "discord"
}

// IsEnabled returns whether the notifier is enabled.
func (d *DiscordNotifier) IsEnabled() bool {
	return d.enabled
}

// SendReport posts the formatted report. Deliveries run behind a circuit
// breaker; a dead endpoint drops reports until it recovers instead of
// stalling every scan.
func (d *DiscordNotifier) SendReport(ctx context.Context, rep *report.Report) error {
	if !d.enabled {
		return nil
	}
	return d.breaker.Execute(ctx, func() error {
		return d.post(ctx, rep)
	})
}

func (d *DiscordNotifier) post(ctx context.Context, rep *report.Report) error {
	body, err := json.Marshal(buildEmbedPayload(rep))
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CandleScanner/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// buildEmbedPayload renders the report into Discord's embed shape, truncating
// the description to the embed limit.
func buildEmbedPayload(rep *report.Report) map[string]interface{} {
	description := FormatReport(rep)
	if len(description) > discordDescriptionLimit {
		description = description[:discordDescriptionLimit-3] + "..."
	}
	return map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("Market Structure Scan: %s", rep.Symbol),
				"description": description,
				"timestamp":   rep.GeneratedAt.UTC().Format(time.RFC3339),
			},
		},
	}
}
