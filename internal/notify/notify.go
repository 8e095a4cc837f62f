// Package notify delivers scan reports to their consumers.
package notify

import (
	"context"
	"fmt"
	"strings"

	"candle-scanner/internal/config"
	"candle-scanner/internal/report"
)

// Notifier delivers one aggregate scan report.
type Notifier interface {
	SendReport(ctx context.Context, rep *report.Report) error
}

// Channel is a single delivery target.
type Channel interface {
	Name() string
	IsEnabled() bool
	SendReport(ctx context.Context, rep *report.Report) error
}

// MultiNotifier fans a report out to every enabled channel. Channel failures
// are collected, not short-circuited: one channel being down never stops the
// others from delivering.
type MultiNotifier struct {
	channels []Channel
}

// NewMultiNotifier creates a notifier with the channels the configuration
// enables. With notifications disabled it carries no channels and SendReport
// is a no-op, so callers can always deliver through it.
func NewMultiNotifier(cfg *config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{}
	if cfg.Enabled && cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewDiscordNotifier(cfg.Webhook))
	}
	return mn
}

// AddChannel adds a delivery channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.channels = append(mn.channels, ch)
}

// SendReport delivers the report to all enabled channels.
func (mn *MultiNotifier) SendReport(ctx context.Context, rep *report.Report) error {
	var failures []string
	for _, ch := range mn.channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.SendReport(ctx, rep); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("notification failures: %s", strings.Join(failures, "; "))
	}
	return nil
}
