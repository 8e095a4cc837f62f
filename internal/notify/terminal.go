package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"candle-scanner/internal/report"
)

// TerminalNotifier writes formatted reports to a terminal stream. It backs
// the one-shot scan command and doubles as a local mirror of webhook
// deliveries.
type TerminalNotifier struct {
	out io.Writer
}

// NewTerminalNotifier creates a notifier writing to stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{out: os.Stdout}
}

// NewTerminalNotifierWithWriter creates a notifier writing to w.
func NewTerminalNotifierWithWriter(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: w}
}

// Name returns the name of the notifier.
func (t *TerminalNotifier) Name() string {
	return "terminal"
}

// IsEnabled returns whether the notifier is enabled.
func (t *TerminalNotifier) IsEnabled() bool {
	return true
}

// SendReport writes the formatted report.
func (t *TerminalNotifier) SendReport(_ context.Context, rep *report.Report) error {
	_, err := fmt.Fprintln(t.out, FormatReport(rep))
	return err
}
