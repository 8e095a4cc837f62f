package notify

import (
	"fmt"
	"strings"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/report"
)

// FormatReport renders the aggregate report as plain text, one block per
// timeframe.
func FormatReport(rep *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s @ %s\n", rep.Symbol, rep.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	for _, tr := range rep.Timeframes {
		fmt.Fprintf(&b, "\n[%s]\n", tr.Timeframe.Upper())

		if tr.Bar.OpenTime.IsZero() {
			writeLines(&b, "note", tr.Notes)
			continue
		}

		state := "final"
		if !tr.Bar.IsFinal {
			state = "live"
		}
		fmt.Fprintf(&b, "  %s bar O=%.8g H=%.8g L=%.8g C=%.8g V=%.8g\n",
			state, tr.Bar.Open, tr.Bar.High, tr.Bar.Low, tr.Bar.Close, tr.Bar.Volume)
		fmt.Fprintf(&b, "  body/range=%.2f upper=%.2f lower=%.2f\n",
			tr.Properties.BodyRatio, tr.Properties.UpperRatio, tr.Properties.LowerRatio)

		writePatterns(&b, "candlestick", tr.Candlesticks)
		writePatterns(&b, "chart", tr.ChartPatterns)
		writePatterns(&b, "structure", tr.StructureEvents)
		writeLevels(&b, "support", tr.Support)
		writeLevels(&b, "resistance", tr.Resistance)
		writeLines(&b, "confirmation", tr.Confirmations)
		if tr.LiveNarrative != "" {
			fmt.Fprintf(&b, "  live: %s\n", tr.LiveNarrative)
		}
		writeLines(&b, "note", tr.Notes)
	}
	return b.String()
}

func writePatterns(b *strings.Builder, section string, patterns []analysis.Pattern) {
	for _, p := range patterns {
		line := p.Label()
		if p.Description != "" {
			line += " (" + p.Description + ")"
		}
		fmt.Fprintf(b, "  %s: %s\n", section, line)
	}
}

func writeLevels(b *strings.Builder, section string, levels []analysis.Level) {
	for _, l := range levels {
		marker := ""
		if l.Proximate {
			marker = " *near price*"
		}
		fmt.Fprintf(b, "  %s: %.8g (%d touches)%s\n", section, l.Price, l.Touches, marker)
	}
}

func writeLines(b *strings.Builder, section string, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(b, "  %s: %s\n", section, line)
	}
}
