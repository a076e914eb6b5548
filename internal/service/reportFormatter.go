package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/pkg/telegram"
)

const (
	reportTimeLayout = "2006-01-02 15:04:05"
	reportHeader     = "📊 *Fleet Performance Insights*\n\n"
)

// ReportFormatter renders insight rows as a Telegram MarkdownV2 message.
type ReportFormatter struct {
	idleTimeUnit string
	maxLength    int
}

func NewReportFormatter(idleTimeUnit string) *ReportFormatter {
	return &ReportFormatter{idleTimeUnit: idleTimeUnit, maxLength: telegram.MaxMessageLength}
}

func (f *ReportFormatter) Format(rows []entity.VehicleMetric, generatedAt time.Time) string {
	text, _ := f.Render(rows, generatedAt)
	return text
}

// Render is Format that also reports how many leading rows made it into the
// message. Rows that would push the text past the Bot API limit are replaced
// by a single "more vehicles" line; the first row is always included.
func (f *ReportFormatter) Render(rows []entity.VehicleMetric, generatedAt time.Time) (string, int) {
	footer := updatedAt(generatedAt)
	budget := f.maxLength - telegram.MessageLength(reportHeader) - telegram.MessageLength(footer)

	blocks := make([]string, 0, len(rows))
	used := 0
	for i, row := range rows {
		block := f.row(row)
		size := telegram.MessageLength(block)

		reserve := 0
		if remaining := len(rows) - i - 1; remaining > 0 {
			reserve = telegram.MessageLength(omittedLine(remaining))
		}
		if i > 0 && used+size+reserve > budget {
			break
		}
		blocks = append(blocks, block)
		used += size
	}

	var b strings.Builder
	b.WriteString(reportHeader)
	for _, block := range blocks {
		b.WriteString(block)
	}
	if omitted := len(rows) - len(blocks); omitted > 0 {
		b.WriteString(omittedLine(omitted))
	}
	b.WriteString(footer)

	return b.String(), len(blocks)
}

func (f *ReportFormatter) row(row entity.VehicleMetric) string {
	return fmt.Sprintf("🚚 Vehicle: `%s`\n", telegram.EscapeCode(row.VehicleID)) +
		fmt.Sprintf("• Avg Speed: %s km/h\n", number(row.AvgSpeed)) +
		fmt.Sprintf("• Total Distance: %s km\n", number(row.TotalDistance)) +
		fmt.Sprintf("• Idle Time: %s %s\n\n", number(row.AvgIdleTime), telegram.EscapeMarkdownV2(f.idleTimeUnit))
}

// FormatTestMessage is the fixed message of the delivery check.
func (f *ReportFormatter) FormatTestMessage(generatedAt time.Time) string {
	return "✅ *FleetInsight test message*\n\n" +
		"Telegram delivery is working\\.\n" +
		updatedAt(generatedAt)
}

func omittedLine(n int) string {
	return fmt.Sprintf("…and %d more vehicles not shown\n\n", n)
}

func updatedAt(t time.Time) string {
	return "🕒 Updated at: " + telegram.EscapeMarkdownV2(t.Format(reportTimeLayout))
}

func number(v float64) string {
	return telegram.EscapeMarkdownV2(fmt.Sprintf("%.2f", v))
}
