package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/snapshot"
)

// CurrencySymbol prefixes every rendered amount.
var CurrencySymbol = "₱"

// FormatMoney renders an amount with two decimals and thousands separators.
func FormatMoney(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + CurrencySymbol + groupThousands(whole) + "." + frac
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	if n < 0 {
		return "-" + groupThousands(fmt.Sprint(-n))
	}
	return groupThousands(fmt.Sprint(n))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDelta renders a percentage change such as "+20.0%". A nil delta
// renders as an empty string.
func FormatDelta(delta *float64) string {
	if delta == nil {
		return ""
	}
	sign := ""
	if *delta > 0 {
		sign = "+"
	}
	text := fmt.Sprintf("%s%.1f%%", sign, *delta)
	if *delta >= 0 {
		return SuccessStyle.Render(UpIcon + " " + text)
	}
	return ErrorStyle.Render(DownIcon + " " + text)
}

// RenderKPIs renders the four headline cards side by side. A non-empty label
// names the location the numbers were computed for.
func RenderKPIs(cmp model.Comparison, label string) string {
	cards := []struct {
		delta *float64
		title string
		value string
	}{
		{title: "Total Customers", value: FormatCount(cmp.Current.TotalCustomers), delta: cmp.TotalCustomersDelta},
		{title: "Average Spend", value: FormatMoney(cmp.Current.AvgSpend), delta: cmp.AvgSpendDelta},
		{title: "At-Risk Customers", value: FormatCount(cmp.Current.AtRiskCount), delta: cmp.AtRiskCountDelta},
		{title: "Champion Customers", value: FormatCount(cmp.Current.ChampionCount), delta: cmp.ChampionCountDelta},
	}

	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		lines := []string{}
		if label != "" {
			lines = append(lines, SubtleStyle.Render(strings.ToUpper(label)))
		}
		lines = append(lines, SubtleStyle.Render(c.title))
		value := BoldStyle.Render(c.value)
		if d := FormatDelta(c.delta); d != "" {
			value += " " + d
		}
		lines = append(lines, value)
		rendered = append(rendered, CardStyle.Render(strings.Join(lines, "\n")))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// RenderSegments renders one table row per segment in cascade order.
func RenderSegments(s *model.Snapshot) string {
	averages := snapshot.SegmentAverages(s)
	total := s.Len()

	rows := make([][]string, 0, len(model.SegmentOrder))
	for _, name := range model.SegmentOrder {
		count := s.Count(name)
		share := 0.0
		if total > 0 {
			share = float64(count) / float64(total) * 100
		}
		rows = append(rows, []string{
			SegmentStyle(name).Render(string(name)),
			FormatCount(count),
			fmt.Sprintf("%.1f%%", share),
			FormatMoney(averages[name]),
			SubtleStyle.Render(name.Description()),
		})
	}

	return renderTable([]string{"Segment", "Customers", "Share", "Avg Spend", "Description"}, rows)
}

// RenderDrill renders the customer table of one segment.
func RenderDrill(name model.SegmentName, customers []model.CustomerSummary) string {
	title := SegmentStyle(name).Render(fmt.Sprintf("%s (%s shown)", name, FormatCount(len(customers))))
	if len(customers) == 0 {
		return title + "\n" + SubtleStyle.Render("No customers match the current filters.")
	}

	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			c.ID,
			fmt.Sprintf("%d days ago", c.LastVisit),
			FormatCount(c.Visits),
			FormatMoney(c.Spend),
		})
	}
	return title + "\n" + renderTable([]string{"Customer ID", "Last Visit", "Visits", "Total Spend"}, rows)
}

// RenderInsights renders the retention and growth recommendations.
func RenderInsights(insights []model.Insight) string {
	var retention, growth []string
	for _, in := range insights {
		line := BoldStyle.Render(in.Title) + "\n  " + in.Message
		if in.Kind == model.InsightGrowth {
			growth = append(growth, line)
		} else {
			retention = append(retention, line)
		}
	}

	var sections []string
	if len(retention) > 0 {
		sections = append(sections, RenderBox("Retention", strings.Join(retention, "\n\n")))
	}
	if len(growth) > 0 {
		sections = append(sections, RenderBox("Growth", strings.Join(growth, "\n\n")))
	}
	if len(sections) == 0 {
		return SubtleStyle.Render("No recommendations for this snapshot.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderHistory renders the stored analyses list.
func RenderHistory(summaries []model.AnalysisSummary) string {
	if len(summaries) == 0 {
		return SubtleStyle.Render("No saved analyses yet.")
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.ID,
			s.AnalysisDate.Local().Format(time.DateTime),
			s.FileName,
		})
	}
	return renderTable([]string{"ID", "Analyzed", "File"}, rows)
}

// RenderSettings renders the classification thresholds.
func RenderSettings(s model.SegmentSettings) string {
	rows := [][]string{
		{"Champion recency", fmt.Sprintf("≤ %d days", s.ChampionRecency)},
		{"Champion frequency", fmt.Sprintf("≥ %d visits", s.ChampionFrequency)},
		{"At-risk recency", fmt.Sprintf("> %d days", s.AtRiskRecency)},
	}
	return renderTable([]string{"Setting", "Value"}, rows)
}

// RenderStats summarizes how the uploaded rows were handled.
func RenderStats(stats model.RowStats) string {
	msg := fmt.Sprintf("%s rows read, %s used", FormatCount(stats.Read), FormatCount(stats.Accepted))
	if stats.FilteredOut > 0 {
		msg += fmt.Sprintf(", %s outside the selected location", FormatCount(stats.FilteredOut))
	}
	if skipped := stats.Skipped(); skipped > 0 {
		msg += fmt.Sprintf(", %s skipped (missing customer: %d, bad date: %d, bad amount: %d)",
			FormatCount(skipped), stats.MissingCustomer, stats.BadDate, stats.BadAmount)
	}
	return SubtleStyle.Render(msg)
}

// renderTable lays out rows in padded columns under a bold header.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = TableCellStyle.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return b.String()
}
