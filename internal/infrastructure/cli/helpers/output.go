package helpers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/doeshing/orbit-go/internal/app"
	"github.com/doeshing/orbit-go/internal/application/registry"
	"github.com/doeshing/orbit-go/internal/domain"
)

var (
	highlight = color.New(color.FgCyan).SprintFunc()
	success   = color.New(color.FgGreen).SprintFunc()
	failure   = color.New(color.FgRed).SprintFunc()
	warning   = color.New(color.FgYellow).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
)

// RiskLabel colors a risk level for terminal output.
func RiskLabel(level domain.RiskLevel) string {
	label := strings.ToUpper(string(level))
	switch level {
	case domain.RiskSafe:
		return success(label)
	case domain.RiskModerate:
		return warning(label)
	case domain.RiskDangerous:
		return color.New(color.FgHiRed).Sprint(label)
	case domain.RiskCritical:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	default:
		return label
	}
}

// RenderActionList prints one line per action, grouped by category.
func RenderActionList(out io.Writer, actions []*domain.ActionDefinition, details bool) {
	if len(actions) == 0 {
		fmt.Fprintln(out, "No actions found.")
		return
	}
	var categories []string
	grouped := map[string][]*domain.ActionDefinition{}
	for _, action := range actions {
		if _, seen := grouped[action.Category]; !seen {
			categories = append(categories, action.Category)
		}
		grouped[action.Category] = append(grouped[action.Category], action)
	}
	for i, category := range categories {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d)\n", highlight(category), len(grouped[category]))
		for _, action := range grouped[category] {
			fmt.Fprintf(out, "  %-28s %-9s %s\n", action.Name, RiskLabel(action.Risk), action.Description)
			if details {
				for _, p := range action.Parameters {
					fmt.Fprintf(out, "      %s\n", faint(describeParameter(p)))
				}
			}
		}
	}
}

// RenderActionInfo prints the full description of one action.
func RenderActionInfo(out io.Writer, action *domain.ActionDefinition) {
	fmt.Fprintf(out, "%s\n", highlight(action.Name))
	fmt.Fprintf(out, "  %s\n\n", action.Description)
	fmt.Fprintf(out, "Category: %s\n", action.Category)
	fmt.Fprintf(out, "Risk:     %s\n", RiskLabel(action.Risk))
	if action.Version != "" {
		fmt.Fprintf(out, "Version:  %s\n", action.Version)
	}
	if action.Author != "" {
		fmt.Fprintf(out, "Author:   %s\n", action.Author)
	}
	if action.ParserSpec != nil && action.ParserSpec.Kind != "" {
		fmt.Fprintf(out, "Parser:   %s\n", action.ParserSpec.Kind)
	}
	if len(action.Parameters) == 0 {
		fmt.Fprintln(out, "Parameters: none")
	} else {
		fmt.Fprintln(out, "Parameters:")
		for _, p := range action.Parameters {
			fmt.Fprintf(out, "  %s\n", describeParameter(p))
			if p.Description != "" {
				fmt.Fprintf(out, "      %s\n", faint(p.Description))
			}
		}
	}
	for i, example := range action.Examples {
		if i == 0 {
			fmt.Fprintln(out, "Examples:")
		}
		fmt.Fprintf(out, "  input:  %s\n", app.FormatValue(example.Input))
		if example.Output != nil {
			fmt.Fprintf(out, "  output: %s\n", app.FormatValue(example.Output))
		}
	}
}

func describeParameter(p domain.ParameterSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s", p.Name, p.Type)
	if p.Required {
		b.WriteString(", required")
	}
	b.WriteString(")")
	if p.Default != nil {
		fmt.Fprintf(&b, " default=%v", p.Default)
	}
	if len(p.Enum) > 0 {
		values := make([]string, 0, len(p.Enum))
		for _, v := range p.Enum {
			values = append(values, fmt.Sprint(v))
		}
		fmt.Fprintf(&b, " one of [%s]", strings.Join(values, ", "))
	}
	return b.String()
}

// RenderResult prints the parsed value of a successful invocation.
func RenderResult(out io.Writer, result domain.InvocationResult, verbose bool) {
	text := app.FormatValue(result.Value)
	if text != "" {
		fmt.Fprintln(out, text)
	}
	if verbose {
		fmt.Fprintf(out, "%s\n", faint(fmt.Sprintf("id=%s attempts=%d duration=%s", result.ID, result.Attempts, result.Duration.Round(time.Millisecond))))
	}
}

// RenderError prints err with any remediation hint on its own line.
func RenderError(out io.Writer, err error) {
	if err == nil {
		return
	}
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) && execErr.Hint != "" {
		message := strings.TrimSuffix(err.Error(), "\n"+execErr.Hint)
		fmt.Fprintf(out, "%s %s\n", failure("Error:"), message)
		fmt.Fprintf(out, "%s %s\n", warning("Hint:"), execErr.Hint)
		return
	}
	fmt.Fprintf(out, "%s %v\n", failure("Error:"), err)
}

// RenderHistory prints history records, newest first, with relative times.
func RenderHistory(out io.Writer, records []domain.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No history recorded yet.")
		return
	}
	for _, rec := range records {
		status := success("ok")
		if !rec.Success {
			status = failure("fail")
		}
		fmt.Fprintf(out, "%-14s %-4s %-28s %-9s %s\n",
			humanize.Time(rec.Timestamp),
			status,
			rec.Action,
			RiskLabel(rec.RiskLevel),
			faint(fmt.Sprintf("%dms", rec.ExecutionTimeMS)))
		if rec.Error != "" {
			fmt.Fprintf(out, "    %s\n", firstLine(rec.Error))
		}
	}
}

// RenderHistorySummary prints aggregate history statistics.
func RenderHistorySummary(out io.Writer, summary HistorySummary) {
	if summary.Total == 0 {
		fmt.Fprintln(out, "No history recorded yet.")
		return
	}
	fmt.Fprintf(out, "Invocations:  %s\n", humanize.Comma(int64(summary.Total)))
	fmt.Fprintf(out, "Success rate: %.1f%%\n", CalculateSuccessRate(summary.Successful, summary.Total))
	fmt.Fprintf(out, "Retried:      %d\n", summary.Retried)
	fmt.Fprintf(out, "Average time: %s\n", time.Duration(summary.AverageMS)*time.Millisecond)

	fmt.Fprintln(out, "Top actions:")
	for _, stat := range CalculateTopActions(summary.ActionCounts, 5) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Action, stat.Count)
	}
	if len(summary.FailureCounts) > 0 {
		fmt.Fprintln(out, "Most failures:")
		for _, stat := range CalculateTopActions(summary.FailureCounts, 3) {
			fmt.Fprintf(out, "  %s (%d)\n", stat.Action, stat.Count)
		}
	}
	fmt.Fprintln(out, "Risk distribution:")
	for _, level := range domain.RiskLevels {
		if count := summary.RiskCounts[level]; count > 0 {
			fmt.Fprintf(out, "  %s: %d\n", RiskLabel(level), count)
		}
	}
}

// RenderRegistryStats prints the catalog statistics.
func RenderRegistryStats(out io.Writer, stats registry.Stats, categories []string) {
	fmt.Fprintf(out, "Actions:    %d\n", stats.Total)
	fmt.Fprintf(out, "Categories: %d (%s)\n", stats.Categories, strings.Join(categories, ", "))
	fmt.Fprintln(out, "By risk:")
	for _, level := range domain.RiskLevels {
		fmt.Fprintf(out, "  %-9s %d\n", RiskLabel(level), stats.ByRisk[level])
	}
}

// RenderHealthReport prints doctor checks and reports whether any failed.
func RenderHealthReport(out io.Writer, report domain.HealthReport) bool {
	for _, check := range report.Checks {
		var status string
		switch check.Status {
		case domain.HealthOK:
			status = success("OK")
		case domain.HealthWarn:
			status = warning("WARN")
		default:
			status = failure("ERROR")
		}
		fmt.Fprintf(out, "[%s] %s - %s\n", status, check.Name, check.Details)
	}
	return report.Failed()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
