// Package console renders result tables for the terminal.
package console

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/journal"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func num(x float64) string { return strconv.FormatFloat(x, 'f', 3, 64) }

func ci(lo, hi float64) string { return fmt.Sprintf("[%s, %s]", num(lo), num(hi)) }

func render(title string, headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), t.Render())
}

// Summaries renders the primary outcome table. level labels the interval
// column.
func Summaries(rows []analysis.PosteriorSummary, level float64) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Parameter, num(r.Mean), ci(r.LowerCI, r.UpperCI), num(r.ProbPositive), num(r.ProbSignificant)})
	}
	return render("Primary Outcome", []string{"Parameter", "Mean", journal.IntervalLabel(level), "P(>0)", "P(>threshold)"}, data)
}

// Timepoints renders the biomarker effect table.
func Timepoints(rows []analysis.TimepointEffect, level float64) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{string(r.Timepoint), num(r.MeanEffect), ci(r.LowerCI, r.UpperCI), num(r.ProbPositive)})
	}
	return render("Biomarker Treatment Effect", []string{"Timepoint", "Mean", journal.IntervalLabel(level), "P(>0)"}, data)
}

// Subgroups renders the subgroup table.
func Subgroups(rows []analysis.SubgroupResult, level float64) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Subgroup, strconv.Itoa(r.N), num(r.EffectSize), ci(r.LowerCI, r.UpperCI), num(r.PValue)})
	}
	return render("Subgroup Analysis", []string{"Subgroup", "N", "Effect", journal.IntervalLabel(level), "P(<=0)"}, data)
}

// Report renders every table of a run followed by its run ID.
func Report(r journal.RunReport) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		Summaries(r.Summaries, r.CredibleLevel),
		"",
		Timepoints(r.Timepoints, r.CredibleLevel),
		"",
		Subgroups(r.Subgroups, r.CredibleLevel),
		noteStyle.Render("run "+r.RunID),
	)
}

// Runs renders the run list of a journal.
func Runs(runs []journal.Run) string {
	data := make([][]string, 0, len(runs))
	for _, r := range runs {
		data = append(data, []string{
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			strconv.Itoa(r.Patients),
			strconv.FormatUint(r.Seed, 10),
			r.ResultsDir,
		})
	}
	return render("Runs", []string{"Run ID", "Created", "Patients", "Seed", "Results"}, data)
}
