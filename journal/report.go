package journal

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"pct": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"base":     filepath.Base,
	"interval": IntervalLabel,
}

// IntervalLabel names a credible interval column, e.g. "95% CI". A zero
// level gives a bare "CI".
func IntervalLabel(level float64) string {
	if level <= 0 {
		return "CI"
	}
	return strconv.FormatFloat(math.Round(level*1000)/10, 'f', -1, 64) + "% CI"
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// FormatOrg renders the report as an Org-mode document.
func (r RunReport) FormatOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := orgTemplate.Execute(buf, r); err != nil {
		return "", fmt.Errorf("render org report: %w", err)
	}
	return buf.String(), nil
}

// WriteOrg renders the report to path.
func (r RunReport) WriteOrg(path string) error {
	s, err := r.FormatOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* TRIAL ANALYSIS {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:SEED:        {{.Seed}}
:PATIENTS:    {{.Patients}}
:BIOMARKERS:  {{.Observations}}
:EFFECT:      {{printf "%.2f" .TreatmentEffect}}
:DATA_DIR:    {{.DataDir}}
:RESULTS_DIR: {{.ResultsDir}}
:END:

** Models
- Primary:   =
{{- if .PrimaryFormula}}{{.PrimaryFormula}}{{else}}(not fitted){{end}}=
- Biomarker: =
{{- if .BiomarkerFormula}}{{.BiomarkerFormula}}{{else}}(not fitted){{end}}=

** Primary Outcome
| Parameter | Mean | {{interval .CredibleLevel}} | P(>0) | P(>threshold) |
|-----------+------+--------+-------+---------------|
{{- range .Summaries}}
| {{.Parameter}} | {{printf "%.3f" .Mean}} | [{{printf "%.3f" .LowerCI}}, {{printf "%.3f" .UpperCI}}] | {{printf "%.1f" (pct .ProbPositive)}}% | {{printf "%.1f" (pct .ProbSignificant)}}% |
{{- end}}

** Biomarker Treatment Effect
| Timepoint | Mean | {{interval .CredibleLevel}} | P(>0) |
|-----------+------+--------+-------|
{{- range .Timepoints}}
| {{.Timepoint}} | {{printf "%.3f" .MeanEffect}} | [{{printf "%.3f" .LowerCI}}, {{printf "%.3f" .UpperCI}}] | {{printf "%.1f" (pct .ProbPositive)}}% |
{{- end}}

** Subgroups
| Subgroup | N | Effect | {{interval .CredibleLevel}} | P(<=0) |
|----------+---+--------+--------+--------|
{{- range .Subgroups}}
| {{.Subgroup}} | {{.N}} | {{printf "%.3f" .EffectSize}} | [{{printf "%.3f" .LowerCI}}, {{printf "%.3f" .UpperCI}}] | {{printf "%.3f" .PValue}} |
{{- end}}

{{- if .Plots}}

** Plots
{{- range .Plots}}
[[file:{{base .}}]]
{{- end}}
{{- end}}

{{- if .Notes}}

** Observations
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
`

// PrintRunReport writes a plain-text rendering of r.
func PrintRunReport(w io.Writer, r RunReport) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Trial Analysis")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	if r.Patients > 0 {
		fmt.Fprintf(w, "Patients:      %d\n", r.Patients)
		fmt.Fprintf(w, "Biomarkers:    %d\n", r.Observations)
	}
	if r.Seed != 0 {
		fmt.Fprintf(w, "Seed:          %d\n", r.Seed)
	}
	fmt.Fprintf(w, "Data:          %s\n", r.DataDir)
	fmt.Fprintf(w, "Results:       %s\n", r.ResultsDir)
	fmt.Fprintf(w, "Intervals:     %s\n", IntervalLabel(r.CredibleLevel))

	if len(r.Summaries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Primary Outcome")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, s := range r.Summaries {
			fmt.Fprintf(w, "%-18s %8.3f  [%.3f, %.3f]  P(>0)=%.3f  P(sig)=%.3f\n",
				s.Parameter, s.Mean, s.LowerCI, s.UpperCI, s.ProbPositive, s.ProbSignificant)
		}
	}

	if len(r.Timepoints) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Biomarker Treatment Effect")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, e := range r.Timepoints {
			fmt.Fprintf(w, "%-18s %8.3f  [%.3f, %.3f]  P(>0)=%.3f\n",
				e.Timepoint, e.MeanEffect, e.LowerCI, e.UpperCI, e.ProbPositive)
		}
	}

	if len(r.Subgroups) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Subgroups")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, s := range r.Subgroups {
			fmt.Fprintf(w, "%-10s N=%-5d %8.3f  [%.3f, %.3f]  P(<=0)=%.3f\n",
				s.Subgroup, s.N, s.EffectSize, s.LowerCI, s.UpperCI, s.PValue)
		}
	}

	if r.OrgPath != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Org Report:    %s\n", r.OrgPath)
	}

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, note := range r.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}
