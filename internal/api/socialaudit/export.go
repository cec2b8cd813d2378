package socialaudit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vipogroup/vipo-api/internal/types"
)

var renderers = map[ExportFormat]struct {
	contentType string
	fn          func(*types.SocialReport) ([]byte, error)
}{
	FormatJSON:     {"application/json", renderJSON},
	FormatCSV:      {"text/csv; charset=utf-8", renderCSV},
	FormatMarkdown: {"text/markdown; charset=utf-8", renderMarkdown},
}

func renderJSON(r *types.SocialReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// renderCSV writes one row per issue. A UTF-8 BOM keeps Hebrew readable in
// spreadsheet tools.
func renderCSV(r *types.SocialReport) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Report ID", "Type", "Status", "Score", "Severity", "Page", "Field", "Message", "Fix"}); err != nil {
		return nil, err
	}
	for _, i := range r.Issues {
		row := []string{r.ReportID, string(r.ReportType), string(r.Status), fmt.Sprint(r.Score),
			string(i.Severity), i.Page, i.Field, i.Message, i.Fix}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderMarkdown(r *types.SocialReport) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Social Audit Report %s\n\n", r.ReportID)
	fmt.Fprintf(&b, "- **Type:** %s\n", r.ReportType)
	fmt.Fprintf(&b, "- **Status:** %s\n", r.Status)
	fmt.Fprintf(&b, "- **Score:** %d/100\n", r.Score)
	fmt.Fprintf(&b, "- **Base URL:** %s\n", r.BaseURL)
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))

	s := r.Summary
	b.WriteString("## Summary\n\n| Critical | Warnings | Info | Passed | Failed | Pages |\n|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n", s.Critical, s.Warnings, s.Info, s.Passed, s.Failed, s.PagesTested)

	b.WriteString("## Issues\n\n")
	if len(r.Issues) == 0 {
		b.WriteString("No issues found.\n")
	}
	for _, i := range r.Issues {
		fmt.Fprintf(&b, "- **[%s]** %s: %s", strings.ToUpper(string(i.Severity)), i.Page, i.Message)
		if i.Fix != "" {
			fmt.Fprintf(&b, " (fix: %s)", i.Fix)
		}
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
