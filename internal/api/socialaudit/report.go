package socialaudit

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/vipogroup/vipo-api/internal/types"
)

type reportBuilder struct {
	report types.SocialReport
}

func newReport(reportType types.ReportType, baseURL string) *reportBuilder {
	return &reportBuilder{report: types.SocialReport{
		ReportType: reportType,
		BaseURL:    baseURL,
		Issues:     []types.AuditIssue{},
		Checks:     []types.AuditCheck{},
	}}
}

func (b *reportBuilder) issue(sev types.Severity, page, field, message, fix string) {
	b.report.Issues = append(b.report.Issues, types.AuditIssue{
		Severity: sev, Page: page, Field: field, Message: message, Fix: fix,
	})
}

func (b *reportBuilder) check(page, name string, passed bool, value string) {
	b.report.Checks = append(b.report.Checks, types.AuditCheck{Page: page, Name: name, Passed: passed, Value: value})
}

func (b *reportBuilder) finish(pagesTested int) *types.SocialReport {
	r := &b.report
	r.Summary = summarize(r.Issues, r.Checks)
	r.Summary.PagesTested = pagesTested
	r.Status = statusOf(r.Summary)
	r.Score = scoreOf(r.Summary)
	return r
}

func summarize(issues []types.AuditIssue, checks []types.AuditCheck) types.ReportSummary {
	var s types.ReportSummary
	for _, i := range issues {
		switch i.Severity {
		case types.SeverityCritical:
			s.Critical++
		case types.SeverityWarning:
			s.Warnings++
		default:
			s.Info++
		}
	}
	for _, c := range checks {
		if c.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

func statusOf(s types.ReportSummary) types.AuditStatus {
	switch {
	case s.Critical > 0:
		return types.AuditFail
	case s.Warnings > 0:
		return types.AuditWarn
	}
	return types.AuditPass
}

func scoreOf(s types.ReportSummary) int {
	total := s.Passed + s.Failed
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Passed) / float64(total) * 100))
}

// worstStatus folds report statuses into one.
func worstStatus(statuses ...types.AuditStatus) types.AuditStatus {
	worst := types.AuditPass
	for _, st := range statuses {
		if st == types.AuditFail {
			return types.AuditFail
		}
		if st == types.AuditWarn {
			worst = types.AuditWarn
		}
	}
	return worst
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newReportID builds ids like "SMA-MGT1Z2K0-4F9Q" from the type's initials,
// the time in base36 and four random characters.
func newReportID(reportType types.ReportType, now time.Time) string {
	var prefix strings.Builder
	for _, word := range strings.Split(string(reportType), "_") {
		if word != "" {
			prefix.WriteByte(word[0])
		}
	}
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	id := prefix.String() + "-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + string(suffix)
	return strings.ToUpper(id)
}
