package types

import "time"

type ReportType string

const (
	ReportMetadataAudit ReportType = "social_metadata_audit"
	ReportPreviewShare  ReportType = "social_preview_shareability"
	ReportCrawlability  ReportType = "social_crawlability_discovery"
)

var AllReportTypes = []ReportType{ReportMetadataAudit, ReportPreviewShare, ReportCrawlability}

func (r ReportType) Valid() bool {
	for _, t := range AllReportTypes {
		if t == r {
			return true
		}
	}
	return false
}

type AuditStatus string

const (
	AuditPass AuditStatus = "PASS"
	AuditWarn AuditStatus = "WARN"
	AuditFail AuditStatus = "FAIL"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type AuditIssue struct {
	Severity Severity `json:"severity"`
	Page     string   `json:"page"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Fix      string   `json:"fix,omitempty"`
}

type AuditCheck struct {
	Page   string `json:"page"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Value  string `json:"value,omitempty"`
}

type PageMetadata struct {
	URL                string `json:"url"`
	StatusCode         int    `json:"statusCode"`
	Title              string `json:"title,omitempty"`
	MetaDescription    string `json:"metaDescription,omitempty"`
	OGTitle            string `json:"ogTitle,omitempty"`
	OGDescription      string `json:"ogDescription,omitempty"`
	OGImage            string `json:"ogImage,omitempty"`
	OGURL              string `json:"ogUrl,omitempty"`
	OGType             string `json:"ogType,omitempty"`
	TwitterCard        string `json:"twitterCard,omitempty"`
	TwitterTitle       string `json:"twitterTitle,omitempty"`
	TwitterDescription string `json:"twitterDescription,omitempty"`
	TwitterImage       string `json:"twitterImage,omitempty"`
	Robots             string `json:"robots,omitempty"`
	Canonical          string `json:"canonical,omitempty"`
	FetchError         string `json:"fetchError,omitempty"`
}

type PreviewState string

const (
	PreviewOK      PreviewState = "ok"
	PreviewPartial PreviewState = "partial"
	PreviewBroken  PreviewState = "broken"
)

type PlatformPreview struct {
	Platform    string       `json:"platform"`
	Page        string       `json:"page"`
	State       PreviewState `json:"state"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	Problems    []string     `json:"problems,omitempty"`
}

type ReportSummary struct {
	Critical    int `json:"critical"`
	Warnings    int `json:"warnings"`
	Info        int `json:"info"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	PagesTested int `json:"pagesTested"`
}

type SocialReport struct {
	ID          string                   `json:"id"`
	ReportID    string                   `json:"reportId"`
	ScanID      string                   `json:"scanId"`
	ReportType  ReportType               `json:"reportType"`
	Status      AuditStatus              `json:"status"`
	Score       int                      `json:"score"`
	BaseURL     string                   `json:"baseUrl"`
	Summary     ReportSummary            `json:"summary"`
	Issues      []AuditIssue             `json:"issues"`
	Checks      []AuditCheck             `json:"checks,omitempty"`
	Pages       []PageMetadata           `json:"pages,omitempty"`
	Previews    []PlatformPreview        `json:"previews,omitempty"`
	Platforms   map[string]ReportSummary `json:"platforms,omitempty"`
	GeneratedBy string                   `json:"generatedBy,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
}

type SocialReportFilter struct {
	Type   ReportType
	Status AuditStatus
	Limit  int
	Offset int
}

type SocialStats struct {
	Total    int     `json:"total"`
	Pass     int     `json:"pass"`
	Warn     int     `json:"warn"`
	Fail     int     `json:"fail"`
	AvgScore float64 `json:"avgScore"`
}
