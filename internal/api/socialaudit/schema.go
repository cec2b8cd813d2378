package socialaudit

import "github.com/vipogroup/vipo-api/internal/types"

type ScanRequest struct {
	ReportTypes []types.ReportType `json:"reportTypes"`
	ScanID      string             `json:"scanId" binding:"max=100"`
	BaseURL     string             `json:"baseUrl" binding:"omitempty,url"`
	Async       bool               `json:"async"`
}

type ReportDigest struct {
	ReportID   string              `json:"reportId"`
	ReportType types.ReportType    `json:"reportType"`
	Status     types.AuditStatus   `json:"status"`
	Score      int                 `json:"score"`
	Summary    types.ReportSummary `json:"summary"`
}

type ScanResponse struct {
	Success          bool              `json:"success"`
	ScanID           string            `json:"scanId"`
	Queued           bool              `json:"queued,omitempty"`
	IsSocialReady    bool              `json:"isSocialReady"`
	OverallStatus    types.AuditStatus `json:"overallStatus,omitempty"`
	ReportsGenerated int               `json:"reportsGenerated"`
	Reports          []ReportDigest    `json:"reports"`
	ScannedPages     []string          `json:"scannedPages"`
}

type ListQuery struct {
	Type   string
	Status string
}

type ListResponse struct {
	Success    bool                 `json:"success"`
	Reports    []types.SocialReport `json:"reports"`
	Stats      types.SocialStats    `json:"stats"`
	Pagination types.PageInfo       `json:"pagination"`
}

type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatCSV      ExportFormat = "csv"
	FormatMarkdown ExportFormat = "md"
)

type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}
