package socialaudit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
	"github.com/vipogroup/vipo-api/internal/worker"
)

const (
	listIssuePreview = 5
	scanJobTimeout   = 3 * time.Minute
)

type Store interface {
	InsertSocialReport(ctx context.Context, r *types.SocialReport) error
	GetSocialReport(ctx context.Context, reportID string) (*types.SocialReport, error)
	ListSocialReports(ctx context.Context, f types.SocialReportFilter) ([]types.SocialReport, int, error)
	SocialStats(ctx context.Context, reportType types.ReportType) (types.SocialStats, error)
	ListProducts(ctx context.Context, tenantID, query string, includeInactive bool, limit, offset int) ([]types.Product, int, error)
	InsertAuditLog(ctx context.Context, action, category, actorID string, details map[string]interface{}) error
}

// Queue is satisfied by *worker.Pool.
type Queue interface {
	Enqueue(job worker.Job) bool
}

type Service struct {
	store   Store
	scanner *Scanner
	queue   Queue
	siteURL string
	now     func() time.Time
}

func NewService(store Store, scanner *Scanner, queue Queue, siteURL string) *Service {
	return &Service{
		store:   store,
		scanner: scanner,
		queue:   queue,
		siteURL: strings.TrimRight(siteURL, "/"),
		now:     time.Now,
	}
}

func (s *Service) Scan(ctx context.Context, caller *shared.Identity, req ScanRequest) (*ScanResponse, error) {
	reportTypes := req.ReportTypes
	if len(reportTypes) == 0 {
		reportTypes = types.AllReportTypes
	}
	for _, t := range reportTypes {
		if !t.Valid() {
			return nil, utils.BadRequest("invalid_report_type", fmt.Sprintf("unknown report type %q", t))
		}
	}

	baseURL := strings.TrimRight(req.BaseURL, "/")
	if baseURL == "" {
		baseURL = s.siteURL
	}
	if u, err := url.Parse(baseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, utils.BadRequest("invalid_base_url", "baseUrl must be an absolute http(s) URL")
	}

	scanID := req.ScanID
	if scanID == "" {
		scanID = uuid.NewString()
	}
	actor := ""
	if caller != nil {
		actor = caller.UserID
	}

	if req.Async {
		job := worker.NewJob("social_audit_scan", func(ctx context.Context) error {
			_, err := s.run(ctx, actor, scanID, baseURL, reportTypes)
			return err
		})
		job.Timeout = scanJobTimeout
		if !s.queue.Enqueue(job) {
			return nil, utils.NewAPIError(http.StatusServiceUnavailable, "queue_full", "Scan queue is full, try again later")
		}
		return &ScanResponse{Success: true, ScanID: scanID, Queued: true, Reports: []ReportDigest{}, ScannedPages: []string{}}, nil
	}
	return s.run(ctx, actor, scanID, baseURL, reportTypes)
}

func (s *Service) paths(ctx context.Context) []string {
	paths := append([]string{}, staticPaths...)
	products, _, err := s.store.ListProducts(ctx, "", "", false, maxProductPages, 0)
	if err != nil {
		utils.Zlog.Warn("Failed to list products for social audit", zap.Error(err))
		return paths
	}
	for _, p := range products {
		if p.Slug != "" {
			paths = append(paths, "/products/"+url.PathEscape(p.Slug))
		}
	}
	return paths
}

func (s *Service) run(ctx context.Context, actor, scanID, baseURL string, reportTypes []types.ReportType) (*ScanResponse, error) {
	start := s.now()
	paths := s.paths(ctx)

	needPages := false
	for _, t := range reportTypes {
		if t != types.ReportCrawlability {
			needPages = true
		}
	}
	var pages []types.PageMetadata
	if needPages {
		var err error
		if pages, err = s.scanner.collect(ctx, baseURL, paths); err != nil {
			return nil, fmt.Errorf("failed to fetch pages: %w", err)
		}
	}

	resp := &ScanResponse{Success: true, ScanID: scanID, Reports: []ReportDigest{}, ScannedPages: []string{}}
	for _, p := range paths {
		resp.ScannedPages = append(resp.ScannedPages, baseURL+p)
	}

	var statuses []types.AuditStatus
	for _, t := range reportTypes {
		var report *types.SocialReport
		switch t {
		case types.ReportMetadataAudit:
			report = s.scanner.metadataReport(ctx, baseURL, pages)
		case types.ReportPreviewShare:
			report = previewReport(baseURL, pages)
		case types.ReportCrawlability:
			var err error
			if report, err = s.scanner.crawlReport(ctx, baseURL, paths); err != nil {
				return nil, fmt.Errorf("failed to run crawl checks: %w", err)
			}
		}

		now := s.now().UTC()
		report.ID = uuid.NewString()
		report.ReportID = newReportID(t, now)
		report.ScanID = scanID
		report.GeneratedBy = actor
		report.CreatedAt = now
		if err := s.store.InsertSocialReport(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to save %s report: %w", t, err)
		}
		shared.SocialScans.WithLabelValues(string(t), string(report.Status)).Inc()

		statuses = append(statuses, report.Status)
		resp.Reports = append(resp.Reports, ReportDigest{
			ReportID:   report.ReportID,
			ReportType: t,
			Status:     report.Status,
			Score:      report.Score,
			Summary:    report.Summary,
		})
	}
	resp.ReportsGenerated = len(resp.Reports)
	resp.OverallStatus = worstStatus(statuses...)
	resp.IsSocialReady = resp.OverallStatus != types.AuditFail

	if err := s.store.InsertAuditLog(ctx, "social_audit_scan", "social_audit", actor, map[string]interface{}{
		"scanId":        scanID,
		"baseUrl":       baseURL,
		"overallStatus": resp.OverallStatus,
		"reports":       resp.ReportsGenerated,
	}); err != nil {
		utils.Zlog.Warn("Failed to write audit log", zap.Error(err))
	}

	utils.Zlog.Info("Social audit finished",
		zap.String("scanId", scanID),
		zap.String("baseUrl", baseURL),
		zap.String("status", string(resp.OverallStatus)),
		zap.Int("pages", len(paths)),
		zap.Duration("duration", s.now().Sub(start)))
	return resp, nil
}

func (s *Service) List(ctx context.Context, q ListQuery, p utils.Pagination) (*ListResponse, error) {
	filter := types.SocialReportFilter{Limit: p.Limit, Offset: p.Offset()}
	if q.Type != "" && q.Type != "all" {
		filter.Type = types.ReportType(q.Type)
		if !filter.Type.Valid() {
			return nil, utils.BadRequest("invalid_report_type", "Unknown report type")
		}
	}
	if q.Status != "" && !strings.EqualFold(q.Status, "all") {
		filter.Status = types.AuditStatus(strings.ToUpper(q.Status))
		switch filter.Status {
		case types.AuditPass, types.AuditWarn, types.AuditFail:
		default:
			return nil, utils.BadRequest("invalid_status", "Status must be PASS, WARN or FAIL")
		}
	}

	reports, total, err := s.store.ListSocialReports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	stats, err := s.store.SocialStats(ctx, filter.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to load report stats: %w", err)
	}

	for i := range reports {
		if len(reports[i].Issues) > listIssuePreview {
			reports[i].Issues = reports[i].Issues[:listIssuePreview]
		}
		reports[i].Pages = nil
		reports[i].Previews = nil
		reports[i].Checks = nil
	}
	if reports == nil {
		reports = []types.SocialReport{}
	}
	return &ListResponse{
		Success:    true,
		Reports:    reports,
		Stats:      stats,
		Pagination: types.NewPageInfo(p.Page, p.Limit, total),
	}, nil
}

func (s *Service) Export(ctx context.Context, reportID string, format ExportFormat) (*Export, error) {
	if reportID == "" {
		return nil, utils.BadRequest("missing_report_id", "reportId is required")
	}
	if format == "" {
		format = FormatJSON
	}
	render, ok := renderers[format]
	if !ok {
		return nil, utils.BadRequest("invalid_format", "format must be json, csv or md")
	}

	report, err := s.store.GetSocialReport(ctx, reportID)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.NotFound("report_not_found", "Report not found")
	}
	if err != nil {
		return nil, err
	}

	body, err := render.fn(report)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	name := fmt.Sprintf("VIPO_Social_%s_%s.%s", report.ReportType, report.CreatedAt.UTC().Format("2006-01-02"), format)
	return &Export{Filename: name, ContentType: render.contentType, Body: body}, nil
}
