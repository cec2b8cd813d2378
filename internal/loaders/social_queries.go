package loaders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/vipogroup/vipo-api/internal/types"
)

func (c *PostgresClient) InsertSocialReport(ctx context.Context, r *types.SocialReport) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx, `INSERT INTO social_reports (id, report_id, scan_id, report_type, status, score,
			document, generated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.ReportID, r.ScanID, r.ReportType, r.Status, r.Score, doc, r.GeneratedBy, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert social report: %w", err)
	}
	return nil
}

func scanSocialReport(row pgx.Row) (*types.SocialReport, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		return nil, notFound(err)
	}
	var r types.SocialReport
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("failed to decode social report: %w", err)
	}
	return &r, nil
}

func (c *PostgresClient) GetSocialReport(ctx context.Context, reportID string) (*types.SocialReport, error) {
	return scanSocialReport(c.pool.QueryRow(ctx, `SELECT document FROM social_reports
		WHERE report_id = $1 OR id = $1`, reportID))
}

const socialWhere = ` WHERE ($1 = '' OR report_type = $1) AND ($2 = '' OR status = $2)`

func (c *PostgresClient) ListSocialReports(ctx context.Context, f types.SocialReportFilter) ([]types.SocialReport, int, error) {
	var total int
	if err := c.pool.QueryRow(ctx, `SELECT count(*) FROM social_reports`+socialWhere,
		string(f.Type), string(f.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count social reports: %w", err)
	}
	rows, err := c.pool.Query(ctx, `SELECT document FROM social_reports`+socialWhere+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, string(f.Type), string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list social reports: %w", err)
	}
	defer rows.Close()

	var reports []types.SocialReport
	for rows.Next() {
		r, err := scanSocialReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, *r)
	}
	return reports, total, rows.Err()
}

func (c *PostgresClient) SocialStats(ctx context.Context, reportType types.ReportType) (types.SocialStats, error) {
	var s types.SocialStats
	err := c.pool.QueryRow(ctx, `SELECT count(*),
			count(*) FILTER (WHERE status = 'PASS'),
			count(*) FILTER (WHERE status = 'WARN'),
			count(*) FILTER (WHERE status = 'FAIL'),
			COALESCE(round(avg(score)::numeric, 1), 0)::float8
		FROM social_reports WHERE ($1 = '' OR report_type = $1)`, string(reportType)).
		Scan(&s.Total, &s.Pass, &s.Warn, &s.Fail, &s.AvgScore)
	if err != nil {
		return s, fmt.Errorf("failed to load social stats: %w", err)
	}
	return s, nil
}
