package backups

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

const (
	emergencyDatabase = "database-backup.json"
	emergencyReadme   = "README.txt"
	emergencyInfo     = "backup-info.json"
)

var readmeTemplate = template.Must(template.New("readme").Parse(`# VIPO Emergency Backup
# Updated: {{.Updated}}

## Files
- database-backup.json: full database dump ({{.Tables}} tables, {{.Rows}} rows)
- backup-info.json: metadata for this dump

## Recovery
1. Provision PostgreSQL and Redis.
2. Set DATABASE_URL, REDIS_URL and JWT_SECRET in .env.
3. Run the schema migrations:
   vipoctl migrate
4. Load the latest archive from BACKUP_DIR:
   vipoctl backup list
   vipoctl backup restore <name>
   or upload an archive at /api/admin/backups/upload.
5. Start the API server and check /health.
`))

func (s *Service) localOnly() error {
	if !s.opts.Local {
		return utils.BadRequest("local_only", "Emergency backups are only available in a local environment")
	}
	return nil
}

func (s *Service) EmergencyInfo(ctx context.Context) (*EmergencyInfo, error) {
	if !s.opts.Local {
		return &EmergencyInfo{LastUpdate: "not available in production", DBSize: "N/A"}, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.opts.EmergencyDir, emergencyInfo))
	if errors.Is(err, os.ErrNotExist) {
		return &EmergencyInfo{Available: true, LastUpdate: "never", DBSize: "unknown"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup info: %w", err)
	}
	var info EmergencyInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("invalid backup info: %w", err)
	}
	info.Available = true
	return &info, nil
}

// EmergencyUpdate rewrites the emergency dump: a single JSON document with
// every table, a recovery README and an info file.
func (s *Service) EmergencyUpdate(ctx context.Context, actor string) (*EmergencyInfo, error) {
	if err := s.localOnly(); err != nil {
		return nil, err
	}
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := os.MkdirAll(s.opts.EmergencyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create emergency dir: %w", err)
	}
	dumps, err := s.dumpAll(ctx)
	if err != nil {
		shared.BackupRuns.WithLabelValues("emergency", "error").Inc()
		return nil, err
	}

	doc := make(map[string]json.RawMessage, len(dumps))
	rows := 0
	for _, d := range dumps {
		doc[d.Name] = d.Data
		rows += d.Rows
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode dump: %w", err)
	}
	dbPath := filepath.Join(s.opts.EmergencyDir, emergencyDatabase)
	if err := os.WriteFile(dbPath, body, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write dump: %w", err)
	}

	now := s.now().UTC()
	var readme bytes.Buffer
	if err := readmeTemplate.Execute(&readme, map[string]interface{}{
		"Updated": now.Format("2006-01-02 15:04 UTC"),
		"Tables":  len(dumps),
		"Rows":    rows,
	}); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.opts.EmergencyDir, emergencyReadme), readme.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write readme: %w", err)
	}

	info := &EmergencyInfo{
		Available:   true,
		LastUpdate:  now.Format(displayLayout),
		DBSize:      formatBytes(int64(len(body))),
		TablesCount: len(dumps),
		TotalRows:   rows,
		UpdatedBy:   actor,
	}
	raw, _ := json.MarshalIndent(info, "", "  ")
	if err := os.WriteFile(filepath.Join(s.opts.EmergencyDir, emergencyInfo), raw, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write backup info: %w", err)
	}

	shared.BackupRuns.WithLabelValues("emergency", "ok").Inc()
	utils.Zlog.Info("Emergency backup updated", zap.Int("tables", len(dumps)), zap.Int("rows", rows))
	s.audit(ctx, "backup", actor, map[string]interface{}{"type": "emergency", "tables": len(dumps), "rows": rows})
	return info, nil
}

// EmergencyDownload serves one emergency file, or all of them zipped.
func (s *Service) EmergencyDownload(ctx context.Context, kind string) (*Download, error) {
	if err := s.localOnly(); err != nil {
		return nil, err
	}
	date := s.now().UTC().Format("2006-01-02")
	read := func(name string) ([]byte, error) {
		b, err := os.ReadFile(filepath.Join(s.opts.EmergencyDir, name))
		if errors.Is(err, os.ErrNotExist) {
			return nil, utils.NotFound("backup_not_found", "Emergency backup not found, update it first")
		}
		return b, err
	}

	switch strings.ToLower(kind) {
	case "database":
		b, err := read(emergencyDatabase)
		if err != nil {
			return nil, err
		}
		return &Download{Filename: "vipo-database-backup-" + date + ".json", ContentType: "application/json", Body: b}, nil
	case "readme":
		b, err := read(emergencyReadme)
		if err != nil {
			return nil, err
		}
		return &Download{Filename: "vipo-recovery-" + date + ".txt", ContentType: "text/plain; charset=utf-8", Body: b}, nil
	case "all":
		if _, err := read(emergencyDatabase); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for _, name := range []string{emergencyDatabase, emergencyReadme, emergencyInfo} {
			b, err := read(name)
			if err != nil {
				continue
			}
			f, err := zw.Create(name)
			if err != nil {
				return nil, err
			}
			if _, err := f.Write(b); err != nil {
				return nil, err
			}
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return &Download{Filename: "vipo-emergency-backup-" + date + ".zip", ContentType: "application/zip", Body: buf.Bytes()}, nil
	}
	return nil, utils.BadRequest("invalid_type", "type must be database, readme or all")
}
