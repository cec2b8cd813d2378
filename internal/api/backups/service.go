package backups

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

const (
	listLimit      = 20
	maxUploadBytes = 512 << 20
	maxOutputBytes = 4096
	nameLayout     = "2006-01-02T15-04-05.000"
	displayLayout  = "02/01/2006 15:04"
)

var archiveName = regexp.MustCompile(`^backup-\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}(\.\d{3})?Z\.zip$`)

type Store interface {
	DumpTables(ctx context.Context, tables []string) ([]loaders.TableDump, error)
	RestoreTables(ctx context.Context, dumps []loaders.TableDump) error
	DatabaseSize(ctx context.Context) (string, error)
	InsertAuditLog(ctx context.Context, action, category, actorID string, details map[string]interface{}) error
}

type Events interface {
	BackupFinished(name string, err error)
}

type Options struct {
	Dir          string
	EmergencyDir string
	Keep         int
	PostCommand  string
	// Local enables the emergency backup endpoints.
	Local  bool
	Tables []string
}

type Service struct {
	store  Store
	events Events
	opts   Options
	now    func() time.Time
	// busy serialises backup and restore runs.
	busy sync.Mutex
}

func NewService(store Store, events Events, opts Options) *Service {
	if len(opts.Tables) == 0 {
		opts.Tables = loaders.BackupTables
	}
	return &Service{store: store, events: events, opts: opts, now: time.Now}
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

func newArchiveName(t time.Time) string {
	return "backup-" + t.UTC().Format(nameLayout) + "Z.zip"
}

func archiveTime(name string) (time.Time, bool) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "backup-"), "Z.zip")
	for _, layout := range []string{nameLayout, "2006-01-02T15-04-05"} {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// archives returns archive names newest first.
func (s *Service) archives() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}
	var out []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && archiveName.MatchString(e.Name()) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() > out[j].Name() })
	return out, nil
}

func (s *Service) List(ctx context.Context) ([]BackupInfo, error) {
	entries, err := s.archives()
	if err != nil {
		return nil, err
	}
	if len(entries) > listLimit {
		entries = entries[:listLimit]
	}
	items := make([]BackupInfo, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := BackupInfo{Name: e.Name(), Size: fi.Size(), SizeFormatted: formatBytes(fi.Size()), Date: "unknown"}
		if t, ok := archiveTime(e.Name()); ok {
			info.CreatedAt = t
			info.Date = t.Format(displayLayout)
		}
		items = append(items, info)
	}
	return items, nil
}

func (s *Service) dumpAll(ctx context.Context) ([]loaders.TableDump, error) {
	dumps, err := s.store.DumpTables(ctx, s.opts.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to dump tables: %w", err)
	}
	return dumps, nil
}

func (s *Service) lock() (func(), error) {
	if !s.busy.TryLock() {
		return nil, utils.Conflict("backup_in_progress", "Another backup or restore is running")
	}
	return s.busy.Unlock, nil
}

// Create dumps every table into a new archive, runs the post-backup command
// and prunes old archives.
func (s *Service) Create(ctx context.Context, actor string) (*CreateResult, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	result, err := s.create(ctx, actor)
	if err != nil {
		shared.BackupRuns.WithLabelValues(string(ActionBackup), "error").Inc()
		utils.Zlog.Error("Backup failed", zap.Error(err))
		s.notify("", err)
		return nil, err
	}
	shared.BackupRuns.WithLabelValues(string(ActionBackup), "ok").Inc()
	s.notify(result.Name, nil)
	s.audit(ctx, "backup", actor, map[string]interface{}{"name": result.Name, "rows": result.TotalRows})
	return result, nil
}

func (s *Service) create(ctx context.Context, actor string) (*CreateResult, error) {
	start := s.now()
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}
	dumps, err := s.dumpAll(ctx)
	if err != nil {
		return nil, err
	}

	name := newArchiveName(start)
	tmp, err := os.CreateTemp(s.opts.Dir, ".backup-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	manifest, err := writeArchive(tmp, start, actor, dumps)
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close archive: %w", err)
	}
	path := filepath.Join(s.opts.Dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to store archive: %w", err)
	}

	result := &CreateResult{Name: name, Tables: manifest.Tables, TotalRows: manifest.TotalRows()}
	if fi, err := os.Stat(path); err == nil {
		result.Size = fi.Size()
	}

	if s.opts.PostCommand != "" {
		out, err := s.runPostCommand(ctx, path)
		result.Output = out
		if err != nil {
			result.CommandErr = err.Error()
			utils.Zlog.Warn("Post-backup command failed", zap.String("name", name), zap.Error(err))
		}
	}

	removed, err := s.cleanup(s.opts.Keep)
	if err != nil {
		utils.Zlog.Warn("Backup cleanup failed", zap.Error(err))
	}
	result.Removed = removed
	result.Duration = s.now().Sub(start).Round(time.Millisecond).String()

	utils.Zlog.Info("Backup created",
		zap.String("name", name),
		zap.Int("tables", len(manifest.Tables)),
		zap.Int("rows", result.TotalRows),
		zap.Int64("size", result.Size))
	return result, nil
}

// runPostCommand runs the configured shell command with BACKUP_FILE set.
func (s *Service) runPostCommand(ctx context.Context, path string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(cctx, "sh", "-c", s.opts.PostCommand)
	cmd.Env = append(os.Environ(), "BACKUP_FILE="+path)
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if len(text) > maxOutputBytes {
		text = text[len(text)-maxOutputBytes:]
	}
	return text, err
}

func (s *Service) Restore(ctx context.Context, actor, name string) (*RestoreResult, error) {
	if !archiveName.MatchString(name) {
		return nil, utils.BadRequest("invalid_name", "Unknown backup name")
	}
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(filepath.Join(s.opts.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, utils.NotFound("backup_not_found", "Backup not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	manifest, dumps, err := readArchive(f, fi.Size(), s.opts.Tables, true)
	if err != nil {
		shared.BackupRuns.WithLabelValues(string(ActionRestore), "invalid").Inc()
		return nil, utils.BadRequest("invalid_archive", err.Error())
	}
	if err := s.restore(ctx, actor, name, dumps); err != nil {
		return nil, err
	}
	return &RestoreResult{Name: name, Tables: manifest.Tables, TotalRows: manifest.TotalRows()}, nil
}

func (s *Service) restore(ctx context.Context, actor, name string, dumps []loaders.TableDump) error {
	if err := s.store.RestoreTables(ctx, dumps); err != nil {
		shared.BackupRuns.WithLabelValues(string(ActionRestore), "error").Inc()
		return fmt.Errorf("restore failed: %w", err)
	}
	shared.BackupRuns.WithLabelValues(string(ActionRestore), "ok").Inc()
	utils.Zlog.Info("Backup restored", zap.String("name", name), zap.Int("tables", len(dumps)))
	s.audit(ctx, "restore", actor, map[string]interface{}{"name": name, "tables": len(dumps)})
	return nil
}

// Cleanup keeps the newest keep archives. keep <= 0 uses the configured
// default.
func (s *Service) Cleanup(ctx context.Context, actor string, keep int) ([]string, error) {
	if keep <= 0 {
		keep = s.opts.Keep
	}
	removed, err := s.cleanup(keep)
	if err != nil {
		shared.BackupRuns.WithLabelValues(string(ActionCleanup), "error").Inc()
		return nil, err
	}
	shared.BackupRuns.WithLabelValues(string(ActionCleanup), "ok").Inc()
	if len(removed) > 0 {
		s.audit(ctx, "backup_cleanup", actor, map[string]interface{}{"removed": removed})
	}
	return removed, nil
}

func (s *Service) cleanup(keep int) ([]string, error) {
	removed := []string{}
	if keep <= 0 {
		return removed, nil
	}
	entries, err := s.archives()
	if err != nil {
		return nil, err
	}
	for i := keep; i < len(entries); i++ {
		name := entries[i].Name()
		if err := os.Remove(filepath.Join(s.opts.Dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// Upload spools an uploaded archive to disk, validates it, stores it under a
// fresh name and optionally restores it right away.
func (s *Service) Upload(ctx context.Context, actor string, r io.Reader, restore bool) (*UploadResult, error) {
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.opts.Dir, ".upload-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	n, err := io.Copy(tmp, io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return nil, utils.BadRequest("missing_file", "No file uploaded")
	}
	if n > maxUploadBytes {
		return nil, utils.BadRequest("file_too_large", "Backup archive is too large")
	}

	manifest, dumps, err := readArchive(tmp, n, s.opts.Tables, restore)
	if err != nil {
		return nil, utils.BadRequest("invalid_archive", err.Error())
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	name := newArchiveName(s.now())
	if err := os.Rename(tmp.Name(), filepath.Join(s.opts.Dir, name)); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	s.audit(ctx, "backup_upload", actor, map[string]interface{}{"name": name, "rows": manifest.TotalRows()})

	result := &UploadResult{Name: name, Tables: manifest.Tables, TotalRows: manifest.TotalRows()}
	if restore {
		if err := s.restore(ctx, actor, name, dumps); err != nil {
			return nil, err
		}
		result.Restored = true
	}
	return result, nil
}

func (s *Service) notify(name string, err error) {
	if s.events != nil {
		s.events.BackupFinished(name, err)
	}
}

func (s *Service) audit(ctx context.Context, action, actor string, details map[string]interface{}) {
	if err := s.store.InsertAuditLog(ctx, action, "system", actor, details); err != nil {
		utils.Zlog.Warn("Failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
