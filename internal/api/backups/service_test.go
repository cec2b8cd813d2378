package backups

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

type fakeStore struct {
	mu       sync.Mutex
	tables   map[string]string
	restored []loaders.TableDump
	audits   []string
	dumpErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string]string{
		"users":  `[{"id":"u1"},{"id":"u2"}]`,
		"orders": `[{"id":"o1"}]`,
	}}
}

func (s *fakeStore) DumpTables(_ context.Context, tables []string) ([]loaders.TableDump, error) {
	if s.dumpErr != nil {
		return nil, s.dumpErr
	}
	dumps := make([]loaders.TableDump, 0, len(tables))
	for _, table := range tables {
		data := s.tables[table]
		var rows []json.RawMessage
		if err := json.Unmarshal([]byte(data), &rows); err != nil {
			return nil, err
		}
		dumps = append(dumps, loaders.TableDump{Name: table, Rows: len(rows), Data: []byte(data)})
	}
	return dumps, nil
}

func (s *fakeStore) RestoreTables(_ context.Context, dumps []loaders.TableDump) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored = dumps
	return nil
}

func (s *fakeStore) restoredData(table string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.restored {
		if d.Name == table {
			return string(d.Data)
		}
	}
	return ""
}

func (s *fakeStore) DatabaseSize(context.Context) (string, error) { return "8 MB", nil }

func (s *fakeStore) InsertAuditLog(_ context.Context, action, _, _ string, _ map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, action)
	return nil
}

type recordedEvents struct {
	names []string
	errs  []error
}

func (e *recordedEvents) BackupFinished(name string, err error) {
	e.names = append(e.names, name)
	e.errs = append(e.errs, err)
}

// tickingClock advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestService(t *testing.T, opts Options) (*Service, *fakeStore, *recordedEvents) {
	t.Helper()
	root := t.TempDir()
	if opts.Dir == "" {
		opts.Dir = filepath.Join(root, "database")
	}
	if opts.EmergencyDir == "" {
		opts.EmergencyDir = filepath.Join(root, "emergency")
	}
	opts.Tables = []string{"users", "orders"}
	store := newFakeStore()
	events := &recordedEvents{}
	svc := NewService(store, events, opts)
	svc.now = tickingClock(time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC))
	return svc, store, events
}

func apiCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Code
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", formatBytes(0))
	assert.Equal(t, "500 B", formatBytes(500))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "5.0 MiB", formatBytes(5<<20))
	assert.Equal(t, "3.0 GiB", formatBytes(3<<30))
}

func TestArchiveNames(t *testing.T) {
	name := newArchiveName(time.Date(2026, 5, 1, 9, 30, 15, 250e6, time.UTC))
	assert.Equal(t, "backup-2026-05-01T09-30-15.250Z.zip", name)
	assert.True(t, archiveName.MatchString(name))

	ts, ok := archiveTime(name)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 1, 9, 30, 15, 250e6, time.UTC), ts)

	for _, bad := range []string{"../backup-2026-05-01T09-30-15Z.zip", "notes.zip", "backup-latest.zip"} {
		assert.False(t, archiveName.MatchString(bad), bad)
	}
}

func TestArchiveChecksums(t *testing.T) {
	dumps := []loaders.TableDump{{Name: "users", Rows: 1, Data: []byte(`[{"id":"u1"}]`)}}
	var buf bytes.Buffer
	manifest, err := writeArchive(&buf, time.Now(), "admin-1", dumps)
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.TotalRows())

	got, loaded, err := readArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()), []string{"users"}, true)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.CreatedBy)
	require.Len(t, loaded, 1)
	assert.Equal(t, `[{"id":"u1"}]`, string(loaded[0].Data))
	assert.Equal(t, 1, loaded[0].Rows)

	_, loaded, err = readArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()), []string{"users"}, false)
	require.NoError(t, err)
	assert.Empty(t, loaded, "verification alone keeps nothing in memory")

	// Same manifest, different table content.
	var tampered bytes.Buffer
	zw := zip.NewWriter(&tampered)
	raw, _ := json.Marshal(manifest)
	f, _ := zw.Create(manifestName)
	_, _ = f.Write(raw)
	f, _ = zw.Create("users.json")
	_, _ = f.Write([]byte(`[{"id":"evil"}]`))
	require.NoError(t, zw.Close())

	_, _, err = readArchive(bytes.NewReader(tampered.Bytes()), int64(tampered.Len()), []string{"users"}, true)
	assert.ErrorIs(t, err, errChecksum)

	_, _, err = readArchive(bytes.NewReader([]byte("not a zip")), 9, []string{"users"}, true)
	assert.Error(t, err)
}

func TestArchiveCoverage(t *testing.T) {
	tables := []string{"users", "orders"}
	users := loaders.TableDump{Name: "users", Rows: 2, Data: []byte(`[{"id":"u1"},{"id":"u2"}]`)}
	orders := loaders.TableDump{Name: "orders", Rows: 0, Data: []byte(`[]`)}

	build := func(dumps ...loaders.TableDump) []byte {
		var buf bytes.Buffer
		_, err := writeArchive(&buf, time.Now(), "", dumps)
		require.NoError(t, err)
		return buf.Bytes()
	}
	read := func(raw []byte) error {
		_, _, err := readArchive(bytes.NewReader(raw), int64(len(raw)), tables, true)
		return err
	}

	assert.NoError(t, read(build(users, orders)))
	assert.ErrorIs(t, read(build()), errMissingTable, "an archive with no tables would empty the database")
	assert.ErrorIs(t, read(build(users)), errMissingTable)
	assert.ErrorIs(t, read(build(users, orders, loaders.TableDump{Name: "secrets", Data: []byte(`[]`)})), errUnknownTable)

	short := users
	short.Rows = 3
	assert.ErrorIs(t, read(build(short, orders)), errRowCount)

	notArray := loaders.TableDump{Name: "orders", Rows: 1, Data: []byte(`{"id":"o1"}`)}
	assert.Error(t, read(build(users, notArray)))
}

func TestCreateListCleanup(t *testing.T) {
	svc, store, events := newTestService(t, Options{Keep: 2})
	ctx := context.Background()

	var names []string
	for i := 0; i < 3; i++ {
		res, err := svc.Create(ctx, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, 3, res.TotalRows)
		assert.Len(t, res.Tables, 2)
		names = append(names, res.Name)
	}
	assert.Equal(t, names, events.names)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, names[2], items[0].Name)
	assert.Equal(t, names[1], items[1].Name)
	assert.NotEmpty(t, items[0].SizeFormatted)
	assert.Equal(t, "01/05/2026 09:30", items[0].Date[:16])
	assert.Contains(t, store.audits, "backup")

	_, err = os.Stat(filepath.Join(svc.opts.Dir, names[0]))
	assert.True(t, os.IsNotExist(err))

	removed, err := svc.Cleanup(ctx, "admin-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{names[1]}, removed)
}

func TestCreateFailureNotifies(t *testing.T) {
	svc, store, events := newTestService(t, Options{})
	store.dumpErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), "")
	require.Error(t, err)
	require.Len(t, events.errs, 1)
	assert.Error(t, events.errs[0])

	entries, _ := os.ReadDir(svc.opts.Dir)
	assert.Empty(t, entries)
}

func TestPostCommand(t *testing.T) {
	svc, _, _ := newTestService(t, Options{PostCommand: `echo "uploaded $BACKUP_FILE"`})
	res, err := svc.Create(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, res.CommandErr)
	assert.True(t, strings.HasSuffix(res.Output, res.Name), res.Output)

	svc.opts.PostCommand = "exit 3"
	res, err = svc.Create(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.CommandErr)
}

func TestRestore(t *testing.T) {
	svc, store, _ := newTestService(t, Options{})
	ctx := context.Background()

	created, err := svc.Create(ctx, "admin-1")
	require.NoError(t, err)

	res, err := svc.Restore(ctx, "admin-1", created.Name)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, `[{"id":"o1"}]`, store.restoredData("orders"))
	assert.Contains(t, store.audits, "restore")

	assert.Equal(t, "invalid_name", apiCode(t, func() error { _, err := svc.Restore(ctx, "", "../etc/passwd"); return err }()))
	assert.Equal(t, "backup_not_found", apiCode(t, func() error {
		_, err := svc.Restore(ctx, "", "backup-2020-01-01T00-00-00.000Z.zip")
		return err
	}()))

	require.NoError(t, os.WriteFile(filepath.Join(svc.opts.Dir, created.Name), []byte("garbage"), 0o644))
	store.restored = nil
	assert.Equal(t, "invalid_archive", apiCode(t, func() error { _, err := svc.Restore(ctx, "", created.Name); return err }()))
	assert.Nil(t, store.restored)
}

func TestBusyConflict(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	svc.busy.Lock()
	defer svc.busy.Unlock()

	_, err := svc.Create(context.Background(), "")
	assert.Equal(t, "backup_in_progress", apiCode(t, err))
}

func archiveBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := writeArchive(&buf, time.Now(), "", []loaders.TableDump{
		{Name: "users", Rows: 1, Data: []byte(`[{"id":"u9"}]`)},
		{Name: "orders", Rows: 0, Data: []byte(`[]`)},
	})
	require.NoError(t, err)
	return buf.Bytes()
}

func TestUpload(t *testing.T) {
	svc, store, _ := newTestService(t, Options{})
	ctx := context.Background()

	res, err := svc.Upload(ctx, "admin-1", bytes.NewReader(archiveBytes(t)), true)
	require.NoError(t, err)
	assert.True(t, res.Restored)
	assert.Equal(t, `[{"id":"u9"}]`, store.restoredData("users"))
	_, err = os.Stat(filepath.Join(svc.opts.Dir, res.Name))
	assert.NoError(t, err)

	store.restored = nil
	stored, err := svc.Upload(ctx, "admin-1", bytes.NewReader(archiveBytes(t)), false)
	require.NoError(t, err)
	assert.False(t, stored.Restored)
	assert.Nil(t, store.restored)

	_, err = svc.Upload(ctx, "", strings.NewReader("plain text"), false)
	assert.Equal(t, "invalid_archive", apiCode(t, err))

	var empty bytes.Buffer
	_, err = writeArchive(&empty, time.Now(), "", nil)
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "", bytes.NewReader(empty.Bytes()), true)
	assert.Equal(t, "invalid_archive", apiCode(t, err))
	assert.Nil(t, store.restored)

	_, err = svc.Upload(ctx, "", strings.NewReader(""), false)
	assert.Equal(t, "missing_file", apiCode(t, err))

	entries, err := os.ReadDir(svc.opts.Dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, archiveName.MatchString(e.Name()), "spool file left behind: %s", e.Name())
	}
	assert.Len(t, entries, 2)
}

func TestEmergencyBackup(t *testing.T) {
	ctx := context.Background()

	t.Run("hosted environments", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{Local: false})
		info, err := svc.EmergencyInfo(ctx)
		require.NoError(t, err)
		assert.False(t, info.Available)

		_, err = svc.EmergencyUpdate(ctx, "admin-1")
		assert.Equal(t, "local_only", apiCode(t, err))
		_, err = svc.EmergencyDownload(ctx, "database")
		assert.Equal(t, "local_only", apiCode(t, err))
	})

	t.Run("local", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{Local: true})

		_, err := svc.EmergencyDownload(ctx, "database")
		assert.Equal(t, "backup_not_found", apiCode(t, err))

		info, err := svc.EmergencyUpdate(ctx, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, 2, info.TablesCount)
		assert.Equal(t, 3, info.TotalRows)

		read, err := svc.EmergencyInfo(ctx)
		require.NoError(t, err)
		assert.True(t, read.Available)
		assert.Equal(t, "admin-1", read.UpdatedBy)

		db, err := svc.EmergencyDownload(ctx, "database")
		require.NoError(t, err)
		var doc map[string][]map[string]string
		require.NoError(t, json.Unmarshal(db.Body, &doc))
		assert.Len(t, doc["users"], 2)

		readme, err := svc.EmergencyDownload(ctx, "readme")
		require.NoError(t, err)
		assert.Contains(t, string(readme.Body), "vipoctl backup restore")

		all, err := svc.EmergencyDownload(ctx, "all")
		require.NoError(t, err)
		zr, err := zip.NewReader(bytes.NewReader(all.Body), int64(len(all.Body)))
		require.NoError(t, err)
		assert.Len(t, zr.File, 3)

		_, err = svc.EmergencyDownload(ctx, "env")
		assert.Equal(t, "invalid_type", apiCode(t, err))
	})
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, store, _ := newTestService(t, Options{})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			shared.SetIdentity(c, &shared.Identity{UserID: "admin-1", Role: types.Role(role)})
		}
		c.Next()
	})
	RegisterRoutes(r.Group("/api"), svc, shared.NewRateLimiter(nil, true, ""))

	do := func(role string, req *http.Request) *httptest.ResponseRecorder {
		if role != "" {
			req.Header.Set("X-Test-Role", role)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("", httptest.NewRequest(http.MethodGet, "/api/admin/backups", nil)).Code)
	assert.Equal(t, http.StatusForbidden, do("agent", httptest.NewRequest(http.MethodGet, "/api/admin/backups", nil)).Code)

	deploy := httptest.NewRequest(http.MethodPost, "/api/admin/backups", strings.NewReader(`{"action":"deploy"}`))
	deploy.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do("admin", deploy).Code)

	backup := httptest.NewRequest(http.MethodPost, "/api/admin/backups", strings.NewReader(`{"action":"backup"}`))
	backup.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, do("admin", backup).Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "restore.zip")
	require.NoError(t, err)
	_, _ = part.Write(archiveBytes(t))
	require.NoError(t, mw.WriteField("action", "restore"))
	require.NoError(t, mw.Close())
	upload := httptest.NewRequest(http.MethodPost, "/api/admin/backups/upload", &body)
	upload.Header.Set("Content-Type", mw.FormDataContentType())
	w := do("admin", upload)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `[{"id":"u9"}]`, store.restoredData("users"))

	list := do("admin", httptest.NewRequest(http.MethodGet, "/api/admin/backups", nil))
	var resp struct {
		Backups []BackupInfo `json:"backups"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	assert.Len(t, resp.Backups, 2)
}
