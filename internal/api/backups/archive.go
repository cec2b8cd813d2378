package backups

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vipogroup/vipo-api/internal/loaders"
)

const (
	manifestName    = "manifest.json"
	manifestVersion = 1
	maxEntryBytes   = 256 << 20
)

var (
	errNoManifest   = errors.New("archive has no manifest.json")
	errChecksum     = errors.New("checksum mismatch")
	errRowCount     = errors.New("row count mismatch")
	errMissingTable = errors.New("archive is missing a table")
	errUnknownTable = errors.New("archive lists an unknown table")
)

type TableEntry struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Rows   int    `json:"rows"`
	SHA256 string `json:"sha256"`
}

type Manifest struct {
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	CreatedBy string       `json:"createdBy,omitempty"`
	Tables    []TableEntry `json:"tables"`
}

func (m *Manifest) TotalRows() int {
	total := 0
	for _, t := range m.Tables {
		total += t.Rows
	}
	return total
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeArchive stores each dump as <table>.json next to a manifest that
// records row counts and checksums.
func writeArchive(w io.Writer, createdAt time.Time, createdBy string, dumps []loaders.TableDump) (*Manifest, error) {
	manifest := &Manifest{Version: manifestVersion, CreatedAt: createdAt.UTC(), CreatedBy: createdBy}
	zw := zip.NewWriter(w)
	for _, d := range dumps {
		entry := TableEntry{Name: d.Name, File: d.Name + ".json", Rows: d.Rows, SHA256: checksum(d.Data)}
		f, err := zw.Create(entry.File)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", entry.File, err)
		}
		if _, err := f.Write(d.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", entry.File, err)
		}
		manifest.Tables = append(manifest.Tables, entry)
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	f, err := zw.Create(manifestName)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return manifest, nil
}

// readArchive checks an archive against the expected table list. Every
// table must be listed once in the manifest, and each entry must match its
// checksum and row count. With load set the verified dumps are returned in
// the order of tables; otherwise entries are only streamed through the checks.
func readArchive(r io.ReaderAt, size int64, tables []string, load bool) (*Manifest, []loaders.TableDump, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, nil, fmt.Errorf("not a zip archive: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	mf, ok := files[manifestName]
	if !ok {
		return nil, nil, errNoManifest
	}
	rc, err := mf.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	var manifest Manifest
	err = json.NewDecoder(io.LimitReader(rc, 1<<20)).Decode(&manifest)
	rc.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Version != manifestVersion {
		return nil, nil, fmt.Errorf("unsupported manifest version %d", manifest.Version)
	}

	wanted := make(map[string]bool, len(tables))
	for _, t := range tables {
		wanted[t] = true
	}
	entries := make(map[string]TableEntry, len(manifest.Tables))
	for _, t := range manifest.Tables {
		if !wanted[t.Name] {
			return nil, nil, fmt.Errorf("%w: %q", errUnknownTable, t.Name)
		}
		if _, dup := entries[t.Name]; dup {
			return nil, nil, fmt.Errorf("manifest lists %q twice", t.Name)
		}
		entries[t.Name] = t
	}

	var dumps []loaders.TableDump
	for _, table := range tables {
		entry, ok := entries[table]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", errMissingTable, table)
		}
		f, ok := files[entry.File]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", errMissingTable, entry.File)
		}
		data, err := readTable(f, entry, load)
		if err != nil {
			return nil, nil, err
		}
		if load {
			dumps = append(dumps, loaders.TableDump{Name: table, Rows: entry.Rows, Data: data})
		}
	}
	return &manifest, dumps, nil
}

// readTable streams one entry through the checksum and a row counter. The
// body is kept only when keep is set.
func readTable(f *zip.File, entry TableEntry, keep bool) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	h := sha256.New()
	var buf bytes.Buffer
	var sink io.Writer = h
	if keep {
		sink = io.MultiWriter(h, &buf)
	}
	lr := &io.LimitedReader{R: rc, N: maxEntryBytes + 1}
	tee := io.TeeReader(lr, sink)

	rows, countErr := countRows(tee)
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("%s is too large", f.Name)
	}
	if hex.EncodeToString(h.Sum(nil)) != entry.SHA256 {
		return nil, fmt.Errorf("%s: %w", f.Name, errChecksum)
	}
	if countErr != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, countErr)
	}
	if rows != entry.Rows {
		return nil, fmt.Errorf("%s: %w: manifest says %d, file has %d", f.Name, errRowCount, entry.Rows, rows)
	}
	return buf.Bytes(), nil
}

// countRows counts the elements of a JSON array without keeping them.
func countRows(r io.Reader) (int, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return 0, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return 0, errors.New("table dump is not a JSON array")
	}
	rows := 0
	for dec.More() {
		var row json.RawMessage
		if err := dec.Decode(&row); err != nil {
			return 0, err
		}
		rows++
	}
	if _, err := dec.Token(); err != nil {
		return 0, err
	}
	return rows, nil
}
