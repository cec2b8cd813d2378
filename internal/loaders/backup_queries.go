package loaders

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"golang.org/x/sync/errgroup"
)

// TableDump is one table serialised as a JSON array of rows.
type TableDump struct {
	Name string
	Rows int
	Data []byte
}

const dumpParallelism = 4

var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func isBackupTable(name string) bool {
	for _, t := range BackupTables {
		if t == name {
			return true
		}
	}
	return false
}

// DumpTables dumps tables concurrently. The workers import a snapshot
// exported by a coordinating transaction, so every dump sees the same
// instant. The pool needs at least two connections.
func (c *PostgresClient) DumpTables(ctx context.Context, tables []string) ([]TableDump, error) {
	for _, t := range tables {
		if !isBackupTable(t) {
			return nil, fmt.Errorf("unknown table %q", t)
		}
	}

	coord, err := c.pool.BeginTx(ctx, snapshotTx)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot transaction: %w", err)
	}
	defer coord.Rollback(ctx)

	var snapshot string
	if err := coord.QueryRow(ctx, `SELECT pg_export_snapshot()`).Scan(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to export snapshot: %w", err)
	}

	dumps := make([]TableDump, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dumpParallelism)
	for i, table := range tables {
		g.Go(func() error {
			d, err := c.dumpTable(gctx, snapshot, table)
			if err != nil {
				return err
			}
			dumps[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dumps, nil
}

func (c *PostgresClient) dumpTable(ctx context.Context, snapshot, table string) (TableDump, error) {
	d := TableDump{Name: table}
	tx, err := c.pool.BeginTx(ctx, snapshotTx)
	if err != nil {
		return d, fmt.Errorf("failed to begin dump of %s: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SET TRANSACTION SNAPSHOT `+quoteLiteral(snapshot)); err != nil {
		return d, fmt.Errorf("failed to import snapshot: %w", err)
	}
	err = tx.QueryRow(ctx, `SELECT COALESCE(json_agg(t), '[]'::json), count(*) FROM `+
		pgx.Identifier{table}.Sanitize()+` t`).Scan(&d.Data, &d.Rows)
	if err != nil {
		return d, fmt.Errorf("failed to dump %s: %w", table, err)
	}
	return d, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// RestoreTables replaces the content of every backup table inside one
// transaction. dumps must cover every table, and each insert must write
// exactly the recorded number of rows, or nothing changes.
func (c *PostgresClient) RestoreTables(ctx context.Context, dumps []TableDump) error {
	byName := make(map[string]TableDump, len(dumps))
	for _, d := range dumps {
		if !isBackupTable(d.Name) {
			return fmt.Errorf("unknown table %q", d.Name)
		}
		byName[d.Name] = d
	}
	quoted := make([]string, len(BackupTables))
	for i, t := range BackupTables {
		if _, ok := byName[t]; !ok {
			return fmt.Errorf("restore is missing table %q", t)
		}
		quoted[i] = pgx.Identifier{t}.Sanitize()
	}

	return c.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE `+strings.Join(quoted, ", ")+` CASCADE`); err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
		for i, table := range BackupTables {
			d := byName[table]
			if d.Rows == 0 {
				continue
			}
			tag, err := tx.Exec(ctx, `INSERT INTO `+quoted[i]+` SELECT * FROM json_populate_recordset(NULL::`+
				quoted[i]+`, $1::json)`, string(d.Data))
			if err != nil {
				return fmt.Errorf("failed to restore %s: %w", table, err)
			}
			if int(tag.RowsAffected()) != d.Rows {
				return fmt.Errorf("restore of %s wrote %d rows, expected %d", table, tag.RowsAffected(), d.Rows)
			}
		}
		return nil
	})
}

func (c *PostgresClient) DatabaseSize(ctx context.Context) (string, error) {
	var size string
	err := c.pool.QueryRow(ctx, `SELECT pg_size_pretty(pg_database_size(current_database()))`).Scan(&size)
	return size, err
}
