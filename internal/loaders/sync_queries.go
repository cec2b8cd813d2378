package loaders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/vipogroup/vipo-api/internal/types"
)

const syncColumns = `m.order_id, m.sync_status, m.priority_invoice_id, m.invoice_number, m.priority_receipt_id,
	m.priority_credit_note_id, m.priority_customer_id, m.payplus_amount, m.amount_mismatch, m.last_error,
	m.created_at, m.updated_at`

func scanSyncMap(row pgx.Row, extra ...interface{}) (*types.SyncMap, error) {
	var m types.SyncMap
	dest := []interface{}{&m.OrderID, &m.SyncStatus, &m.PriorityInvoiceID, &m.InvoiceNumber,
		&m.PriorityReceiptID, &m.PriorityCreditNoteID, &m.PriorityCustomerID, &m.PayplusAmount,
		&m.AmountMismatch, &m.LastError, &m.CreatedAt, &m.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// ListSyncRecords joins sync maps with their orders created in [from, to].
func (c *PostgresClient) ListSyncRecords(ctx context.Context, from, to time.Time) ([]types.SyncRecord, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+syncColumns+`, o.total_amount, o.created_at
		FROM integration_sync_maps m JOIN orders o ON o.id = m.order_id
		WHERE o.created_at >= $1 AND o.created_at <= $2
		ORDER BY o.created_at DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync maps: %w", err)
	}
	defer rows.Close()

	var out []types.SyncRecord
	for rows.Next() {
		var rec types.SyncRecord
		m, err := scanSyncMap(rows, &rec.OrderAmount, &rec.OrderCreatedAt)
		if err != nil {
			return nil, err
		}
		rec.SyncMap = *m
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateSyncMap creates or patches the order's sync map. amount_mismatch is
// recomputed against the order total.
func (c *PostgresClient) UpdateSyncMap(ctx context.Context, orderID string, u types.SyncUpdate) (*types.SyncMap, error) {
	var m *types.SyncMap
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		var total float64
		if err := tx.QueryRow(ctx, `SELECT total_amount FROM orders WHERE id = $1`, orderID).Scan(&total); err != nil {
			return notFound(err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO integration_sync_maps (order_id) VALUES ($1)
			ON CONFLICT (order_id) DO NOTHING`, orderID); err != nil {
			return fmt.Errorf("failed to open sync map: %w", err)
		}
		var err error
		m, err = scanSyncMap(tx.QueryRow(ctx, `UPDATE integration_sync_maps m SET
				sync_status = COALESCE(NULLIF($2, ''), m.sync_status),
				priority_invoice_id = COALESCE($3, m.priority_invoice_id),
				invoice_number = COALESCE($4, m.invoice_number),
				priority_receipt_id = COALESCE($5, m.priority_receipt_id),
				priority_credit_note_id = COALESCE($6, m.priority_credit_note_id),
				priority_customer_id = COALESCE($7, m.priority_customer_id),
				payplus_amount = COALESCE($8, m.payplus_amount),
				last_error = COALESCE($9, m.last_error),
				amount_mismatch = COALESCE($8, m.payplus_amount) IS NOT NULL
					AND abs(COALESCE($8, m.payplus_amount) - $10) > 0.01,
				updated_at = now()
			WHERE m.order_id = $1
			RETURNING `+syncColumns,
			orderID, string(u.SyncStatus), u.PriorityInvoiceID, u.InvoiceNumber, u.PriorityReceiptID,
			u.PriorityCreditNoteID, u.PriorityCustomerID, u.PayplusAmount, u.LastError, total))
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
