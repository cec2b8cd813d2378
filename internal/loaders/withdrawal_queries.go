package loaders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/vipogroup/vipo-api/internal/types"
)

// ErrInsufficientBalance means the conditional balance lock matched no row.
var ErrInsufficientBalance = errors.New("insufficient balance")

const withdrawalColumns = `w.id, w.user_id, w.amount, w.notes, w.payment_details, w.status, w.admin_notes,
	w.snapshot_balance, w.snapshot_on_hold, w.processed_by, w.processed_at, w.created_at, w.updated_at`

func scanWithdrawal(row pgx.Row, extra ...interface{}) (*types.WithdrawalRequest, error) {
	var (
		w       types.WithdrawalRequest
		details []byte
	)
	dest := []interface{}{&w.ID, &w.UserID, &w.Amount, &w.Notes, &details, &w.Status, &w.AdminNotes,
		&w.SnapshotBalance, &w.SnapshotOnHold, &w.ProcessedBy, &w.ProcessedAt, &w.CreatedAt, &w.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, notFound(err)
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &w.PaymentDetails); err != nil {
			return nil, fmt.Errorf("failed to decode payment details: %w", err)
		}
	}
	return &w, nil
}

func (c *PostgresClient) FindOpenWithdrawal(ctx context.Context, userID string) (*types.WithdrawalRequest, error) {
	return scanWithdrawal(c.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests w
		WHERE w.user_id = $1 AND w.status IN ('pending', 'approved')
		ORDER BY w.created_at DESC LIMIT 1`, userID))
}

// CreateWithdrawal locks amount from the user's balance into on-hold and
// inserts the request. Both happen or neither does.
func (c *PostgresClient) CreateWithdrawal(ctx context.Context, w *types.WithdrawalRequest) error {
	details, err := json.Marshal(w.PaymentDetails)
	if err != nil {
		return err
	}
	return c.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `UPDATE users SET commission_balance = commission_balance - $2,
				commission_on_hold = commission_on_hold + $2, updated_at = now()
			WHERE id = $1 AND commission_balance >= $2
			RETURNING commission_balance + $2, commission_on_hold - $2`, w.UserID, w.Amount).
			Scan(&w.SnapshotBalance, &w.SnapshotOnHold)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientBalance
		}
		if err != nil {
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		_, err = tx.Exec(ctx, `INSERT INTO withdrawal_requests (id, user_id, amount, notes, payment_details,
				status, snapshot_balance, snapshot_on_hold, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
			w.ID, w.UserID, w.Amount, w.Notes, details, w.Status, w.SnapshotBalance, w.SnapshotOnHold, w.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to insert withdrawal: %w", err)
		}
		return nil
	})
}

func (c *PostgresClient) ListUserWithdrawals(ctx context.Context, userID string, limit int) ([]types.WithdrawalRequest, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests w
		WHERE w.user_id = $1 ORDER BY w.created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []types.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

const withdrawalUserJoin = `SELECT ` + withdrawalColumns + `,
		u.full_name, COALESCE(u.email, ''), COALESCE(u.phone, ''), u.role, u.commission_balance, u.commission_on_hold
	FROM withdrawal_requests w JOIN users u ON u.id = w.user_id`

func scanWithdrawalWithUser(row pgx.Row) (*types.WithdrawalWithUser, error) {
	var u types.UserSummary
	w, err := scanWithdrawal(row, &u.FullName, &u.Email, &u.Phone, &u.Role, &u.CommissionBalance, &u.CommissionOnHold)
	if err != nil {
		return nil, err
	}
	u.ID = w.UserID
	return &types.WithdrawalWithUser{WithdrawalRequest: *w, User: &u}, nil
}

func (c *PostgresClient) ListWithdrawals(ctx context.Context, status types.WithdrawalStatus, limit, offset int) ([]types.WithdrawalWithUser, int, error) {
	var total int
	if err := c.pool.QueryRow(ctx, `SELECT count(*) FROM withdrawal_requests WHERE ($1 = '' OR status = $1)`,
		string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}
	rows, err := c.pool.Query(ctx, withdrawalUserJoin+` WHERE ($1 = '' OR w.status = $1)
		ORDER BY w.created_at DESC LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []types.WithdrawalWithUser
	for rows.Next() {
		w, err := scanWithdrawalWithUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *w)
	}
	return out, total, rows.Err()
}

func (c *PostgresClient) GetWithdrawal(ctx context.Context, id string) (*types.WithdrawalWithUser, error) {
	return scanWithdrawalWithUser(c.pool.QueryRow(ctx, withdrawalUserJoin+` WHERE w.id = $1`, id))
}

func (c *PostgresClient) WithdrawalStats(ctx context.Context) ([]types.WithdrawalStats, error) {
	rows, err := c.pool.Query(ctx, `SELECT status, count(*), COALESCE(sum(amount), 0)
		FROM withdrawal_requests GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal stats: %w", err)
	}
	defer rows.Close()

	var stats []types.WithdrawalStats
	for rows.Next() {
		var s types.WithdrawalStats
		if err := rows.Scan(&s.Status, &s.Count, &s.Amount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// HoldMovement says what happens to the reserved amount on a transition.
type HoldMovement int

const (
	HoldKeep HoldMovement = iota
	// HoldRefund returns the reserved amount to the spendable balance.
	HoldRefund
	// HoldRelease pays the reserved amount out.
	HoldRelease
)

type WithdrawalTransition struct {
	ID          string
	From        []types.WithdrawalStatus
	To          types.WithdrawalStatus
	AdminNotes  string
	ProcessedBy string
	Hold        HoldMovement
}

// TransitionWithdrawal applies a status compare-and-set and its balance
// movement in one transaction. It returns ErrNotFound for unknown ids and
// ErrConflict when the request is not in one of t.From.
func (c *PostgresClient) TransitionWithdrawal(ctx context.Context, t WithdrawalTransition) (*types.WithdrawalRequest, error) {
	from := make([]string, len(t.From))
	for i, s := range t.From {
		from[i] = string(s)
	}

	var updated *types.WithdrawalRequest
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = scanWithdrawal(tx.QueryRow(ctx, `UPDATE withdrawal_requests w SET status = $2,
				admin_notes = CASE WHEN $3 = '' THEN w.admin_notes ELSE $3 END,
				processed_by = $4, processed_at = $5, updated_at = $5
			WHERE w.id = $1 AND w.status = ANY($6)
			RETURNING `+withdrawalColumns,
			t.ID, t.To, t.AdminNotes, nullable(t.ProcessedBy), time.Now().UTC(), from))
		if errors.Is(err, ErrNotFound) {
			var exists bool
			if qerr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM withdrawal_requests WHERE id = $1)`, t.ID).Scan(&exists); qerr != nil {
				return qerr
			}
			if exists {
				return ErrConflict
			}
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update withdrawal: %w", err)
		}

		switch t.Hold {
		case HoldRefund:
			_, err = tx.Exec(ctx, `UPDATE users SET commission_balance = commission_balance + $2,
					commission_on_hold = GREATEST(commission_on_hold - $2, 0), updated_at = now()
				WHERE id = $1`, updated.UserID, updated.Amount)
		case HoldRelease:
			_, err = tx.Exec(ctx, `UPDATE users SET commission_on_hold = GREATEST(commission_on_hold - $2, 0),
					updated_at = now() WHERE id = $1`, updated.UserID, updated.Amount)
			if err == nil {
				_, err = tx.Exec(ctx, `UPDATE orders SET commission_status = 'claimed', updated_at = now()
					WHERE id IN (
						SELECT id FROM (
							SELECT id, sum(commission_amount) OVER (ORDER BY created_at, id) AS running
							FROM orders
							WHERE commission_status = 'available' AND COALESCE(agent_id, ref_agent_id) = $1
						) s WHERE running <= $2
					)`, updated.UserID, updated.Amount)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to move held balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
