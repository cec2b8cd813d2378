package loaders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/vipogroup/vipo-api/internal/types"
)

const userColumns = `id, full_name, email, phone, password_hash, role, is_active, referred_by,
	referrals_count, coupon_code, coupon_status, discount_percent, commission_percent,
	commission_balance, commission_on_hold, total_sales, created_at, updated_at, COALESCE(tenant_id, '')`

func scanUser(row pgx.Row) (*types.User, error) {
	var (
		u                   types.User
		email, phone, coupon *string
	)
	err := row.Scan(&u.ID, &u.FullName, &email, &phone, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.ReferredBy, &u.ReferralsCount, &coupon, &u.CouponStatus, &u.DiscountPercent,
		&u.CommissionPercent, &u.CommissionBalance, &u.CommissionOnHold, &u.TotalSales,
		&u.CreatedAt, &u.UpdatedAt, &u.TenantID)
	if err != nil {
		return nil, notFound(err)
	}
	u.Email = deref(email)
	u.Phone = deref(phone)
	u.CouponCode = deref(coupon)
	return &u, nil
}

func scanUsers(rows pgx.Rows) ([]types.User, error) {
	defer rows.Close()
	var users []types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// RegisterUser inserts u and, when referrerID is set, credits the referrer
// in the same transaction.
func (c *PostgresClient) RegisterUser(ctx context.Context, u *types.User, referrerID string, referralBonus float64) error {
	return c.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO users (id, full_name, email, phone, password_hash, role, is_active,
				referred_by, coupon_code, coupon_status, discount_percent, commission_percent, created_at, updated_at,
				tenant_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, $14)`,
			u.ID, u.FullName, nullable(u.Email), nullable(u.Phone), u.PasswordHash, u.Role, u.IsActive,
			nullable(referrerID), nullable(u.CouponCode), u.CouponStatus, u.DiscountPercent,
			u.CommissionPercent, u.CreatedAt, nullable(u.TenantID))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}
		if referrerID == "" {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE users SET referrals_count = referrals_count + 1,
				commission_balance = commission_balance + $2, updated_at = now()
			WHERE id = $1`, referrerID, referralBonus)
		if err != nil {
			return fmt.Errorf("failed to credit referrer: %w", err)
		}
		return nil
	})
}

func (c *PostgresClient) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	return scanUser(c.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindUserByLogin matches a normalized email or phone. Empty values never match.
func (c *PostgresClient) FindUserByLogin(ctx context.Context, email, phone string) (*types.User, error) {
	return scanUser(c.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users
		WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2)
		ORDER BY created_at LIMIT 1`, email, phone))
}

// FindAgentByCoupon matches coupon codes case-insensitively.
func (c *PostgresClient) FindAgentByCoupon(ctx context.Context, code string) (*types.User, error) {
	return scanUser(c.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users
		WHERE role = 'agent' AND lower(coupon_code) = lower($1)`, strings.TrimSpace(code)))
}

func (c *PostgresClient) CouponExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := c.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(coupon_code) = lower($1))`, code).Scan(&exists)
	return exists, err
}

func (c *PostgresClient) ListAgents(ctx context.Context, query string, limit, offset int) ([]types.User, int, error) {
	where := `role = 'agent' AND ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		OR coupon_code ILIKE '%' || $1 || '%')`

	var total int
	if err := c.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE `+where, query).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count agents: %w", err)
	}
	rows, err := c.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+`
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list agents: %w", err)
	}
	agents, err := scanUsers(rows)
	return agents, total, err
}

func (c *PostgresClient) UpdateAgentSettings(ctx context.Context, id string, upd types.AgentSettingsUpdate) (*types.User, error) {
	u, err := scanUser(c.pool.QueryRow(ctx, `UPDATE users SET
			discount_percent = COALESCE($2, discount_percent),
			commission_percent = COALESCE($3, commission_percent),
			coupon_status = COALESCE($4, coupon_status),
			coupon_code = COALESCE($5, coupon_code),
			updated_at = $6
		WHERE id = $1 AND role = 'agent'
		RETURNING `+userColumns,
		id, upd.DiscountPercent, upd.CommissionPercent, upd.CouponStatus, upd.CouponCode, time.Now().UTC()))
	if err != nil && isUniqueViolation(err) {
		return nil, ErrConflict
	}
	return u, err
}
