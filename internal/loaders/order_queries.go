package loaders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"github.com/vipogroup/vipo-api/internal/types"
)

const orderColumns = `id, created_by, customer, items, subtotal, discount_percent, discount_amount,
	total_amount, status, payment_status, ref_source, ref_agent_id, agent_id, applied_coupon_code,
	commission_percent, commission_amount, commission_status, commission_available_at, created_at, updated_at,
	COALESCE(tenant_id, '')`

func scanOrder(row pgx.Row) (*types.Order, error) {
	var (
		o               types.Order
		customer, items []byte
	)
	err := row.Scan(&o.ID, &o.CreatedBy, &customer, &items, &o.Subtotal, &o.DiscountPercent,
		&o.DiscountAmount, &o.TotalAmount, &o.Status, &o.PaymentStatus, &o.RefSource, &o.RefAgentID,
		&o.AgentID, &o.AppliedCouponCode, &o.CommissionPercent, &o.CommissionAmount,
		&o.CommissionStatus, &o.CommissionAvailableAt, &o.CreatedAt, &o.UpdatedAt, &o.TenantID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("failed to decode order customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]types.Order, error) {
	defer rows.Close()
	var orders []types.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (c *PostgresClient) CreateOrder(ctx context.Context, o *types.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx, `INSERT INTO orders (id, created_by, customer, items, subtotal,
			discount_percent, discount_amount, total_amount, status, payment_status, ref_source,
			ref_agent_id, agent_id, applied_coupon_code, commission_percent, commission_amount,
			commission_status, commission_available_at, created_at, updated_at, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19, $20)`,
		o.ID, o.CreatedBy, customer, items, o.Subtotal, o.DiscountPercent, o.DiscountAmount,
		o.TotalAmount, o.Status, o.PaymentStatus, o.RefSource, o.RefAgentID, o.AgentID,
		o.AppliedCouponCode, o.CommissionPercent, o.CommissionAmount, o.CommissionStatus,
		o.CommissionAvailableAt, o.CreatedAt, nullable(o.TenantID))
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (c *PostgresClient) GetOrder(ctx context.Context, id string) (*types.Order, error) {
	return scanOrder(c.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (c *PostgresClient) ListOrders(ctx context.Context, f types.OrderFilter) ([]types.Order, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case f.AgentID != "":
		p := arg(f.AgentID)
		conds = append(conds, "(agent_id = "+p+" OR ref_agent_id = "+p+" OR created_by = "+p+")")
	case f.CustomerID != "" || f.CustomerEmail != "":
		conds = append(conds, "(created_by = "+arg(f.CustomerID)+
			" OR ("+arg(f.CustomerEmail)+" <> '' AND customer->>'email' = "+arg(f.CustomerEmail)+"))")
	}
	if f.TenantID != "" {
		conds = append(conds, "tenant_id = "+arg(f.TenantID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg(q)
		conds = append(conds, "(customer->>'phone' ILIKE '%' || "+p+" || '%' OR EXISTS (SELECT 1 FROM "+
			"jsonb_array_elements(items) it WHERE it->>'sku' ILIKE '%' || "+p+" || '%'))")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := c.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	limit := arg(f.Limit)
	offset := arg(f.Offset)
	rows, err := c.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+
		` ORDER BY created_at DESC LIMIT `+limit+` OFFSET `+offset, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	orders, err := scanOrders(rows)
	return orders, total, err
}

// OrderTransition is a status compare-and-set plus its commission side effects.
type OrderTransition struct {
	OrderID       string
	From          types.OrderStatus
	To            types.OrderStatus
	PaymentStatus types.PaymentStatus

	CommissionStatus      types.CommissionStatus
	CommissionAvailableAt *time.Time
	// ReverseReleased takes back a commission already credited to the agent.
	ReverseReleased bool
	OpenSyncMap     bool
	CountSale       bool
}

func (c *PostgresClient) TransitionOrder(ctx context.Context, t OrderTransition) (*types.Order, error) {
	var updated *types.Order
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		current, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, t.OrderID))
		if err != nil {
			return err
		}
		if current.Status != t.From {
			return ErrConflict
		}

		agentID := current.CommissionAgentID()
		if t.ReverseReleased && agentID != "" && current.CommissionStatus == types.CommissionAvailable {
			if _, err := tx.Exec(ctx, `UPDATE users SET commission_balance = GREATEST(commission_balance - $2, 0),
					updated_at = now() WHERE id = $1`, agentID, current.CommissionAmount); err != nil {
				return fmt.Errorf("failed to reverse commission: %w", err)
			}
		}
		if t.CountSale && agentID != "" {
			if _, err := tx.Exec(ctx, `UPDATE users SET total_sales = total_sales + $2, updated_at = now()
					WHERE id = $1`, agentID, current.TotalAmount); err != nil {
				return fmt.Errorf("failed to record agent sale: %w", err)
			}
		}

		commissionStatus := current.CommissionStatus
		if t.CommissionStatus != "" {
			commissionStatus = t.CommissionStatus
		}
		availableAt := current.CommissionAvailableAt
		if t.CommissionAvailableAt != nil {
			availableAt = t.CommissionAvailableAt
		}
		paymentStatus := current.PaymentStatus
		if t.PaymentStatus != "" {
			paymentStatus = t.PaymentStatus
		}

		updated, err = scanOrder(tx.QueryRow(ctx, `UPDATE orders SET status = $2, payment_status = $3,
				commission_status = $4, commission_available_at = $5, updated_at = now()
			WHERE id = $1 RETURNING `+orderColumns,
			t.OrderID, t.To, paymentStatus, commissionStatus, availableAt))
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		if t.OpenSyncMap {
			if _, err := tx.Exec(ctx, `INSERT INTO integration_sync_maps (order_id) VALUES ($1)
				ON CONFLICT (order_id) DO NOTHING`, t.OrderID); err != nil {
				return fmt.Errorf("failed to open sync map: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReleasedCommission is one order whose commission became available.
type ReleasedCommission struct {
	OrderID string
	AgentID string
	Amount  float64
}

// SumByAgent totals released commissions per agent without float drift.
func SumByAgent(released []ReleasedCommission) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, r := range released {
		if r.AgentID == "" || r.Amount <= 0 {
			continue
		}
		sums[r.AgentID] = sums[r.AgentID].Add(decimal.NewFromFloat(r.Amount))
	}
	out := make(map[string]float64, len(sums))
	for agent, d := range sums {
		out[agent], _ = d.Round(2).Float64()
	}
	return out
}

// ReleaseDueCommissions moves every matured pending commission to available
// and credits the agents, all in one transaction.
func (c *PostgresClient) ReleaseDueCommissions(ctx context.Context, now time.Time) ([]ReleasedCommission, error) {
	var released []ReleasedCommission
	err := c.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `UPDATE orders SET commission_status = 'available', updated_at = now()
			WHERE commission_status = 'pending'
				AND commission_amount > 0
				AND commission_available_at IS NOT NULL
				AND commission_available_at <= $1
				AND status IN ('paid', 'completed')
				AND COALESCE(agent_id, ref_agent_id) IS NOT NULL
			RETURNING id, COALESCE(agent_id, ref_agent_id), commission_amount`, now)
		if err != nil {
			return fmt.Errorf("failed to release commissions: %w", err)
		}
		for rows.Next() {
			var r ReleasedCommission
			if err := rows.Scan(&r.OrderID, &r.AgentID, &r.Amount); err != nil {
				rows.Close()
				return err
			}
			released = append(released, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for agentID, amount := range SumByAgent(released) {
			if _, err := tx.Exec(ctx, `UPDATE users SET commission_balance = commission_balance + $2,
					updated_at = now() WHERE id = $1`, agentID, amount); err != nil {
				return fmt.Errorf("failed to credit agent %s: %w", agentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

type CommissionBucket struct {
	Status types.CommissionStatus `json:"status"`
	Count  int                    `json:"count"`
	Amount float64                `json:"amount"`
}

func (c *PostgresClient) CommissionBuckets(ctx context.Context, agentID string) ([]CommissionBucket, error) {
	rows, err := c.pool.Query(ctx, `SELECT commission_status, count(*), COALESCE(sum(commission_amount), 0)
		FROM orders
		WHERE (agent_id = $1 OR ref_agent_id = $1) AND commission_amount > 0
		GROUP BY commission_status`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize commissions: %w", err)
	}
	defer rows.Close()

	var buckets []CommissionBucket
	for rows.Next() {
		var b CommissionBucket
		if err := rows.Scan(&b.Status, &b.Count, &b.Amount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (c *PostgresClient) ListCommissionOrders(ctx context.Context, agentID string, limit int) ([]types.Order, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE (agent_id = $1 OR ref_agent_id = $1) AND commission_amount > 0
		ORDER BY created_at DESC LIMIT $2`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission orders: %w", err)
	}
	return scanOrders(rows)
}
