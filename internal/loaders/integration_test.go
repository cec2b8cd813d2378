package loaders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipogroup/vipo-api/internal/types"
)

// testClient connects to DATABASE_URL inside a throwaway schema so the
// tests never touch existing data. Tests skip when DATABASE_URL is unset.
func testClient(t *testing.T) *PostgresClient {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	admin, err := NewPostgresClient(dsn, 2, 10)
	require.NoError(t, err)

	suffix := make([]byte, 6)
	_, err = rand.Read(suffix)
	require.NoError(t, err)
	schemaName := "vipo_it_" + hex.EncodeToString(suffix)
	quoted := pgx.Identifier{schemaName}.Sanitize()

	_, err = admin.pool.Exec(ctx, `CREATE SCHEMA `+quoted)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.pool.Exec(context.Background(), `DROP SCHEMA `+quoted+` CASCADE`)
		admin.Close()
	})

	c, err := NewPostgresClient(withSearchPath(t, dsn, schemaName), 6, 10)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	require.NoError(t, c.Migrate(ctx))
	return c
}

func withSearchPath(t *testing.T, dsn, schemaName string) string {
	t.Helper()
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schemaName
	}
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schemaName)
	u.RawQuery = q.Encode()
	return u.String()
}

func seedUser(t *testing.T, c *PostgresClient, id string, role types.Role, balance float64) {
	t.Helper()
	ctx := context.Background()
	u := &types.User{
		ID:           id,
		FullName:     id,
		Email:        id + "@vipo.co",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		CouponStatus: types.CouponInactive,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, c.RegisterUser(ctx, u, "", 0))
	if balance > 0 {
		_, err := c.pool.Exec(ctx, `UPDATE users SET commission_balance = $2 WHERE id = $1`, id, balance)
		require.NoError(t, err)
	}
}

func seedOrder(t *testing.T, c *PostgresClient, o types.Order) {
	t.Helper()
	if o.Status == "" {
		o.Status = types.OrderPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = types.PaymentPending
	}
	if o.CommissionStatus == "" {
		o.CommissionStatus = types.CommissionNone
	}
	if o.Items == nil {
		o.Items = []types.OrderItem{}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.UpdatedAt = o.CreatedAt
	require.NoError(t, c.CreateOrder(context.Background(), &o))
}

func balances(t *testing.T, c *PostgresClient, id string) (float64, float64) {
	t.Helper()
	u, err := c.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u.CommissionBalance, u.CommissionOnHold
}

func commissionStatus(t *testing.T, c *PostgresClient, orderID string) types.CommissionStatus {
	t.Helper()
	o, err := c.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	return o.CommissionStatus
}

func TestReleaseDueCommissionsIntegration(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	seedUser(t, c, "agent-1", types.RoleAgent, 0)
	seedUser(t, c, "cust-1", types.RoleCustomer, 0)
	agent := "agent-1"

	due := func(id string, status types.OrderStatus, amount float64, at time.Time) types.Order {
		return types.Order{ID: id, CreatedBy: "cust-1", Status: status, AgentID: &agent,
			CommissionAmount: amount, CommissionStatus: types.CommissionPending, CommissionAvailableAt: &at}
	}
	seedOrder(t, c, due("o-due", types.OrderPaid, 10.1, past))
	seedOrder(t, c, due("o-due-2", types.OrderCompleted, 5.2, past))
	seedOrder(t, c, due("o-held", types.OrderPaid, 7, future))
	seedOrder(t, c, due("o-unpaid", types.OrderPending, 3, past))

	released, err := c.ReleaseDueCommissions(ctx, now)
	require.NoError(t, err)
	ids := make([]string, 0, len(released))
	for _, r := range released {
		ids = append(ids, r.OrderID)
		assert.Equal(t, "agent-1", r.AgentID)
	}
	assert.ElementsMatch(t, []string{"o-due", "o-due-2"}, ids)

	balance, _ := balances(t, c, "agent-1")
	assert.Equal(t, 15.3, balance)
	assert.Equal(t, types.CommissionAvailable, commissionStatus(t, c, "o-due"))
	assert.Equal(t, types.CommissionPending, commissionStatus(t, c, "o-held"))
	assert.Equal(t, types.CommissionPending, commissionStatus(t, c, "o-unpaid"))

	again, err := c.ReleaseDueCommissions(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again)
	balance, _ = balances(t, c, "agent-1")
	assert.Equal(t, 15.3, balance, "a second run credits nothing")
}

func newWithdrawal(id, userID string, amount float64) *types.WithdrawalRequest {
	return &types.WithdrawalRequest{ID: id, UserID: userID, Amount: amount,
		Status: types.WithdrawalPending, CreatedAt: time.Now().UTC()}
}

func TestCreateWithdrawalIntegration(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	seedUser(t, c, "agent-1", types.RoleAgent, 100)
	seedUser(t, c, "agent-2", types.RoleAgent, 5)

	w := newWithdrawal("w1", "agent-1", 60)
	require.NoError(t, c.CreateWithdrawal(ctx, w))
	assert.Equal(t, 100.0, w.SnapshotBalance)
	assert.Equal(t, 0.0, w.SnapshotOnHold)
	balance, hold := balances(t, c, "agent-1")
	assert.Equal(t, 40.0, balance)
	assert.Equal(t, 60.0, hold)

	t.Run("one open request per agent", func(t *testing.T) {
		err := c.CreateWithdrawal(ctx, newWithdrawal("w2", "agent-1", 10))
		assert.ErrorIs(t, err, ErrConflict)
		balance, hold := balances(t, c, "agent-1")
		assert.Equal(t, 40.0, balance, "the balance lock rolls back with the insert")
		assert.Equal(t, 60.0, hold)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		err := c.CreateWithdrawal(ctx, newWithdrawal("w3", "agent-2", 50))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		_, err = c.GetWithdrawal(ctx, "w3")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("closed requests free the slot", func(t *testing.T) {
		_, err := c.TransitionWithdrawal(ctx, WithdrawalTransition{ID: "w1",
			From: []types.WithdrawalStatus{types.WithdrawalPending}, To: types.WithdrawalRejected, Hold: HoldRefund})
		require.NoError(t, err)
		balance, hold := balances(t, c, "agent-1")
		assert.Equal(t, 100.0, balance)
		assert.Equal(t, 0.0, hold)
		assert.NoError(t, c.CreateWithdrawal(ctx, newWithdrawal("w4", "agent-1", 10)))
	})
}

func TestTransitionWithdrawalClaimsOldestFirst(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	seedUser(t, c, "agent-1", types.RoleAgent, 100)
	seedUser(t, c, "cust-1", types.RoleCustomer, 0)
	agent := "agent-1"

	base := time.Now().UTC().Add(-72 * time.Hour)
	for i, o := range []struct {
		id     string
		amount float64
	}{{"o-first", 30}, {"o-second", 20}, {"o-third", 50}} {
		seedOrder(t, c, types.Order{ID: o.id, CreatedBy: "cust-1", Status: types.OrderPaid, AgentID: &agent,
			CommissionAmount: o.amount, CommissionStatus: types.CommissionAvailable,
			CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	require.NoError(t, c.CreateWithdrawal(ctx, newWithdrawal("w1", "agent-1", 50)))

	_, err := c.TransitionWithdrawal(ctx, WithdrawalTransition{ID: "w1",
		From: []types.WithdrawalStatus{types.WithdrawalPending}, To: types.WithdrawalApproved, Hold: HoldKeep})
	require.NoError(t, err)
	assert.Equal(t, types.CommissionAvailable, commissionStatus(t, c, "o-first"), "approval claims nothing")

	done, err := c.TransitionWithdrawal(ctx, WithdrawalTransition{ID: "w1", ProcessedBy: "admin-1",
		From: []types.WithdrawalStatus{types.WithdrawalApproved}, To: types.WithdrawalCompleted, Hold: HoldRelease})
	require.NoError(t, err)
	assert.Equal(t, types.WithdrawalCompleted, done.Status)
	require.NotNil(t, done.ProcessedBy)
	assert.Equal(t, "admin-1", *done.ProcessedBy)

	assert.Equal(t, types.CommissionClaimed, commissionStatus(t, c, "o-first"))
	assert.Equal(t, types.CommissionClaimed, commissionStatus(t, c, "o-second"))
	assert.Equal(t, types.CommissionAvailable, commissionStatus(t, c, "o-third"))
	balance, hold := balances(t, c, "agent-1")
	assert.Equal(t, 50.0, balance)
	assert.Equal(t, 0.0, hold)

	_, err = c.TransitionWithdrawal(ctx, WithdrawalTransition{ID: "w1",
		From: []types.WithdrawalStatus{types.WithdrawalPending}, To: types.WithdrawalRejected, Hold: HoldRefund})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = c.TransitionWithdrawal(ctx, WithdrawalTransition{ID: "missing",
		From: []types.WithdrawalStatus{types.WithdrawalPending}, To: types.WithdrawalRejected, Hold: HoldRefund})
	assert.ErrorIs(t, err, ErrNotFound)
}

func countRows(t *testing.T, c *PostgresClient, table string) int {
	t.Helper()
	var n int
	require.NoError(t, c.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM `+pgx.Identifier{table}.Sanitize()).Scan(&n))
	return n
}

func TestDumpAndRestoreTables(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	seedUser(t, c, "cust-1", types.RoleCustomer, 0)
	now := time.Now().UTC()
	_, err := c.UpsertProducts(ctx, []types.Product{
		{ID: "p1", Slug: "mug", Name: "Mug", Price: 50, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "p2", TenantID: "shop-1", Slug: "tote", Name: "Tote", Price: 40, IsActive: true, CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	seedOrder(t, c, types.Order{ID: "o1", CreatedBy: "cust-1", Customer: types.Customer{Email: "cust-1@vipo.co"}})

	dumps, err := c.DumpTables(ctx, BackupTables)
	require.NoError(t, err)
	require.Len(t, dumps, len(BackupTables))
	rows := map[string]int{}
	for i, d := range dumps {
		assert.Equal(t, BackupTables[i], d.Name)
		rows[d.Name] = d.Rows
	}
	assert.Equal(t, 1, rows["users"])
	assert.Equal(t, 2, rows["products"])
	assert.Equal(t, 1, rows["orders"])

	_, err = c.UpsertProducts(ctx, []types.Product{{ID: "p3", Slug: "late", Name: "Late", CreatedAt: now, UpdatedAt: now}})
	require.NoError(t, err)
	require.NoError(t, c.RestoreTables(ctx, dumps))
	assert.Equal(t, 2, countRows(t, c, "products"))
	p, err := c.GetProduct(ctx, "tote")
	require.NoError(t, err)
	assert.Equal(t, "shop-1", p.TenantID)
	o, err := c.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "cust-1@vipo.co", o.Customer.Email)

	t.Run("missing table leaves data alone", func(t *testing.T) {
		err := c.RestoreTables(ctx, dumps[:2])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing table")
		assert.Equal(t, 1, countRows(t, c, "users"))
	})

	t.Run("row count mismatch rolls back", func(t *testing.T) {
		tampered := make([]TableDump, len(dumps))
		copy(tampered, dumps)
		for i := range tampered {
			if tampered[i].Name == "products" {
				tampered[i].Rows++
			}
		}
		err := c.RestoreTables(ctx, tampered)
		require.Error(t, err)
		assert.Equal(t, 2, countRows(t, c, "products"))
		assert.Equal(t, 1, countRows(t, c, "orders"))
	})
}

func TestListOrdersScopes(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	seedUser(t, c, "cust-1", types.RoleCustomer, 0)
	seedUser(t, c, "agent-1", types.RoleAgent, 0)
	agent := "agent-1"

	seedOrder(t, c, types.Order{ID: "own", CreatedBy: "cust-1"})
	seedOrder(t, c, types.Order{ID: "for-email", CreatedBy: "agent-1", Customer: types.Customer{Email: "noa@vipo.co"}})
	seedOrder(t, c, types.Order{ID: "attributed", CreatedBy: "cust-1", RefAgentID: &agent, TenantID: "shop-1"})
	seedOrder(t, c, types.Order{ID: "unrelated", CreatedBy: "agent-1", Customer: types.Customer{Email: "x@vipo.co"}})

	list := func(f types.OrderFilter) []string {
		t.Helper()
		f.Limit = 50
		orders, total, err := c.ListOrders(ctx, f)
		require.NoError(t, err)
		assert.Len(t, orders, total)
		ids := make([]string, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		return ids
	}

	assert.ElementsMatch(t, []string{"own", "for-email", "attributed"},
		list(types.OrderFilter{CustomerID: "cust-1", CustomerEmail: "noa@vipo.co"}))
	assert.ElementsMatch(t, []string{"own", "attributed"},
		list(types.OrderFilter{CustomerID: "cust-1"}), "an empty email matches nothing")
	assert.ElementsMatch(t, []string{"for-email", "attributed", "unrelated"},
		list(types.OrderFilter{AgentID: "agent-1"}))
	assert.ElementsMatch(t, []string{"attributed"},
		list(types.OrderFilter{CustomerID: "cust-1", TenantID: "shop-1"}))
	assert.Len(t, list(types.OrderFilter{}), 4)
}
