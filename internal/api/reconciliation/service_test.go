package reconciliation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
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
	records  []types.SyncRecord
	from, to time.Time
	updates  map[string]types.SyncUpdate
}

func (s *fakeStore) ListSyncRecords(_ context.Context, from, to time.Time) ([]types.SyncRecord, error) {
	s.from, s.to = from, to
	return s.records, nil
}

func (s *fakeStore) UpdateSyncMap(_ context.Context, orderID string, u types.SyncUpdate) (*types.SyncMap, error) {
	if orderID == "missing" {
		return nil, loaders.ErrNotFound
	}
	if s.updates == nil {
		s.updates = map[string]types.SyncUpdate{}
	}
	s.updates[orderID] = u
	return &types.SyncMap{OrderID: orderID, SyncStatus: u.SyncStatus}, nil
}

func amount(v float64) *float64 { return &v }

func record(id string, status types.SyncStatus, invoice string, total float64, paid *float64) types.SyncRecord {
	rec := types.SyncRecord{OrderAmount: total}
	rec.OrderID = id
	rec.SyncStatus = status
	rec.PriorityInvoiceID = invoice
	rec.PayplusAmount = paid
	rec.AmountMismatch = paid != nil && *paid != total
	return rec
}

func newTestService(records ...types.SyncRecord) (*Service, *fakeStore) {
	store := &fakeStore{records: records}
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestReport(t *testing.T) {
	svc, _ := newTestService(
		record("order-aaaaaa", types.SyncSynced, "", 100, amount(100)),
		record("order-bbbbbb", types.SyncSynced, "INV-1", 250.10, amount(250.10)),
		record("order-cccccc", types.SyncPartial, "", 80, amount(70)),
		record("order-dddddd", types.SyncFailed, "", 40.2, nil),
		record("order-eeeeee", types.SyncSynced, "INV-2", 19.9, amount(19.9)),
	)

	report, err := svc.Report(context.Background(), "", "")
	require.NoError(t, err)

	s := report.Summary
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Synced)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.AmountMismatches)
	assert.Equal(t, 490.2, s.TotalOrderAmount)
	assert.Equal(t, 440.0, s.TotalPayplusAmount)
	assert.Equal(t, 50.2, s.Difference)
	assert.Equal(t, 40, s.CompletionRate)

	var order []ItemStatus
	for _, it := range report.Items {
		order = append(order, it.Status)
	}
	assert.Equal(t, []ItemStatus{ItemFailed, ItemPending, ItemComplete, ItemComplete, ItemUnknown}, order)
	assert.Equal(t, "DDDDDD", report.Items[0].OrderNumber)
	assert.Equal(t, 40.2, report.Items[0].Diff)
	assert.Equal(t, 10.0, report.Items[1].Diff)
	assert.Equal(t, "order-bbbbbb", report.Items[2].OrderID)
}

func TestReportPeriod(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.Report(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC), store.from)
	assert.Equal(t, time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC), store.to)

	report, err := svc.Report(ctx, "2026-06-01", "2026-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), store.from)
	assert.Equal(t, time.Date(2026, 6, 15, 23, 59, 59, 999999999, time.UTC), store.to)
	assert.Empty(t, report.Items)
	assert.Equal(t, 0, report.Summary.CompletionRate)

	var apiErr *utils.APIError
	_, err = svc.Report(ctx, "yesterday", "")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_date", apiErr.Code)

	_, err = svc.Report(ctx, "2026-06-15", "2026-06-01")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_range", apiErr.Code)
}

func TestReportCapsItems(t *testing.T) {
	var records []types.SyncRecord
	for i := 0; i < 250; i++ {
		records = append(records, record(fmt.Sprintf("order-%06d", i), types.SyncPending, "", 10, nil))
	}
	svc, _ := newTestService(records...)

	report, err := svc.Report(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, report.Items, maxItems)
	assert.Equal(t, 250, report.Summary.Total)
}

func TestUpdateSyncRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, store := newTestService()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		shared.SetIdentity(c, &shared.Identity{UserID: "admin-1", Role: types.RoleAdmin})
		c.Next()
	})
	RegisterRoutes(r.Group("/api"), svc, shared.NewRateLimiter(nil, true, ""))

	patch := func(id, body string) int {
		req := httptest.NewRequest(http.MethodPatch, "/api/admin/priority/sync/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, patch("o-1", `{"syncStatus":"synced","priorityInvoiceId":"INV-9","payplusAmount":120.5}`))
	require.Contains(t, store.updates, "o-1")
	u := store.updates["o-1"]
	assert.Equal(t, types.SyncSynced, u.SyncStatus)
	assert.Equal(t, "INV-9", *u.PriorityInvoiceID)
	assert.Equal(t, 120.5, *u.PayplusAmount)
	assert.Nil(t, u.InvoiceNumber)

	assert.Equal(t, http.StatusBadRequest, patch("o-1", `{"syncStatus":"done"}`))
	assert.Equal(t, http.StatusBadRequest, patch("o-1", `{"payplusAmount":-1}`))
	assert.Equal(t, http.StatusNotFound, patch("missing", `{"syncStatus":"failed"}`))
}
