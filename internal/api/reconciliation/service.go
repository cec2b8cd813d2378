package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

const (
	maxItems      = 200
	defaultPeriod = 30 * 24 * time.Hour
)

type Store interface {
	ListSyncRecords(ctx context.Context, from, to time.Time) ([]types.SyncRecord, error)
	UpdateSyncMap(ctx context.Context, orderID string, u types.SyncUpdate) (*types.SyncMap, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (s *Service) period(startRaw, endRaw string) (Period, error) {
	now := s.now().UTC()
	p := Period{StartDate: now.Add(-defaultPeriod), EndDate: now}
	var err error
	if startRaw = strings.TrimSpace(startRaw); startRaw != "" {
		if p.StartDate, err = parseDate(startRaw, false); err != nil {
			return p, utils.BadRequest("invalid_date", "startDate must be YYYY-MM-DD or RFC 3339")
		}
	}
	if endRaw = strings.TrimSpace(endRaw); endRaw != "" {
		if p.EndDate, err = parseDate(endRaw, true); err != nil {
			return p, utils.BadRequest("invalid_date", "endDate must be YYYY-MM-DD or RFC 3339")
		}
	}
	if p.StartDate.After(p.EndDate) {
		return p, utils.BadRequest("invalid_range", "startDate must be before endDate")
	}
	return p, nil
}

func classify(m types.SyncMap) ItemStatus {
	switch {
	case m.SyncStatus == types.SyncSynced && m.PriorityInvoiceID != "":
		return ItemComplete
	case m.SyncStatus == types.SyncFailed:
		return ItemFailed
	case m.SyncStatus == types.SyncPending || m.SyncStatus == types.SyncPartial:
		return ItemPending
	}
	return ItemUnknown
}

func (s *Service) Report(ctx context.Context, startRaw, endRaw string) (*Report, error) {
	period, err := s.period(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListSyncRecords(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync records: %w", err)
	}

	summary := Summary{Period: period, Total: len(records)}
	items := make([]Item, 0, len(records))
	orderAmounts := make([]float64, 0, len(records))
	payplusAmounts := make([]float64, 0, len(records))

	for _, rec := range records {
		status := classify(rec.SyncMap)
		switch status {
		case ItemComplete:
			summary.Synced++
		case ItemFailed:
			summary.Failed++
		case ItemPending:
			summary.Pending++
		}
		if rec.AmountMismatch {
			summary.AmountMismatches++
		}

		paid := 0.0
		if rec.PayplusAmount != nil {
			paid = *rec.PayplusAmount
		}
		orderAmounts = append(orderAmounts, rec.OrderAmount)
		payplusAmounts = append(payplusAmounts, paid)

		items = append(items, Item{
			OrderID:            rec.OrderID,
			OrderNumber:        types.OrderNumber(rec.OrderID),
			OrderAmount:        rec.OrderAmount,
			PayplusAmount:      rec.PayplusAmount,
			AmountMismatch:     rec.AmountMismatch,
			Diff:               math.Abs(utils.SubMoney(rec.OrderAmount, paid)),
			SyncStatus:         rec.SyncStatus,
			Status:             status,
			HasInvoice:         rec.PriorityInvoiceID != "",
			InvoiceNumber:      rec.InvoiceNumber,
			HasReceipt:         rec.PriorityReceiptID != "",
			HasCreditNote:      rec.PriorityCreditNoteID != "",
			PriorityCustomerID: rec.PriorityCustomerID,
			LastError:          rec.LastError,
			CreatedAt:          rec.CreatedAt,
		})
	}

	summary.TotalOrderAmount = utils.SumMoney(orderAmounts...)
	summary.TotalPayplusAmount = utils.SumMoney(payplusAmounts...)
	summary.Difference = utils.SubMoney(summary.TotalOrderAmount, summary.TotalPayplusAmount)
	if summary.Total > 0 {
		summary.CompletionRate = int(math.Round(float64(summary.Synced) / float64(summary.Total) * 100))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return statusRank[items[i].Status] < statusRank[items[j].Status]
	})
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return &Report{OK: true, Summary: summary, Items: items}, nil
}

func (s *Service) UpdateSync(ctx context.Context, orderID string, req SyncUpdateRequest) (*types.SyncMap, error) {
	m, err := s.store.UpdateSyncMap(ctx, orderID, types.SyncUpdate{
		SyncStatus:           req.SyncStatus,
		PriorityInvoiceID:    req.PriorityInvoiceID,
		InvoiceNumber:        req.InvoiceNumber,
		PriorityReceiptID:    req.PriorityReceiptID,
		PriorityCreditNoteID: req.PriorityCreditNoteID,
		PriorityCustomerID:   req.PriorityCustomerID,
		PayplusAmount:        req.PayplusAmount,
		LastError:            req.LastError,
	})
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.NotFound("order_not_found", "Order not found")
	}
	return m, err
}
