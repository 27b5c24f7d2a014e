package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/cache"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/service"

	"go.uber.org/zap"
)

func newStatsService(store *mockBillStore) *service.StatsService {
	return service.NewStatsService(
		store,
		cache.New[*domain.StatisticsRollup](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestRollup_ComputesAndCaches(t *testing.T) {
	store := newMockBillStore(
		&domain.Bill{
			ID: "b1", UserID: "u1", Title: "Dinner", TotalAmount: 100,
			Category: "food", CreatedAt: time.Now(),
			Participants: []domain.Participant{
				{ID: "p1", Status: domain.StatusPending},
			},
			SplitResults: []domain.SplitResult{
				{Amount: 100, Participant: domain.Participant{ID: "p1", Name: "A", Status: domain.StatusPending}},
			},
		},
		&domain.Bill{
			ID: "b2", UserID: "u1", Title: "Taxi", TotalAmount: 50,
			Category: "transport", CreatedAt: time.Now(),
			Participants: []domain.Participant{
				{ID: "p1", Status: domain.StatusPaid},
			},
		},
	)
	svc := newStatsService(store)

	rollup, err := svc.Rollup(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rollup.BillCount != 2 {
		t.Errorf("expected 2 bills, got %d", rollup.BillCount)
	}
	if rollup.TotalAmount != 150 {
		t.Errorf("expected total 150, got %v", rollup.TotalAmount)
	}
	if rollup.SettledBills != 1 || rollup.PendingBills != 1 {
		t.Errorf("expected 1 settled / 1 pending, got %d / %d", rollup.SettledBills, rollup.PendingBills)
	}
	if len(rollup.PendingParticipants) != 1 || rollup.PendingParticipants[0].ID != "p1" {
		t.Fatalf("expected pending ledger with p1, got %+v", rollup.PendingParticipants)
	}
	if rollup.TotalPendingAmount != 100 {
		t.Errorf("expected pending total 100, got %v", rollup.TotalPendingAmount)
	}

	// Second call must come from cache.
	if _, err := svc.Rollup(context.Background(), "u1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("expected 1 store call, got %d", store.listCalls)
	}
}

func TestRollup_EmptyUser(t *testing.T) {
	svc := newStatsService(newMockBillStore())

	rollup, err := svc.Rollup(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rollup.BillCount != 0 || rollup.TotalAmount != 0 {
		t.Errorf("expected empty rollup, got %+v", rollup)
	}
	if len(rollup.MonthlyTotals) != 6 {
		t.Errorf("expected 6 zero-filled month buckets, got %d", len(rollup.MonthlyTotals))
	}
}

func TestPendingLedger_UsesCachedRollup(t *testing.T) {
	store := newMockBillStore(&domain.Bill{
		ID: "b1", UserID: "u1", Title: "Dinner", CreatedAt: time.Now(),
		SplitResults: []domain.SplitResult{
			{Amount: 40, Participant: domain.Participant{ID: "p1", Name: "A", Status: domain.StatusPending}},
		},
	})
	svc := newStatsService(store)

	if _, err := svc.Rollup(context.Background(), "u1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ledger, err := svc.PendingLedger(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ledger) != 1 || ledger[0].TotalPendingAmount != 40 {
		t.Fatalf("unexpected ledger: %+v", ledger)
	}
	if store.listCalls != 1 {
		t.Errorf("expected ledger to reuse cached rollup, got %d store calls", store.listCalls)
	}
}

func TestPendingLedger_PrimesRollupCache(t *testing.T) {
	store := newMockBillStore(&domain.Bill{
		ID: "b1", UserID: "u1", Title: "Dinner", TotalAmount: 40, CreatedAt: time.Now(),
		Participants: []domain.Participant{
			{ID: "p1", Status: domain.StatusPending},
		},
		SplitResults: []domain.SplitResult{
			{Amount: 40, Participant: domain.Participant{ID: "p1", Name: "A", Status: domain.StatusPending}},
		},
	})
	svc := newStatsService(store)

	ledger, err := svc.PendingLedger(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ledger) != 1 || ledger[0].ID != "p1" {
		t.Fatalf("unexpected ledger: %+v", ledger)
	}

	// A statistics request right after must hit the cache.
	rollup, err := svc.Rollup(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rollup.BillCount != 1 {
		t.Errorf("expected 1 bill in rollup, got %d", rollup.BillCount)
	}
	if store.listCalls != 1 {
		t.Errorf("expected ledger to prime the rollup cache, got %d store calls", store.listCalls)
	}
}

func TestRollup_StoreError(t *testing.T) {
	store := newMockBillStore()
	store.err = &domain.ErrExternalService{Service: "firestore/bills"}
	svc := newStatsService(store)

	if _, err := svc.Rollup(context.Background(), "u1"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
