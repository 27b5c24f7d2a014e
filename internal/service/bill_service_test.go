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

// --- Mocks ---

type mockBillStore struct {
	bills     map[string]*domain.Bill // by bill id
	listCalls int
	err       error
}

func newMockBillStore(bills ...*domain.Bill) *mockBillStore {
	m := &mockBillStore{bills: map[string]*domain.Bill{}}
	for _, b := range bills {
		m.bills[b.ID] = b
	}
	return m
}

func (m *mockBillStore) ListBills(_ context.Context, userID string) ([]domain.Bill, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Bill{}
	for _, b := range m.bills {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBillStore) GetBill(_ context.Context, userID, billID string) (*domain.Bill, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.bills[billID]
	if !ok || b.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	cp := *b
	return &cp, nil
}

func (m *mockBillStore) CreateBill(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	if m.err != nil {
		return nil, m.err
	}
	cp := *bill
	m.bills[bill.ID] = &cp
	return bill, nil
}

func (m *mockBillStore) UpdateBill(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.bills[bill.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: bill.ID}
	}
	cp := *bill
	m.bills[bill.ID] = &cp
	return bill, nil
}

func (m *mockBillStore) DeleteBill(_ context.Context, _, billID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.bills, billID)
	return nil
}

func newBillService(store *mockBillStore) *service.BillService {
	return service.NewBillService(
		store,
		cache.New[*domain.StatisticsRollup](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func pendingParticipant(id, name string) domain.Participant {
	return domain.Participant{ID: id, Name: name, Status: domain.StatusPending}
}

// --- Tests ---

func TestCreate_EqualSplitSumsToTotal(t *testing.T) {
	store := newMockBillStore()
	svc := newBillService(store)

	bill, err := svc.Create(context.Background(), "u1", &domain.CreateBillRequest{
		Title:       "Dinner",
		TotalAmount: 100,
		Participants: []domain.Participant{
			pendingParticipant("p1", "A"),
			pendingParticipant("p2", "B"),
			pendingParticipant("p3", "C"),
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(bill.SplitResults) != 3 {
		t.Fatalf("expected 3 split results, got %d", len(bill.SplitResults))
	}
	sum := 0.0
	for _, sr := range bill.SplitResults {
		sum += sr.Amount
	}
	if sum != 100 {
		t.Errorf("expected split sum 100, got %v", sum)
	}
	if bill.Status != domain.StatusPending {
		t.Errorf("expected derived status pending, got %s", bill.Status)
	}
}

func TestCreate_DefaultsTitleAndCategory(t *testing.T) {
	svc := newBillService(newMockBillStore())

	bill, err := svc.Create(context.Background(), "u1", &domain.CreateBillRequest{
		Title:        "   ",
		TotalAmount:  50,
		Category:     "no-such-category",
		Participants: []domain.Participant{pendingParticipant("p1", "A")},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if bill.Title != domain.DefaultTitle {
		t.Errorf("expected default title, got %q", bill.Title)
	}
	if bill.Category != domain.DefaultCategory {
		t.Errorf("expected category other, got %q", bill.Category)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc := newBillService(newMockBillStore())

	cases := []struct {
		name string
		req  *domain.CreateBillRequest
	}{
		{"negative amount", &domain.CreateBillRequest{
			TotalAmount:  -1,
			Participants: []domain.Participant{pendingParticipant("p1", "A")},
		}},
		{"no participants", &domain.CreateBillRequest{TotalAmount: 10}},
		{"duplicate participant", &domain.CreateBillRequest{
			TotalAmount: 10,
			Participants: []domain.Participant{
				pendingParticipant("p1", "A"),
				pendingParticipant("p1", "A again"),
			},
		}},
		{"bad split mode", &domain.CreateBillRequest{
			TotalAmount:  10,
			SplitMode:    "weighted",
			Participants: []domain.Participant{pendingParticipant("p1", "A")},
		}},
		{"itemized without items", &domain.CreateBillRequest{
			TotalAmount:  10,
			SplitMode:    domain.SplitItemized,
			Participants: []domain.Participant{pendingParticipant("p1", "A")},
		}},
		{"bad date", &domain.CreateBillRequest{
			TotalAmount:  10,
			Date:         "31/12/2026",
			Participants: []domain.Participant{pendingParticipant("p1", "A")},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tc.req)
			if _, ok := err.(*domain.ErrValidation); !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreate_ItemizedSplit(t *testing.T) {
	svc := newBillService(newMockBillStore())

	bill, err := svc.Create(context.Background(), "u1", &domain.CreateBillRequest{
		Title:       "Groceries",
		TotalAmount: 30,
		SplitMode:   domain.SplitItemized,
		Participants: []domain.Participant{
			pendingParticipant("p1", "A"),
			pendingParticipant("p2", "B"),
		},
		Items: []domain.BillItem{
			{Description: "shared", Amount: 20, AssignedTo: []string{"p1", "p2"}},
			{Description: "solo", Amount: 10, AssignedTo: []string{"p1"}},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	amounts := map[string]float64{}
	for _, sr := range bill.SplitResults {
		amounts[sr.Participant.ID] = sr.Amount
	}
	if amounts["p1"] != 20 {
		t.Errorf("expected p1 to owe 20, got %v", amounts["p1"])
	}
	if amounts["p2"] != 10 {
		t.Errorf("expected p2 to owe 10, got %v", amounts["p2"])
	}
}

func TestMarkParticipantPaid_SettlesBill(t *testing.T) {
	store := newMockBillStore(&domain.Bill{
		ID:     "b1",
		UserID: "u1",
		Title:  "Taxi",
		Participants: []domain.Participant{
			{ID: "p1", Name: "A", Status: domain.StatusPaid},
			{ID: "p2", Name: "B", Status: domain.StatusPending},
		},
		SplitResults: []domain.SplitResult{
			{Amount: 50, Participant: domain.Participant{ID: "p2", Name: "B", Status: domain.StatusPending}},
		},
	})
	svc := newBillService(store)

	bill, err := svc.MarkParticipantPaid(context.Background(), "u1", "b1", "p2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if bill.Status != domain.StatusPaid {
		t.Errorf("expected bill paid after last participant, got %s", bill.Status)
	}
	if bill.SplitResults[0].Participant.Status != domain.StatusPaid {
		t.Error("expected split result copy to be updated too")
	}
}

func TestMarkParticipantPaid_UnknownParticipant(t *testing.T) {
	store := newMockBillStore(&domain.Bill{
		ID:           "b1",
		UserID:       "u1",
		Participants: []domain.Participant{pendingParticipant("p1", "A")},
	})
	svc := newBillService(store)

	_, err := svc.MarkParticipantPaid(context.Background(), "u1", "b1", "nope")
	if _, ok := err.(*domain.ErrNotFound); !ok {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	store := newMockBillStore(&domain.Bill{
		ID:          "b1",
		UserID:      "u1",
		Title:       "Old",
		TotalAmount: 10,
		Category:    "food",
	})
	svc := newBillService(store)

	newTitle := "New"
	newAmount := 25.0
	bill, err := svc.Update(context.Background(), "u1", "b1", &domain.UpdateBillRequest{
		Title:       &newTitle,
		TotalAmount: &newAmount,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if bill.Title != "New" || bill.TotalAmount != 25 {
		t.Errorf("unexpected update result: %+v", bill)
	}
	if bill.Category != "food" {
		t.Errorf("expected untouched category, got %s", bill.Category)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newBillService(newMockBillStore())

	_, err := svc.Get(context.Background(), "u1", "missing")
	if _, ok := err.(*domain.ErrNotFound); !ok {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPending_SingleBill(t *testing.T) {
	store := newMockBillStore(&domain.Bill{
		ID:     "b1",
		UserID: "u1",
		SplitResults: []domain.SplitResult{
			{Amount: 30, Participant: pendingParticipant("p1", "A")},
			{Amount: 20, Participant: domain.Participant{ID: "p2", Name: "B", Status: domain.StatusPaid}},
		},
	})
	svc := newBillService(store)

	entries, err := svc.Pending(context.Background(), "u1", "b1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "p1" {
		t.Fatalf("expected only p1 pending, got %+v", entries)
	}
}
