package service

import (
	"context"
	"strings"
	"time"

	"github.com/pwasut/harnkan/internal/category"
	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/port"
	"github.com/pwasut/harnkan/internal/split"
	"github.com/pwasut/harnkan/internal/stats"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var billTracer = otel.Tracer("service/bill")

// BillService owns the bill lifecycle: creation with split calculation,
// partial updates, participant payments and deletion. Every write
// invalidates the user's statistics cache.
type BillService struct {
	store   port.BillStore
	cache   port.Cache[*domain.StatisticsRollup]
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewBillService creates the bill service with all dependencies injected.
func NewBillService(
	store port.BillStore,
	cache port.Cache[*domain.StatisticsRollup],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns the user's bills with derived statuses.
func (s *BillService) List(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("bills")
		return nil, err
	}
	return stats.ResolveAll(bills), nil
}

// Get returns a single bill with its derived status.
func (s *BillService) Get(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	resolved := stats.Resolve(*bill)
	return &resolved, nil
}

// Create validates the request, runs the split calculation and persists
// the bill.
func (s *BillService) Create(ctx context.Context, userID string, req *domain.CreateBillRequest) (*domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	for i := range req.Participants {
		if req.Participants[i].Status == "" {
			req.Participants[i].Status = domain.StatusPending
		}
	}

	var (
		results []domain.SplitResult
		err     error
	)
	switch req.SplitMode {
	case domain.SplitItemized:
		results, err = split.Itemized(req.Items, req.Participants)
	default:
		results, err = split.Equal(req.TotalAmount, req.Participants)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	bill := &domain.Bill{
		ID:           uuid.New().String(),
		UserID:       userID,
		Title:        strings.TrimSpace(req.Title),
		CreatedAt:    now,
		TotalAmount:  req.TotalAmount,
		Category:     normalizeCategory(req.Category),
		Participants: req.Participants,
		SplitResults: results,
	}
	if bill.Title == "" {
		bill.Title = domain.DefaultTitle
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "date", Message: "must be YYYY-MM-DD"}
		}
		bill.Date = d
	}
	bill.Status = stats.ResolveStatus(*bill)

	created, err := s.store.CreateBill(ctx, bill)
	if err != nil {
		s.metrics.IncrStoreError("bills")
		return nil, err
	}

	s.cache.Delete(statsCacheKey(userID))
	s.metrics.IncrBillCreated()
	s.logger.Info("bill created",
		zap.String("user_id", userID),
		zap.String("bill_id", created.ID),
		zap.Float64("total_amount", created.TotalAmount),
	)
	return created, nil
}

// Update applies a partial update and recomputes the derived status.
func (s *BillService) Update(ctx context.Context, userID, billID string, req *domain.UpdateBillRequest) (*domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			title = domain.DefaultTitle
		}
		bill.Title = title
	}
	if req.Date != nil {
		if *req.Date == "" {
			bill.Date = time.Time{}
		} else {
			d, err := time.Parse("2006-01-02", *req.Date)
			if err != nil {
				return nil, &domain.ErrValidation{Field: "date", Message: "must be YYYY-MM-DD"}
			}
			bill.Date = d
		}
	}
	if req.TotalAmount != nil {
		if *req.TotalAmount < 0 {
			return nil, &domain.ErrValidation{Field: "total_amount", Message: "must not be negative"}
		}
		bill.TotalAmount = *req.TotalAmount
	}
	if req.Category != nil {
		bill.Category = normalizeCategory(*req.Category)
	}
	bill.Status = stats.ResolveStatus(*bill)

	updated, err := s.store.UpdateBill(ctx, bill)
	if err != nil {
		s.metrics.IncrStoreError("bills")
		return nil, err
	}

	s.cache.Delete(statsCacheKey(userID))
	return updated, nil
}

// MarkParticipantPaid flips a participant to paid and refreshes the
// bill's derived status.
func (s *BillService) MarkParticipantPaid(ctx context.Context, userID, billID, participantID string) (*domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.MarkParticipantPaid")
	defer span.End()
	span.SetAttributes(
		attribute.String("bill.id", billID),
		attribute.String("participant.id", participantID),
	)

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range bill.Participants {
		if bill.Participants[i].ID == participantID {
			bill.Participants[i].Status = domain.StatusPaid
			found = true
		}
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "participant", ID: participantID}
	}

	// Keep split result copies in sync with the participant roster.
	for i := range bill.SplitResults {
		if bill.SplitResults[i].Participant.ID == participantID {
			bill.SplitResults[i].Participant.Status = domain.StatusPaid
		}
	}
	bill.Status = stats.ResolveStatus(*bill)

	updated, err := s.store.UpdateBill(ctx, bill)
	if err != nil {
		s.metrics.IncrStoreError("bills")
		return nil, err
	}

	s.cache.Delete(statsCacheKey(userID))
	s.logger.Info("participant marked paid",
		zap.String("bill_id", billID),
		zap.String("participant_id", participantID),
	)
	return updated, nil
}

// Delete removes a bill.
func (s *BillService) Delete(ctx context.Context, userID, billID string) error {
	ctx, span := billTracer.Start(ctx, "BillService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	if err := s.store.DeleteBill(ctx, userID, billID); err != nil {
		s.metrics.IncrStoreError("bills")
		return err
	}
	s.cache.Delete(statsCacheKey(userID))
	return nil
}

// Pending returns the single-bill pending breakdown.
func (s *BillService) Pending(ctx context.Context, userID, billID string) ([]domain.PendingEntry, error) {
	ctx, span := billTracer.Start(ctx, "BillService.Pending")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	return stats.PendingFromSplitResults(*bill), nil
}

func validateCreate(req *domain.CreateBillRequest) error {
	if req.TotalAmount < 0 {
		return &domain.ErrValidation{Field: "total_amount", Message: "must not be negative"}
	}
	if len(req.Participants) == 0 {
		return &domain.ErrValidation{Field: "participants", Message: "at least one participant required"}
	}
	seen := map[string]bool{}
	for _, p := range req.Participants {
		if p.ID == "" {
			return &domain.ErrValidation{Field: "participants", Message: "participant id required"}
		}
		if seen[p.ID] {
			return &domain.ErrValidation{Field: "participants", Message: "duplicate participant id: " + p.ID}
		}
		seen[p.ID] = true
	}
	switch req.SplitMode {
	case "", domain.SplitEqual:
	case domain.SplitItemized:
		if len(req.Items) == 0 {
			return &domain.ErrValidation{Field: "items", Message: "itemized split requires items"}
		}
	default:
		return &domain.ErrValidation{Field: "split_mode", Message: "must be equal or itemized"}
	}
	return nil
}

func normalizeCategory(id string) string {
	if category.Known(id) {
		return id
	}
	return domain.DefaultCategory
}

func statsCacheKey(userID string) string {
	return "stats:" + userID
}
