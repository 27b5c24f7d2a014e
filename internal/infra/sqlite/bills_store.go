package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pwasut/harnkan/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// billRow is the flat table shape. Participants and split results are
// stored as JSON blobs: they are always read and written whole.
type billRow struct {
	ID           string
	UserID       string
	Title        string
	Date         string
	CreatedAt    string
	TotalAmount  float64
	Category     string
	Status       string
	Participants string
	SplitResults string
}

func billToRow(b *domain.Bill) (*billRow, error) {
	participants, err := json.Marshal(b.Participants)
	if err != nil {
		return nil, fmt.Errorf("encode participants: %w", err)
	}
	splits, err := json.Marshal(b.SplitResults)
	if err != nil {
		return nil, fmt.Errorf("encode split results: %w", err)
	}

	date := ""
	if !b.Date.IsZero() {
		date = b.Date.UTC().Format(time.RFC3339)
	}

	return &billRow{
		ID:           b.ID,
		UserID:       b.UserID,
		Title:        b.Title,
		Date:         date,
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
		TotalAmount:  b.TotalAmount,
		Category:     b.Category,
		Status:       b.Status,
		Participants: string(participants),
		SplitResults: string(splits),
	}, nil
}

func (r *billRow) toBill() *domain.Bill {
	b := &domain.Bill{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		TotalAmount: r.TotalAmount,
		Category:    r.Category,
		Status:      r.Status,
	}
	if r.Date != "" {
		b.Date, _ = time.Parse(time.RFC3339, r.Date)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, r.CreatedAt)

	// Malformed blobs degrade to empty slices rather than failing the read.
	if err := json.Unmarshal([]byte(r.Participants), &b.Participants); err != nil {
		b.Participants = nil
	}
	if err := json.Unmarshal([]byte(r.SplitResults), &b.SplitResults); err != nil {
		b.SplitResults = nil
	}
	return b
}

const billColumns = "id, user_id, title, date, created_at, total_amount, category, status, participants, split_results"

func scanBillRow(scan func(dest ...any) error) (*billRow, error) {
	var r billRow
	err := scan(&r.ID, &r.UserID, &r.Title, &r.Date, &r.CreatedAt,
		&r.TotalAmount, &r.Category, &r.Status, &r.Participants, &r.SplitResults)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListBills returns all bills for a user, newest first.
func (s *Store) ListBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListBills")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}
	defer rows.Close()

	bills := []domain.Bill{}
	for rows.Next() {
		r, err := scanBillRow(rows.Scan)
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
		}
		bills = append(bills, *r.toBill())
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}
	return bills, nil
}

// GetBill returns a single bill owned by the user.
func (s *Store) GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	row := s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE user_id = ? AND id = ?", userID, billID)

	r, err := scanBillRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}
	return r.toBill(), nil
}

// CreateBill inserts a new bill.
func (s *Store) CreateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", bill.ID))

	r, err := billToRow(bill)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO bills ("+billColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.UserID, r.Title, r.Date, r.CreatedAt,
		r.TotalAmount, r.Category, r.Status, r.Participants, r.SplitResults)
	if err != nil {
		s.logger.Error("sqlite: insert bill failed", zap.String("bill_id", bill.ID), zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}
	return bill, nil
}

// UpdateBill replaces all mutable columns of a bill.
func (s *Store) UpdateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", bill.ID))

	r, err := billToRow(bill)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bills SET title = ?, date = ?, total_amount = ?, category = ?,
			status = ?, participants = ?, split_results = ?
		 WHERE user_id = ? AND id = ?`,
		r.Title, r.Date, r.TotalAmount, r.Category,
		r.Status, r.Participants, r.SplitResults,
		r.UserID, r.ID)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: bill.ID}
	}
	return bill, nil
}

// DeleteBill removes a bill. Deleting a missing bill is not an error.
func (s *Store) DeleteBill(ctx context.Context, userID, billID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM bills WHERE user_id = ? AND id = ?", userID, billID)
	if err != nil {
		return &domain.ErrExternalService{Service: "sqlite/bills", Err: err}
	}
	return nil
}
