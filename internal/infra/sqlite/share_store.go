package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pwasut/harnkan/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const shareColumns = "id, bill_id, user_id, token_id, pin_hash, view_count, revoked, expires_at, created_at"

func scanShareLink(scan func(dest ...any) error) (*domain.ShareLink, error) {
	var (
		link      domain.ShareLink
		revoked   int
		expiresAt string
		createdAt string
	)
	err := scan(&link.ID, &link.BillID, &link.UserID, &link.TokenID, &link.PINHash,
		&link.ViewCount, &revoked, &expiresAt, &createdAt)
	if err != nil {
		return nil, err
	}
	link.Revoked = revoked != 0
	link.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	link.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &link, nil
}

// CreateShareLink inserts a new share link row.
func (s *Store) CreateShareLink(ctx context.Context, link *domain.ShareLink) (*domain.ShareLink, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateShareLink")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", link.BillID))

	revoked := 0
	if link.Revoked {
		revoked = 1
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO share_links ("+shareColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		link.ID, link.BillID, link.UserID, link.TokenID, link.PINHash,
		link.ViewCount, revoked,
		link.ExpiresAt.UTC().Format(time.RFC3339),
		link.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/share_links", Err: err}
	}
	return link, nil
}

// GetShareLinkByTokenID looks up a share link by its JWT id claim.
func (s *Store) GetShareLinkByTokenID(ctx context.Context, tokenID string) (*domain.ShareLink, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetShareLinkByTokenID")
	defer span.End()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+shareColumns+" FROM share_links WHERE token_id = ?", tokenID)

	link, err := scanShareLink(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "share_link", ID: tokenID}
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/share_links", Err: err}
	}
	return link, nil
}

// RevokeShareLink marks a link revoked. Only the owner may revoke.
func (s *Store) RevokeShareLink(ctx context.Context, userID, linkID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.RevokeShareLink")
	defer span.End()
	span.SetAttributes(attribute.String("link.id", linkID))

	row := s.db.QueryRowContext(ctx,
		"SELECT "+shareColumns+" FROM share_links WHERE id = ?", linkID)
	link, err := scanShareLink(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ErrNotFound{Resource: "share_link", ID: linkID}
	}
	if err != nil {
		return &domain.ErrExternalService{Service: "sqlite/share_links", Err: err}
	}
	if link.UserID != userID {
		return &domain.ErrForbidden{Action: "revoke share link"}
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE share_links SET revoked = 1 WHERE id = ?", linkID)
	if err != nil {
		return &domain.ErrExternalService{Service: "sqlite/share_links", Err: err}
	}
	return nil
}

// IncrementViewCount bumps the link's view counter atomically.
func (s *Store) IncrementViewCount(ctx context.Context, linkID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.IncrementViewCount")
	defer span.End()
	span.SetAttributes(attribute.String("link.id", linkID))

	res, err := s.db.ExecContext(ctx,
		"UPDATE share_links SET view_count = view_count + 1 WHERE id = ?", linkID)
	if err != nil {
		return &domain.ErrExternalService{Service: "sqlite/share_links", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "share_link", ID: linkID}
	}
	return nil
}
