package service

import (
	"context"
	"errors"
	"time"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/port"
	"github.com/pwasut/harnkan/internal/stats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var shareTracer = otel.Tracer("service/share")

const (
	minPINLength = 4
	maxPINLength = 8
	maxShareTTL  = 7 * 24 * time.Hour
)

// ShareService mints, resolves and revokes temporary share links. The
// token is a signed JWT; the stored row backs revocation, PIN checks and
// view counting.
type ShareService struct {
	bills      port.BillStore
	links      port.ShareStore
	metrics    *observability.Metrics
	logger     *zap.Logger
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewShareService creates the share-link service.
func NewShareService(
	bills port.BillStore,
	links port.ShareStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
	secret string,
	defaultTTL time.Duration,
) *ShareService {
	return &ShareService{
		bills:      bills,
		links:      links,
		metrics:    metrics,
		logger:     logger,
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Mint creates a share link for a bill the user owns.
func (s *ShareService) Mint(ctx context.Context, userID, billID string, req *domain.ShareLinkRequest) (*domain.ShareLinkResponse, error) {
	ctx, span := shareTracer.Start(ctx, "ShareService.Mint")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	// Ownership check doubles as an existence check.
	if _, err := s.bills.GetBill(ctx, userID, billID); err != nil {
		return nil, err
	}

	ttl := s.defaultTTL
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}
	if ttl > maxShareTTL {
		ttl = maxShareTTL
	}

	pinHash := ""
	if req.PIN != "" {
		if err := validatePIN(req.PIN); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		pinHash = string(hash)
	}

	now := s.now()
	link := &domain.ShareLink{
		ID:        uuid.New().String(),
		BillID:    billID,
		UserID:    userID,
		TokenID:   uuid.New().String(),
		PINHash:   pinHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	claims := jwt.RegisteredClaims{
		ID:        link.TokenID,
		Subject:   billID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(link.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	created, err := s.links.CreateShareLink(ctx, link)
	if err != nil {
		s.metrics.IncrStoreError("share_links")
		return nil, err
	}

	s.metrics.IncrShareLinkMinted()
	s.logger.Info("share link minted",
		zap.String("bill_id", billID),
		zap.String("link_id", created.ID),
		zap.Bool("protected", created.Protected()),
	)

	return &domain.ShareLinkResponse{
		LinkID:    created.ID,
		Token:     token,
		Protected: created.Protected(),
		ExpiresAt: created.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Resolve verifies a share token and returns the shared bill view.
// Expired or revoked links report gone, a wrong PIN reports unauthorized.
func (s *ShareService) Resolve(ctx context.Context, token, pin string) (*domain.SharedBillView, error) {
	ctx, span := shareTracer.Start(ctx, "ShareService.Resolve")
	defer span.End()

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &domain.ErrGone{Resource: "share_link"}
		}
		return nil, &domain.ErrUnauthorized{Message: "invalid share token"}
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, &domain.ErrUnauthorized{Message: "invalid share token"}
	}

	link, err := s.links.GetShareLinkByTokenID(ctx, claims.ID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, &domain.ErrGone{Resource: "share_link"}
		}
		s.metrics.IncrStoreError("share_links")
		return nil, err
	}
	if link.Revoked || s.now().After(link.ExpiresAt) {
		return nil, &domain.ErrGone{Resource: "share_link"}
	}

	if link.Protected() {
		if pin == "" {
			return nil, &domain.ErrUnauthorized{Message: "pin required"}
		}
		if bcrypt.CompareHashAndPassword([]byte(link.PINHash), []byte(pin)) != nil {
			return nil, &domain.ErrUnauthorized{Message: "wrong pin"}
		}
	}

	bill, err := s.bills.GetBill(ctx, link.UserID, link.BillID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			// Bill deleted after the link was minted.
			return nil, &domain.ErrGone{Resource: "share_link"}
		}
		return nil, err
	}
	resolved := stats.Resolve(*bill)

	if err := s.links.IncrementViewCount(ctx, link.ID); err != nil {
		// View counting is best effort.
		s.logger.Warn("failed to bump view count",
			zap.String("link_id", link.ID),
			zap.Error(err),
		)
	}

	return &domain.SharedBillView{
		Bill:      &resolved,
		Pending:   stats.PendingFromSplitResults(resolved),
		ExpiresAt: link.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Revoke invalidates a share link before its natural expiry.
func (s *ShareService) Revoke(ctx context.Context, userID, linkID string) error {
	ctx, span := shareTracer.Start(ctx, "ShareService.Revoke")
	defer span.End()
	span.SetAttributes(attribute.String("link.id", linkID))

	if err := s.links.RevokeShareLink(ctx, userID, linkID); err != nil {
		return err
	}
	s.logger.Info("share link revoked", zap.String("link_id", linkID))
	return nil
}

func validatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return &domain.ErrValidation{Field: "pin", Message: "must be 4-8 digits"}
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return &domain.ErrValidation{Field: "pin", Message: "must be 4-8 digits"}
		}
	}
	return nil
}
