// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/pwasut/harnkan/internal/domain"
)

// BillStore defines all persistence operations for bills. Implemented by
// the Firestore adapter and the local sqlite adapter.
type BillStore interface {
	ListBills(ctx context.Context, userID string) ([]domain.Bill, error)
	GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error)
	CreateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error)
	UpdateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error)
	DeleteBill(ctx context.Context, userID, billID string) error
}

// ShareStore persists share-link records for revocation and view counts.
type ShareStore interface {
	CreateShareLink(ctx context.Context, link *domain.ShareLink) (*domain.ShareLink, error)
	GetShareLinkByTokenID(ctx context.Context, tokenID string) (*domain.ShareLink, error)
	RevokeShareLink(ctx context.Context, userID, linkID string) error
	IncrementViewCount(ctx context.Context, linkID string) error
}

// AgentCaller invokes the external chat agent service.
type AgentCaller interface {
	Call(ctx context.Context, req *domain.AgentRequest) (*domain.AgentResponse, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
