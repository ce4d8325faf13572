// internal/repository/account_repo.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"membership-service/internal/domain"
)

// AccountFilter narrows List. Zero values do not filter.
type AccountFilter struct {
	LocationUID int64
	AccountType *domain.AccountType
	PendCancel  *bool
}

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	// Create inserts the account and sets its UID.
	Create(ctx context.Context, q DBExecutor, account *domain.Account) error
	List(ctx context.Context, q DBExecutor, filter AccountFilter) ([]domain.Account, error)
	GetByGuid(ctx context.Context, q DBExecutor, guid uuid.UUID) (*domain.Account, error)
	GetByUID(ctx context.Context, q DBExecutor, uid int64) (*domain.Account, error)
	// LockByUID takes a row lock on the account for the rest of the transaction,
	// so member count checks and the writes that follow them cannot interleave.
	// It returns util.ErrNotFound when the account does not exist.
	LockByUID(ctx context.Context, q DBExecutor, uid int64) error
	// UpdateLocation moves the account to another location and reports the affected rows.
	UpdateLocation(ctx context.Context, q DBExecutor, guid uuid.UUID, locationUID int64, at time.Time) (int64, error)
	Delete(ctx context.Context, q DBExecutor, uid int64) (int64, error)
}
