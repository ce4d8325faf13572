// internal/repository/member_repo.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"membership-service/internal/domain"
)

// MemberFilter narrows List. Zero values do not filter.
type MemberFilter struct {
	AccountUID  int64
	LocationUID int64
	Primary     *bool
	Cancelled   *bool
}

// MemberRepository defines the interface for member data operations.
type MemberRepository interface {
	// Create inserts the member and sets its UID.
	Create(ctx context.Context, q DBExecutor, member *domain.Member) error
	GetByUID(ctx context.Context, q DBExecutor, uid int64) (*domain.Member, error)
	List(ctx context.Context, q DBExecutor, filter MemberFilter) ([]domain.Member, error)
	// ListPersonsByAccountGuid returns the personal details of every member of the account.
	ListPersonsByAccountGuid(ctx context.Context, q DBExecutor, guid uuid.UUID) ([]domain.Person, error)
	CountByAccount(ctx context.Context, q DBExecutor, accountUID int64) (int64, error)
	CountPrimaryByAccount(ctx context.Context, q DBExecutor, accountUID int64) (int64, error)
	Delete(ctx context.Context, q DBExecutor, uid int64) (int64, error)
	// PromoteEarliest makes the member with the earliest join date primary,
	// lowest UID first among equal dates.
	PromoteEarliest(ctx context.Context, q DBExecutor, accountUID int64, at time.Time) (int64, error)
	DeleteNonPrimary(ctx context.Context, q DBExecutor, accountUID int64) (int64, error)
	DeleteByAccount(ctx context.Context, q DBExecutor, accountUID int64) (int64, error)
}
