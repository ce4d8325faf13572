// internal/service/member_service.go
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"membership-service/internal/domain"
	"membership-service/internal/repository"
	"membership-service/internal/util"
	"membership-service/pkg/db"
)

// MemberService defines the interface for member-related business logic,
// including the one-primary-member-per-account invariant.
type MemberService interface {
	CreateMember(ctx context.Context, member *domain.Member) (*domain.Member, error)
	GetMember(ctx context.Context, uid int64) (*domain.Member, error)
	ListMembers(ctx context.Context, filter repository.MemberFilter) ([]domain.Member, error)
	ListAccountMembers(ctx context.Context, accountGuid uuid.UUID) ([]domain.Person, error)
	DeleteMember(ctx context.Context, uid int64) error
	DeleteAllExceptPrimary(ctx context.Context, accountUID int64) (int64, error)
}

// memberService implements the MemberService interface.
type memberService struct {
	factory     *db.SessionFactory
	isolation   sql.IsolationLevel
	accountRepo repository.AccountRepository
	memberRepo  repository.MemberRepository
}

// NewMemberService creates a new instance of MemberService.
func NewMemberService(
	factory *db.SessionFactory,
	isolation sql.IsolationLevel,
	accountRepo repository.AccountRepository,
	memberRepo repository.MemberRepository,
) MemberService {
	return &memberService{
		factory:     factory,
		isolation:   isolation,
		accountRepo: accountRepo,
		memberRepo:  memberRepo,
	}
}

// CreateMember inserts a member unless its account already has a primary one.
// The caller decides whether the new member is primary.
func (s *memberService) CreateMember(ctx context.Context, member *domain.Member) (*domain.Member, error) {
	if member == nil || member.AccountUID <= 0 || member.LocationUID <= 0 {
		return nil, util.ErrInvalidInput
	}

	dbc, err := s.factory.CreateContext(ctx, s.isolation)
	if err != nil {
		return nil, fmt.Errorf("create member: failed to open context: %w", err)
	}
	defer dbc.Close()
	q := dbc.Session()

	if err := s.accountRepo.LockByUID(ctx, q, member.AccountUID); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	primaries, err := s.memberRepo.CountPrimaryByAccount(ctx, q, member.AccountUID)
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	if primaries > 0 {
		return nil, util.ErrPrimaryMemberExists
	}

	now := time.Now().UTC()
	if member.Guid == uuid.Nil {
		member.Guid = uuid.New()
	}
	member.CreatedUtc = now
	if member.JoinedDateUtc.IsZero() {
		member.JoinedDateUtc = now
	}
	if err := s.memberRepo.Create(ctx, q, member); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	if err := dbc.Commit(); err != nil {
		return nil, fmt.Errorf("create member: failed to commit: %w", err)
	}
	return member, nil
}

// GetMember retrieves a member by UID.
func (s *memberService) GetMember(ctx context.Context, uid int64) (*domain.Member, error) {
	var member *domain.Member
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		var err error
		member, err = s.memberRepo.GetByUID(ctx, dbc.Session(), uid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

// ListMembers lists the members matching filter.
func (s *memberService) ListMembers(ctx context.Context, filter repository.MemberFilter) ([]domain.Member, error) {
	var members []domain.Member
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		var err error
		members, err = s.memberRepo.List(ctx, dbc.Session(), filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// ListAccountMembers returns the personal details of an account's members.
func (s *memberService) ListAccountMembers(ctx context.Context, accountGuid uuid.UUID) ([]domain.Person, error) {
	var persons []domain.Person
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		var err error
		persons, err = s.memberRepo.ListPersonsByAccountGuid(ctx, dbc.Session(), accountGuid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list account members: %w", err)
	}
	return persons, nil
}

// DeleteMember deletes a member. The last member of an account cannot be
// deleted. When the primary member goes, the remaining member with the
// earliest join date (lowest UID on ties) becomes primary in the same transaction.
func (s *memberService) DeleteMember(ctx context.Context, uid int64) error {
	dbc, err := s.factory.CreateContext(ctx, s.isolation)
	if err != nil {
		return fmt.Errorf("delete member: failed to open context: %w", err)
	}
	defer dbc.Close()
	q := dbc.Session()

	member, err := s.memberRepo.GetByUID(ctx, q, uid)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if err := s.accountRepo.LockByUID(ctx, q, member.AccountUID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	// Re-read under the lock: a concurrent delete may have promoted or removed it.
	if member, err = s.memberRepo.GetByUID(ctx, q, uid); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	count, err := s.memberRepo.CountByAccount(ctx, q, member.AccountUID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if count == 1 {
		return util.ErrLastMember
	}

	n, err := s.memberRepo.Delete(ctx, q, uid)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete member %d: %w", uid, util.ErrNotFound)
	}

	if member.IsPrimary {
		promoted, err := s.memberRepo.PromoteEarliest(ctx, q, member.AccountUID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		if promoted != 1 {
			return fmt.Errorf("delete member: promoted %d members of account %d instead of one", promoted, member.AccountUID)
		}
	}

	if err := dbc.Commit(); err != nil {
		return fmt.Errorf("delete member: failed to commit: %w", err)
	}
	return nil
}

// DeleteAllExceptPrimary deletes every non-primary member of an account and
// returns how many were removed. It refuses accounts without a primary member.
func (s *memberService) DeleteAllExceptPrimary(ctx context.Context, accountUID int64) (int64, error) {
	dbc, err := s.factory.CreateContext(ctx, s.isolation)
	if err != nil {
		return 0, fmt.Errorf("delete non-primary members: failed to open context: %w", err)
	}
	defer dbc.Close()
	q := dbc.Session()

	if err := s.accountRepo.LockByUID(ctx, q, accountUID); err != nil {
		return 0, fmt.Errorf("delete non-primary members: %w", err)
	}

	count, err := s.memberRepo.CountByAccount(ctx, q, accountUID)
	if err != nil {
		return 0, fmt.Errorf("delete non-primary members: %w", err)
	}
	if count <= 1 {
		return 0, util.ErrNothingToDelete
	}
	// Without a primary every member is non-primary and the account would be emptied.
	primaries, err := s.memberRepo.CountPrimaryByAccount(ctx, q, accountUID)
	if err != nil {
		return 0, fmt.Errorf("delete non-primary members: %w", err)
	}
	if primaries == 0 {
		return 0, util.ErrNoPrimaryMember
	}

	deleted, err := s.memberRepo.DeleteNonPrimary(ctx, q, accountUID)
	if err != nil {
		return 0, fmt.Errorf("delete non-primary members: %w", err)
	}

	if err := dbc.Commit(); err != nil {
		return 0, fmt.Errorf("delete non-primary members: failed to commit: %w", err)
	}
	return deleted, nil
}
