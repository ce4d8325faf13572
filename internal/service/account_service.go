// internal/service/account_service.go
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

// AccountService defines the interface for account-related business logic.
type AccountService interface {
	ListAccounts(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error)
	GetAccount(ctx context.Context, guid uuid.UUID) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdateAccountLocation(ctx context.Context, guid uuid.UUID, locationUID int64) (*domain.Account, error)
	DeleteAccount(ctx context.Context, uid int64) error
}

type accountService struct {
	factory     *db.SessionFactory
	isolation   sql.IsolationLevel
	accountRepo repository.AccountRepository
	memberRepo  repository.MemberRepository
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(
	factory *db.SessionFactory,
	isolation sql.IsolationLevel,
	accountRepo repository.AccountRepository,
	memberRepo repository.MemberRepository,
) AccountService {
	return &accountService{
		factory:     factory,
		isolation:   isolation,
		accountRepo: accountRepo,
		memberRepo:  memberRepo,
	}
}

func (s *accountService) ListAccounts(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	var accounts []domain.Account
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		var err error
		accounts, err = s.accountRepo.List(ctx, dbc.Session(), filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) GetAccount(ctx context.Context, guid uuid.UUID) (*domain.Account, error) {
	var account *domain.Account
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		var err error
		account, err = s.accountRepo.GetByGuid(ctx, dbc.Session(), guid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// CreateAccount assigns a new guid and creation time and stores the account.
func (s *accountService) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil || account.LocationUID <= 0 || !account.AccountType.Valid() {
		return nil, util.ErrInvalidInput
	}
	if account.PaymentAmount.Valid && account.PaymentAmount.Decimal.IsNegative() {
		return nil, util.ErrInvalidInput
	}

	account.Guid = uuid.New()
	account.CreatedUtc = time.Now().UTC()
	account.UpdatedUtc = nil

	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		return s.accountRepo.Create(ctx, dbc.Session(), account)
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// UpdateAccountLocation moves an account to another location.
func (s *accountService) UpdateAccountLocation(ctx context.Context, guid uuid.UUID, locationUID int64) (*domain.Account, error) {
	if locationUID <= 0 {
		return nil, util.ErrInvalidInput
	}

	var account *domain.Account
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		q := dbc.Session()
		n, err := s.accountRepo.UpdateLocation(ctx, q, guid, locationUID, time.Now().UTC())
		if err != nil {
			return err
		}
		if n == 0 {
			return util.ErrNotFound
		}
		account, err = s.accountRepo.GetByGuid(ctx, q, guid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update account location: %w", err)
	}
	return account, nil
}

// DeleteAccount deletes an account together with all of its members.
func (s *accountService) DeleteAccount(ctx context.Context, uid int64) error {
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		q := dbc.Session()
		if _, err := s.memberRepo.DeleteByAccount(ctx, q, uid); err != nil {
			return err
		}
		n, err := s.accountRepo.Delete(ctx, q, uid)
		if err != nil {
			return err
		}
		if n == 0 {
			return util.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
