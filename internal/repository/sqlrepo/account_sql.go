// internal/repository/sqlrepo/account_sql.go
package sqlrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"membership-service/internal/domain"
	"membership-service/internal/repository"
	"membership-service/pkg/db"
)

var accountColumns = []string{
	"uid", "guid", "location_uid", "created_utc", "updated_utc", "status", "end_date_utc",
	"account_type", "payment_amount", "pend_cancel", "pend_cancel_date_utc",
	"period_start_utc", "period_end_utc", "next_billing_utc",
}

var selectAccount = "SELECT " + strings.Join(accountColumns, ", ") + " FROM account"

// AccountRepository implements repository.AccountRepository for both dialects.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// Create inserts a new account using the provided DBExecutor.
func (r *AccountRepository) Create(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `INSERT INTO account (guid, location_uid, created_utc, updated_utc, status, end_date_utc,
			account_type, payment_amount, pend_cancel, pend_cancel_date_utc,
			period_start_utc, period_end_utc, next_billing_utc)
		VALUES (:guid, :location_uid, :created_utc, :updated_utc, :status, :end_date_utc,
			:account_type, :payment_amount, :pend_cancel, :pend_cancel_date_utc,
			:period_start_utc, :period_end_utc, :next_billing_utc)
		RETURNING uid`
	if err := q.QueryRow(ctx, &account.UID, query, account); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// List returns the accounts matching filter in creation order.
func (r *AccountRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.AccountFilter) ([]domain.Account, error) {
	b := sq.Select(accountColumns...).From("account").OrderBy("uid")
	if filter.LocationUID != 0 {
		b = b.Where(sq.Eq{"location_uid": filter.LocationUID})
	}
	if filter.AccountType != nil {
		b = b.Where(sq.Eq{"account_type": int(*filter.AccountType)})
	}
	if filter.PendCancel != nil {
		b = b.Where(sq.Eq{"pend_cancel": *filter.PendCancel})
	}

	accounts := []domain.Account{}
	if err := q.Select(ctx, &accounts, b); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// GetByGuid retrieves an account by its guid.
func (r *AccountRepository) GetByGuid(ctx context.Context, q repository.DBExecutor, guid uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	if err := q.QueryRow(ctx, &account, selectAccount+` WHERE guid = :guid`, map[string]any{"guid": guid}); err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", guid, notFound(err))
	}
	return &account, nil
}

// GetByUID retrieves an account by its UID.
func (r *AccountRepository) GetByUID(ctx context.Context, q repository.DBExecutor, uid int64) (*domain.Account, error) {
	var account domain.Account
	if err := q.QueryRow(ctx, &account, selectAccount+` WHERE uid = :uid`, map[string]any{"uid": uid}); err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", uid, notFound(err))
	}
	return &account, nil
}

// LockByUID locks the account row until the transaction ends. Postgres gets
// SELECT ... FOR UPDATE. SQLite has no row locks; its transactions begin
// IMMEDIATE and already hold the database write lock.
func (r *AccountRepository) LockByUID(ctx context.Context, q repository.DBExecutor, uid int64) error {
	query := `SELECT uid FROM account WHERE uid = :uid`
	if q.Dialect() == db.DriverPostgres {
		query += ` FOR UPDATE`
	}
	var locked int64
	if err := q.QueryRow(ctx, &locked, query, map[string]any{"uid": uid}); err != nil {
		return fmt.Errorf("failed to lock account %d: %w", uid, notFound(err))
	}
	return nil
}

// UpdateLocation moves an account to another location.
func (r *AccountRepository) UpdateLocation(ctx context.Context, q repository.DBExecutor, guid uuid.UUID, locationUID int64, at time.Time) (int64, error) {
	query := `UPDATE account SET location_uid = :location_uid, updated_utc = :updated_utc WHERE guid = :guid`
	n, err := q.Execute(ctx, query, map[string]any{
		"location_uid": locationUID,
		"updated_utc":  at,
		"guid":         guid,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update location of account %s: %w", guid, err)
	}
	return n, nil
}

// Delete removes an account row. Its members must be deleted first.
func (r *AccountRepository) Delete(ctx context.Context, q repository.DBExecutor, uid int64) (int64, error) {
	n, err := q.Execute(ctx, `DELETE FROM account WHERE uid = :uid`, map[string]any{"uid": uid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete account %d: %w", uid, err)
	}
	return n, nil
}
