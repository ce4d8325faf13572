// internal/repository/sqlrepo/member_sql.go
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

var memberColumns = []string{
	"uid", "guid", "account_uid", "location_uid", "created_utc", "updated_utc", "is_primary",
	"joined_date_utc", "cancel_date_utc", "cancelled",
	"first_name", "last_name", "address", "city", "locale", "postal_code",
}

var selectMember = "SELECT " + strings.Join(memberColumns, ", ") + " FROM member"

// MemberRepository implements repository.MemberRepository for both dialects.
type MemberRepository struct{}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository() repository.MemberRepository {
	return &MemberRepository{}
}

// Create inserts a new member using the provided DBExecutor.
func (r *MemberRepository) Create(ctx context.Context, q repository.DBExecutor, member *domain.Member) error {
	query := `INSERT INTO member (guid, account_uid, location_uid, created_utc, updated_utc, is_primary,
			joined_date_utc, cancel_date_utc, cancelled,
			first_name, last_name, address, city, locale, postal_code)
		VALUES (:guid, :account_uid, :location_uid, :created_utc, :updated_utc, :is_primary,
			:joined_date_utc, :cancel_date_utc, :cancelled,
			:first_name, :last_name, :address, :city, :locale, :postal_code)
		RETURNING uid`
	if err := q.QueryRow(ctx, &member.UID, query, member); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetByUID retrieves a member by its UID.
func (r *MemberRepository) GetByUID(ctx context.Context, q repository.DBExecutor, uid int64) (*domain.Member, error) {
	var member domain.Member
	if err := q.QueryRow(ctx, &member, selectMember+` WHERE uid = :uid`, map[string]any{"uid": uid}); err != nil {
		return nil, fmt.Errorf("failed to get member %d: %w", uid, notFound(err))
	}
	return &member, nil
}

// List returns the members matching filter in join order.
func (r *MemberRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.MemberFilter) ([]domain.Member, error) {
	b := sq.Select(memberColumns...).From("member").OrderBy("account_uid", "joined_date_utc", "uid")
	if filter.AccountUID != 0 {
		b = b.Where(sq.Eq{"account_uid": filter.AccountUID})
	}
	if filter.LocationUID != 0 {
		b = b.Where(sq.Eq{"location_uid": filter.LocationUID})
	}
	if filter.Primary != nil {
		b = b.Where(sq.Eq{"is_primary": *filter.Primary})
	}
	if filter.Cancelled != nil {
		b = b.Where(sq.Eq{"cancelled": *filter.Cancelled})
	}

	members := []domain.Member{}
	if err := q.Select(ctx, &members, b); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ListPersonsByAccountGuid returns the personal details of the account's members.
func (r *MemberRepository) ListPersonsByAccountGuid(ctx context.Context, q repository.DBExecutor, guid uuid.UUID) ([]domain.Person, error) {
	query := `SELECT m.first_name, m.last_name, m.address, m.city, m.locale, m.postal_code
		FROM account a
		INNER JOIN member m ON a.uid = m.account_uid
		WHERE a.guid = :guid
		ORDER BY m.joined_date_utc, m.uid`
	persons := []domain.Person{}
	if err := q.Query(ctx, &persons, query, map[string]any{"guid": guid}); err != nil {
		return nil, fmt.Errorf("failed to list members of account %s: %w", guid, err)
	}
	return persons, nil
}

// CountByAccount counts every member of an account.
func (r *MemberRepository) CountByAccount(ctx context.Context, q repository.DBExecutor, accountUID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM member WHERE account_uid = :account_uid`
	n, err := db.ExecuteScalar[int64](ctx, q, query, map[string]any{"account_uid": accountUID})
	if err != nil {
		return 0, fmt.Errorf("failed to count members of account %d: %w", accountUID, err)
	}
	return n, nil
}

// CountPrimaryByAccount counts the primary members of an account.
func (r *MemberRepository) CountPrimaryByAccount(ctx context.Context, q repository.DBExecutor, accountUID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM member WHERE account_uid = :account_uid AND is_primary = TRUE`
	n, err := db.ExecuteScalar[int64](ctx, q, query, map[string]any{"account_uid": accountUID})
	if err != nil {
		return 0, fmt.Errorf("failed to count primary members of account %d: %w", accountUID, err)
	}
	return n, nil
}

// Delete removes a single member.
func (r *MemberRepository) Delete(ctx context.Context, q repository.DBExecutor, uid int64) (int64, error) {
	n, err := q.Execute(ctx, `DELETE FROM member WHERE uid = :uid`, map[string]any{"uid": uid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete member %d: %w", uid, err)
	}
	return n, nil
}

// PromoteEarliest flags the earliest-joined member of an account as primary.
func (r *MemberRepository) PromoteEarliest(ctx context.Context, q repository.DBExecutor, accountUID int64, at time.Time) (int64, error) {
	query := `UPDATE member SET is_primary = TRUE, updated_utc = :updated_utc
		WHERE uid = (
			SELECT uid FROM member
			WHERE account_uid = :account_uid
			ORDER BY joined_date_utc, uid
			LIMIT 1
		)`
	n, err := q.Execute(ctx, query, map[string]any{"account_uid": accountUID, "updated_utc": at})
	if err != nil {
		return 0, fmt.Errorf("failed to promote member of account %d: %w", accountUID, err)
	}
	return n, nil
}

// DeleteNonPrimary removes every non-primary member of an account in one statement.
func (r *MemberRepository) DeleteNonPrimary(ctx context.Context, q repository.DBExecutor, accountUID int64) (int64, error) {
	query := `DELETE FROM member WHERE account_uid = :account_uid AND is_primary = FALSE`
	n, err := q.Execute(ctx, query, map[string]any{"account_uid": accountUID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete non-primary members of account %d: %w", accountUID, err)
	}
	return n, nil
}

// DeleteByAccount removes every member of an account.
func (r *MemberRepository) DeleteByAccount(ctx context.Context, q repository.DBExecutor, accountUID int64) (int64, error) {
	n, err := q.Execute(ctx, `DELETE FROM member WHERE account_uid = :account_uid`, map[string]any{"account_uid": accountUID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete members of account %d: %w", accountUID, err)
	}
	return n, nil
}
