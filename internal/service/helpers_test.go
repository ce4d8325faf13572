// internal/service/helpers_test.go
package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"membership-service/internal/domain"
	"membership-service/internal/repository"
	"membership-service/internal/repository/sqlrepo"
	"membership-service/pkg/db"
	"membership-service/pkg/db/dbtest"
)

type testEnv struct {
	factory   *db.SessionFactory
	accounts  repository.AccountRepository
	members   repository.MemberRepository
	locations repository.LocationRepository

	accountSvc  AccountService
	memberSvc   MemberService
	locationSvc LocationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	f, _ := dbtest.NewFactory(t)
	env := &testEnv{
		factory:   f,
		accounts:  sqlrepo.NewAccountRepository(),
		members:   sqlrepo.NewMemberRepository(),
		locations: sqlrepo.NewLocationRepository(),
	}
	env.accountSvc = NewAccountService(f, sql.LevelDefault, env.accounts, env.members)
	env.memberSvc = NewMemberService(f, sql.LevelDefault, env.accounts, env.members)
	env.locationSvc = NewLocationService(f, sql.LevelDefault, env.locations)
	return env
}

func (e *testEnv) seedLocation(t *testing.T) *domain.Location {
	t.Helper()
	loc, err := e.locationSvc.CreateLocation(context.Background(), &domain.Location{Name: "Main Street", City: "Oslo"})
	require.NoError(t, err)
	return loc
}

func (e *testEnv) seedAccount(t *testing.T, locationUID int64) *domain.Account {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	acc, err := e.accountSvc.CreateAccount(context.Background(), &domain.Account{
		LocationUID:    locationUID,
		AccountType:    domain.AccountTypeTerm,
		PeriodStartUtc: start,
		PeriodEndUtc:   start.AddDate(1, 0, 0),
		NextBillingUtc: start.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	return acc
}

// seedMember inserts a member directly, bypassing the create guard, so tests
// can start from accounts that already hold several members.
func (e *testEnv) seedMember(t *testing.T, acc *domain.Account, first string, primary bool, joined time.Time) *domain.Member {
	t.Helper()
	m := domain.NewMember(acc.UID, acc.LocationUID, domain.Person{FirstName: first, LastName: "Tester"}, primary, joined)
	err := db.WithContext(context.Background(), e.factory, sql.LevelDefault, func(dbc *db.DbContext) error {
		return e.members.Create(context.Background(), dbc.Session(), m)
	})
	require.NoError(t, err)
	return m
}

func (e *testEnv) accountMembers(t *testing.T, accountUID int64) []domain.Member {
	t.Helper()
	members, err := e.memberSvc.ListMembers(context.Background(), repository.MemberFilter{AccountUID: accountUID})
	require.NoError(t, err)
	return members
}

// requirePrimaryInvariant checks that an account has exactly one primary
// member, or none when it has no members at all.
func (e *testEnv) requirePrimaryInvariant(t *testing.T, accountUID int64) {
	t.Helper()
	members := e.accountMembers(t, accountUID)
	primaries := 0
	for _, m := range members {
		if m.IsPrimary {
			primaries++
		}
	}
	if len(members) == 0 {
		require.Zero(t, primaries)
		return
	}
	require.Equal(t, 1, primaries, "account %d must have exactly one primary member", accountUID)
}

func primaryOf(members []domain.Member) *domain.Member {
	for i := range members {
		if members[i].IsPrimary {
			return &members[i]
		}
	}
	return nil
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}
