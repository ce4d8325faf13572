// internal/domain/member.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a person belonging to an account. Per account, either no
// member is primary (the account has no members) or exactly one is.
type Member struct {
	UID           int64      `db:"uid" json:"uid"`                         // Primary key, assigned by the store
	Guid          uuid.UUID  `db:"guid" json:"guid"`                       // Global id
	AccountUID    int64      `db:"account_uid" json:"account_uid"`         // Foreign key to Account
	LocationUID   int64      `db:"location_uid" json:"location_uid"`       // Foreign key to Location
	CreatedUtc    time.Time  `db:"created_utc" json:"created_utc"`         // Timestamp of creation
	UpdatedUtc    *time.Time `db:"updated_utc" json:"updated_utc"`         // Timestamp of last update
	IsPrimary     bool       `db:"is_primary" json:"primary"`              // Lead member of the account
	JoinedDateUtc time.Time  `db:"joined_date_utc" json:"joined_date_utc"` // Decides promotion order
	CancelDateUtc *time.Time `db:"cancel_date_utc" json:"cancel_date_utc"`
	Cancelled     bool       `db:"cancelled" json:"cancelled"`
	Person
}

// NewMember creates a new Member instance. JoinedDateUtc defaults to now.
func NewMember(accountUID, locationUID int64, person Person, isPrimary bool, joined time.Time) *Member {
	now := time.Now().UTC()
	if joined.IsZero() {
		joined = now
	}
	return &Member{
		Guid:          uuid.New(),
		AccountUID:    accountUID,
		LocationUID:   locationUID,
		CreatedUtc:    now,
		IsPrimary:     isPrimary,
		JoinedDateUtc: joined.UTC(),
		Person:        person,
	}
}
