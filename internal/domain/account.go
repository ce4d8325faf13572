// internal/domain/account.go
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// AccountType defines how a membership is paid for.
type AccountType int

const (
	AccountTypeTerm    AccountType = iota // Recurring payments for a specific period of time
	AccountTypePrepaid                    // Paid in advance for a specific period, no recurring payments
	AccountTypeOpenEnd                    // Recurring payments for an indefinite period of time
	AccountTypeGuest                      // No payment for membership
)

var accountTypeNames = [...]string{"TERM", "PREPAID", "OPENEND", "GUEST"}

func (t AccountType) String() string {
	if t.Valid() {
		return accountTypeNames[t]
	}
	return fmt.Sprintf("AccountType(%d)", int(t))
}

// Valid reports whether t is one of the defined account types.
func (t AccountType) Valid() bool {
	return t >= AccountTypeTerm && t <= AccountTypeGuest
}

// UnmarshalJSON accepts both the numeric value and the name.
func (t *AccountType) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*t = AccountType(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("account type: %w", err)
	}
	for i, name := range accountTypeNames {
		if strings.EqualFold(name, s) {
			*t = AccountType(i)
			return nil
		}
	}
	return fmt.Errorf("account type: unknown value %q", s)
}

// Account represents a membership account.
type Account struct {
	UID               int64               `db:"uid" json:"uid"`                   // Primary key, assigned by the store
	Guid              uuid.UUID           `db:"guid" json:"guid"`                 // Unique global id
	LocationUID       int64               `db:"location_uid" json:"location_uid"` // Foreign key to Location
	CreatedUtc        time.Time           `db:"created_utc" json:"created_utc"`
	UpdatedUtc        *time.Time          `db:"updated_utc" json:"updated_utc"`
	Status            int                 `db:"status" json:"status"`
	EndDateUtc        *time.Time          `db:"end_date_utc" json:"end_date_utc"`
	AccountType       AccountType         `db:"account_type" json:"account_type"`
	PaymentAmount     decimal.NullDecimal `db:"payment_amount" json:"payment_amount"` // NUMERIC in DB, null for guests
	PendCancel        bool                `db:"pend_cancel" json:"pend_cancel"`
	PendCancelDateUtc *time.Time          `db:"pend_cancel_date_utc" json:"pend_cancel_date_utc"`
	PeriodStartUtc    time.Time           `db:"period_start_utc" json:"period_start_utc"`
	PeriodEndUtc      time.Time           `db:"period_end_utc" json:"period_end_utc"`
	NextBillingUtc    time.Time           `db:"next_billing_utc" json:"next_billing_utc"`
}
