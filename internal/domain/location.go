// internal/domain/location.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocationStatus is the account health flag of a location.
type LocationStatus int

const (
	LocationStatusGreen LocationStatus = iota
	LocationStatusYellow
	LocationStatusRed
)

var locationStatusNames = [...]string{"GREEN", "YELLOW", "RED"}

func (s LocationStatus) String() string {
	if s >= LocationStatusGreen && s <= LocationStatusRed {
		return locationStatusNames[s]
	}
	return fmt.Sprintf("LocationStatus(%d)", int(s))
}

// MarshalText renders the status by name in JSON.
func (s LocationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *LocationStatus) UnmarshalText(b []byte) error {
	for i, name := range locationStatusNames {
		if strings.EqualFold(name, string(b)) {
			*s = LocationStatus(i)
			return nil
		}
	}
	return fmt.Errorf("location status: unknown value %q", string(b))
}

// Location is a site accounts and members belong to.
type Location struct {
	UID           int64          `db:"uid" json:"uid"`
	Guid          uuid.UUID      `db:"guid" json:"guid"`
	CreatedUtc    time.Time      `db:"created_utc" json:"created_utc"`
	Disabled      bool           `db:"disabled" json:"disabled"`
	EnableBilling bool           `db:"enable_billing" json:"enable_billing"`
	AccountStatus LocationStatus `db:"account_status" json:"account_status"`
	Name          string         `db:"name" json:"name"`
	Address       string         `db:"address" json:"address"`
	City          string         `db:"city" json:"city"`
	Locale        string         `db:"locale" json:"locale"`
	PostalCode    string         `db:"postal_code" json:"postal_code"`
}

// NewLocation creates an enabled location with billing off and GREEN status.
func NewLocation(name, address, city, locale, postalCode string) *Location {
	return &Location{
		Guid:          uuid.New(),
		CreatedUtc:    time.Now().UTC(),
		AccountStatus: LocationStatusGreen,
		Name:          name,
		Address:       address,
		City:          city,
		Locale:        locale,
		PostalCode:    postalCode,
	}
}
