// internal/domain/person.go
package domain

// Person holds the personal details shared by members.
type Person struct {
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	Address    string `db:"address" json:"address"`
	City       string `db:"city" json:"city"`
	Locale     string `db:"locale" json:"locale"`
	PostalCode string `db:"postal_code" json:"postal_code"`
}
