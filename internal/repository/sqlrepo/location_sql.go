// internal/repository/sqlrepo/location_sql.go
package sqlrepo

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"membership-service/internal/domain"
	"membership-service/internal/repository"
)

var locationColumns = []string{
	"uid", "guid", "created_utc", "disabled", "enable_billing", "account_status",
	"name", "address", "city", "locale", "postal_code",
}

var selectLocation = "SELECT " + strings.Join(locationColumns, ", ") + " FROM location"

// LocationRepository implements repository.LocationRepository for both dialects.
type LocationRepository struct{}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository() repository.LocationRepository {
	return &LocationRepository{}
}

// Create inserts a new location using the provided DBExecutor.
func (r *LocationRepository) Create(ctx context.Context, q repository.DBExecutor, location *domain.Location) error {
	query := `INSERT INTO location (guid, created_utc, disabled, enable_billing, account_status,
			name, address, city, locale, postal_code)
		VALUES (:guid, :created_utc, :disabled, :enable_billing, :account_status,
			:name, :address, :city, :locale, :postal_code)
		RETURNING uid`
	if err := q.QueryRow(ctx, &location.UID, query, location); err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// List returns the locations matching filter ordered by name.
func (r *LocationRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.LocationFilter) ([]domain.Location, error) {
	b := sq.Select(locationColumns...).From("location").OrderBy("name", "uid")
	if filter.City != "" {
		b = b.Where(sq.Eq{"city": filter.City})
	}
	if filter.Disabled != nil {
		b = b.Where(sq.Eq{"disabled": *filter.Disabled})
	}

	locations := []domain.Location{}
	if err := q.Select(ctx, &locations, b); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// GetByGuid retrieves a location by its guid.
func (r *LocationRepository) GetByGuid(ctx context.Context, q repository.DBExecutor, guid uuid.UUID) (*domain.Location, error) {
	var location domain.Location
	query := selectLocation + ` WHERE guid = :guid`
	if err := q.QueryRow(ctx, &location, query, map[string]any{"guid": guid}); err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", guid, notFound(err))
	}
	return &location, nil
}

// DeleteByGuid removes a location and reports how many rows were deleted.
func (r *LocationRepository) DeleteByGuid(ctx context.Context, q repository.DBExecutor, guid uuid.UUID) (int64, error) {
	n, err := q.Execute(ctx, `DELETE FROM location WHERE guid = :guid`, map[string]any{"guid": guid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete location %s: %w", guid, err)
	}
	return n, nil
}
