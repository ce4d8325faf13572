// internal/repository/location_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"membership-service/internal/domain"
)

// LocationFilter narrows List. Zero values do not filter.
type LocationFilter struct {
	City     string
	Disabled *bool
}

// LocationRepository defines the interface for location data operations.
type LocationRepository interface {
	Create(ctx context.Context, q DBExecutor, location *domain.Location) error
	List(ctx context.Context, q DBExecutor, filter LocationFilter) ([]domain.Location, error)
	GetByGuid(ctx context.Context, q DBExecutor, guid uuid.UUID) (*domain.Location, error)
	DeleteByGuid(ctx context.Context, q DBExecutor, guid uuid.UUID) (int64, error)
}
