// internal/service/location_service.go
package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"membership-service/internal/domain"
	"membership-service/internal/repository"
	"membership-service/internal/util"
	"membership-service/pkg/db"
)

// LocationService defines the interface for location-related business logic.
type LocationService interface {
	ListLocations(ctx context.Context, filter repository.LocationFilter) ([]domain.Location, error)
	GetLocation(ctx context.Context, guid uuid.UUID) (*domain.Location, error)
	CreateLocation(ctx context.Context, location *domain.Location) (*domain.Location, error)
	DeleteLocation(ctx context.Context, guid uuid.UUID) error
}

type locationService struct {
	factory      *db.SessionFactory
	isolation    sql.IsolationLevel
	locationRepo repository.LocationRepository
}

// NewLocationService creates a new instance of LocationService.
func NewLocationService(factory *db.SessionFactory, isolation sql.IsolationLevel, locationRepo repository.LocationRepository) LocationService {
	return &locationService{factory: factory, isolation: isolation, locationRepo: locationRepo}
}

func (s *locationService) ListLocations(ctx context.Context, filter repository.LocationFilter) ([]domain.Location, error) {
	var locations []domain.Location
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		var err error
		locations, err = s.locationRepo.List(ctx, dbc.Session(), filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (s *locationService) GetLocation(ctx context.Context, guid uuid.UUID) (*domain.Location, error) {
	var location *domain.Location
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		var err error
		location, err = s.locationRepo.GetByGuid(ctx, dbc.Session(), guid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return location, nil
}

// CreateLocation stores a new enabled location with billing off and GREEN status.
func (s *locationService) CreateLocation(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	if location == nil || strings.TrimSpace(location.Name) == "" {
		return nil, util.ErrInvalidInput
	}
	created := domain.NewLocation(location.Name, location.Address, location.City, location.Locale, location.PostalCode)

	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		return s.locationRepo.Create(ctx, dbc.Session(), created)
	})
	if err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return created, nil
}

func (s *locationService) DeleteLocation(ctx context.Context, guid uuid.UUID) error {
	err := db.WithContext(ctx, s.factory, s.isolation, func(dbc *db.DbContext) error {
		n, err := s.locationRepo.DeleteByGuid(ctx, dbc.Session(), guid)
		if err != nil {
			return err
		}
		if n == 0 {
			return util.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}
