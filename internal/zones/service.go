package zones

import (
	"context"
	"fmt"
	"strings"

	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service covers admin zone management and storefront listings.
type Service interface {
	List(ctx context.Context, activeOnly bool) ([]models.DeliveryZone, error)
	Create(ctx context.Context, input ZoneInput) (*models.DeliveryZone, error)
	Update(ctx context.Context, id uuid.UUID, input ZoneInput) (*models.DeliveryZone, error)
}

// ZoneInput is the validated admin payload.
type ZoneInput struct {
	Country string
	State   string
	City    string
	Zone    string
	FeeKobo int64
	ETA     string
	Active  bool
}

type service struct {
	repo Repository
}

// NewService builds the zones service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("zones repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.DeliveryZone, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *service) Create(ctx context.Context, input ZoneInput) (*models.DeliveryZone, error) {
	if err := validateZone(input); err != nil {
		return nil, err
	}
	zone := &models.DeliveryZone{
		Country: defaultCountry(input.Country),
		State:   strings.TrimSpace(input.State),
		City:    strings.TrimSpace(input.City),
		Zone:    strings.TrimSpace(input.Zone),
		FeeKobo: input.FeeKobo,
		ETA:     input.ETA,
		Active:  input.Active,
	}
	if err := s.repo.Create(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ZoneInput) (*models.DeliveryZone, error) {
	if err := validateZone(input); err != nil {
		return nil, err
	}
	zone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery zone not found")
		}
		return nil, err
	}

	zone.Country = defaultCountry(input.Country)
	zone.State = strings.TrimSpace(input.State)
	zone.City = strings.TrimSpace(input.City)
	zone.Zone = strings.TrimSpace(input.Zone)
	zone.FeeKobo = input.FeeKobo
	zone.ETA = input.ETA
	zone.Active = input.Active

	if err := s.repo.Update(ctx, zone); err != nil {
		return nil, err
	}
	return zone, nil
}

func validateZone(input ZoneInput) error {
	if strings.TrimSpace(input.State) == "" || strings.TrimSpace(input.City) == "" || strings.TrimSpace(input.Zone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "state, city and zone are required")
	}
	if input.FeeKobo < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must be non-negative")
	}
	return nil
}

func defaultCountry(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return "NG"
	}
	return country
}
