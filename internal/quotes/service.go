package quotes

import (
	"context"
	"fmt"

	"github.com/crevva/arewa-tasty-backend/internal/catalog"
	"github.com/crevva/arewa-tasty-backend/internal/pricing"
	"github.com/crevva/arewa-tasty-backend/internal/zones"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/google/uuid"
)

// PlaceholderImageURL is served when a product has no images.
const PlaceholderImageURL = "/images/placeholder-dish.png"

const (
	msgInvalidDeliveryZone = "delivery zone is not supported"
	msgProductUnavailable  = "item unavailable, please update your cart"
)

// RequestLine is one cart line as submitted by the client. Prices are never
// part of the request; they are resolved server-side on every call.
type RequestLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Line is a fully priced, availability-checked quote line.
type Line struct {
	ProductID     uuid.UUID      `json:"productId"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	UnitPriceKobo int64          `json:"unitPrice"`
	Quantity      int            `json:"quantity"`
	LineTotalKobo int64          `json:"lineTotal"`
	ImageURL      string         `json:"imageUrl"`
	Currency      enums.Currency `json:"currency"`
}

// ZoneSummary is the delivery zone slice of a quote.
type ZoneSummary struct {
	ID      uuid.UUID `json:"id"`
	State   string    `json:"state"`
	City    string    `json:"city"`
	Zone    string    `json:"zone"`
	FeeKobo int64     `json:"fee"`
	ETA     string    `json:"eta"`
}

// Quote is the ephemeral priced cart. It is recomputed from catalog and zone
// state on every request and never persisted or trusted from the client.
type Quote struct {
	SubtotalKobo int64          `json:"subtotal"`
	DeliveryKobo int64          `json:"deliveryFee"`
	TotalKobo    int64          `json:"total"`
	Currency     enums.Currency `json:"currency"`
	Lines        []Line         `json:"lines"`
	Zone         ZoneSummary    `json:"deliveryZone"`
}

// Service resolves carts into quotes.
type Service interface {
	Compute(ctx context.Context, zoneID uuid.UUID, lines []RequestLine) (*Quote, error)
}

type service struct {
	catalogRepo catalog.Repository
	zoneRepo    zones.Repository
}

// NewService builds the quote engine.
func NewService(catalogRepo catalog.Repository, zoneRepo zones.Repository) (Service, error) {
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if zoneRepo == nil {
		return nil, fmt.Errorf("zones repository required")
	}
	return &service{catalogRepo: catalogRepo, zoneRepo: zoneRepo}, nil
}

func (s *service) Compute(ctx context.Context, zoneID uuid.UUID, lines []RequestLine) (*Quote, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	zone, err := s.zoneRepo.FindByID(ctx, zoneID)
	if err != nil {
		if zones.IsNotFound(err) {
			return nil, ErrInvalidDeliveryZone()
		}
		return nil, err
	}
	if !zone.Active {
		return nil, ErrInvalidDeliveryZone()
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.catalogRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	// Any missing, inactive or out-of-stock line fails the whole quote.
	quoted := make([]Line, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok || !product.Active || !product.InStock {
			return nil, ErrProductUnavailable(line.ProductID)
		}

		priceLine := pricing.Line{UnitPriceKobo: product.PriceKobo, Quantity: line.Quantity}
		quoted = append(quoted, Line{
			ProductID:     product.ID,
			Name:          product.Name,
			Slug:          product.Slug,
			UnitPriceKobo: product.PriceKobo,
			Quantity:      line.Quantity,
			LineTotalKobo: pricing.LineTotal(priceLine),
			ImageURL:      primaryImage(product),
			Currency:      enums.CurrencyNGN,
		})
		priced = append(priced, priceLine)
	}

	totals := pricing.Compute(priced, zone.FeeKobo)

	return &Quote{
		SubtotalKobo: totals.SubtotalKobo,
		DeliveryKobo: totals.DeliveryKobo,
		TotalKobo:    totals.TotalKobo,
		Currency:     enums.CurrencyNGN,
		Lines:        quoted,
		Zone: ZoneSummary{
			ID:      zone.ID,
			State:   zone.State,
			City:    zone.City,
			Zone:    zone.Zone,
			FeeKobo: zone.FeeKobo,
			ETA:     zone.ETA,
		},
	}, nil
}

// primaryImage picks the image with the lowest sort order, falling back to
// the placeholder.
func primaryImage(product *models.Product) string {
	if len(product.Images) == 0 {
		return PlaceholderImageURL
	}
	best := product.Images[0]
	for _, img := range product.Images[1:] {
		if img.SortOrder < best.SortOrder {
			best = img
		}
	}
	return best.URL
}

// ErrInvalidDeliveryZone builds the domain error for a missing or inactive zone.
func ErrInvalidDeliveryZone() error {
	return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidDeliveryZone)
}

// ErrProductUnavailable builds the domain error for an unavailable line.
func ErrProductUnavailable(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msgProductUnavailable).
		WithDetails(map[string]any{"productId": productID})
}

// IsInvalidDeliveryZone reports whether err is the invalid-zone domain error.
func IsInvalidDeliveryZone(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Message() == msgInvalidDeliveryZone
}

// IsProductUnavailable reports whether err is the unavailable-product domain error.
func IsProductUnavailable(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Message() == msgProductUnavailable
}
