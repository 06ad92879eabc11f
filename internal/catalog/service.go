package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/crevva/arewa-tasty-backend/pkg/db"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Service covers admin catalog management and storefront listings.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, input ProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	SetAvailability(ctx context.Context, id uuid.UUID, active, inStock bool) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductInput is the validated admin payload.
type ProductInput struct {
	Name        string
	Slug        string
	Description string
	PriceKobo   int64
	Active      bool
	InStock     bool
	CategoryID  *uuid.UUID
	ImageURLs   []string
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Slug:        normalizeSlug(input.Slug),
		Description: input.Description,
		PriceKobo:   input.PriceKobo,
		Active:      input.Active,
		InStock:     input.InStock,
		CategoryID:  input.CategoryID,
		Images:      buildImages(input.ImageURLs),
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if db.ConflictOn(err, "slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already in use")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Slug = normalizeSlug(input.Slug)
	product.Description = input.Description
	product.PriceKobo = input.PriceKobo
	product.Active = input.Active
	product.InStock = input.InStock
	product.CategoryID = input.CategoryID

	if err := s.repo.Update(ctx, product); err != nil {
		if db.ConflictOn(err, "slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already in use")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) SetAvailability(ctx context.Context, id uuid.UUID, active, inStock bool) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Active = active
	product.InStock = inStock
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return err
	}
	return nil
}

func validateInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if normalizeSlug(input.Slug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}
	if input.PriceKobo < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func buildImages(urls []string) []models.ProductImage {
	images := make([]models.ProductImage, 0, len(urls))
	for i, url := range urls {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		images = append(images, models.ProductImage{URL: url, SortOrder: i})
	}
	return images
}
