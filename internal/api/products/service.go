package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

type Store interface {
	ListProducts(ctx context.Context, tenantID, query string, includeInactive bool, limit, offset int) ([]types.Product, int, error)
	GetProduct(ctx context.Context, ref string) (*types.Product, error)
	UpsertProducts(ctx context.Context, products []types.Product) (int, error)
	UpdateProduct(ctx context.Context, p *types.Product) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, query string, includeInactive bool, p utils.Pagination) ([]types.Product, int, error) {
	return s.store.ListProducts(ctx, shared.TenantFrom(ctx), strings.TrimSpace(query), includeInactive, p.Limit, p.Offset())
}

func (s *Service) Get(ctx context.Context, ref string, includeInactive bool) (*types.Product, error) {
	p, err := s.store.GetProduct(ctx, ref)
	if errors.Is(err, loaders.ErrNotFound) ||
		(err == nil && (!shared.InTenant(ctx, p.TenantID) || (!p.IsActive && !includeInactive))) {
		return nil, utils.NotFound("product_not_found", "product not found")
	}
	return p, err
}

func (s *Service) Create(ctx context.Context, req ProductRequest) (*types.Product, error) {
	now := time.Now().UTC()
	p := types.Product{
		ID:          uuid.NewString(),
		TenantID:    shared.TenantFrom(ctx),
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		LegacyID:    req.LegacyID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       utils.RoundMoney(req.Price),
		Images:      req.Images,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.store.GetProduct(ctx, p.Slug); err == nil {
		return nil, utils.Conflict("slug_taken", "a product with this slug already exists")
	}
	if _, err := s.store.UpsertProducts(ctx, []types.Product{p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id string, req ProductRequest) (*types.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, loaders.ErrNotFound) || (err == nil && !shared.InTenant(ctx, p.TenantID)) {
		return nil, utils.NotFound("product_not_found", "product not found")
	}
	if err != nil {
		return nil, err
	}
	p.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	p.LegacyID = req.LegacyID
	p.SKU = req.SKU
	p.Name = req.Name
	p.Description = req.Description
	p.Price = utils.RoundMoney(req.Price)
	p.Images = req.Images
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, loaders.ErrConflict) {
			return nil, utils.Conflict("slug_taken", "a product with this slug already exists")
		}
		return nil, err
	}
	return p, nil
}
