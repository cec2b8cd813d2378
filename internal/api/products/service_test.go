package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

type fakeStore struct {
	products []types.Product
}

func (s *fakeStore) ListProducts(_ context.Context, tenantID, query string, includeInactive bool, limit, offset int) ([]types.Product, int, error) {
	var out []types.Product
	for _, p := range s.products {
		if !includeInactive && !p.IsActive {
			continue
		}
		if tenantID != "" && p.TenantID != tenantID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			continue
		}
		out = append(out, p)
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *fakeStore) GetProduct(_ context.Context, ref string) (*types.Product, error) {
	for i := range s.products {
		p := s.products[i]
		if p.ID == ref || p.Slug == strings.ToLower(ref) || (p.LegacyID != "" && p.LegacyID == ref) {
			return &p, nil
		}
	}
	return nil, loaders.ErrNotFound
}

func (s *fakeStore) UpsertProducts(_ context.Context, products []types.Product) (int, error) {
	s.products = append(s.products, products...)
	return len(products), nil
}

func (s *fakeStore) UpdateProduct(_ context.Context, p *types.Product) error {
	for i := range s.products {
		if s.products[i].ID != p.ID && s.products[i].Slug == p.Slug {
			return loaders.ErrConflict
		}
	}
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = *p
			return nil
		}
	}
	return loaders.ErrNotFound
}

func seeded() *fakeStore {
	return &fakeStore{products: []types.Product{
		{ID: "p1", Slug: "desk-lamp", LegacyID: "101", Name: "Desk Lamp", Price: 89.9, IsActive: true},
		{ID: "p2", Slug: "office-chair", Name: "Office Chair", Price: 450, IsActive: true},
		{ID: "p3", Slug: "old-lamp", Name: "Old Lamp", Price: 10, IsActive: false},
		{ID: "p4", TenantID: "shop-1", Slug: "shop-mug", Name: "Shop Mug", Price: 25, IsActive: true},
	}}
}

func apiCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Code
}

func TestGet(t *testing.T) {
	svc := NewService(seeded())
	ctx := context.Background()

	p, err := svc.Get(ctx, "DESK-LAMP", false)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	p, err = svc.Get(ctx, "101", false)
	require.NoError(t, err)
	assert.Equal(t, "desk-lamp", p.Slug)

	_, err = svc.Get(ctx, "old-lamp", false)
	assert.Equal(t, "product_not_found", apiCode(t, err))

	p, err = svc.Get(ctx, "old-lamp", true)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	_, err = svc.Get(ctx, "nope", true)
	assert.Equal(t, "product_not_found", apiCode(t, err))
}

func TestCreateAndUpdate(t *testing.T) {
	store := seeded()
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductRequest{Slug: " Standing-Desk ", Name: "Standing Desk", Price: 1299.999})
	require.NoError(t, err)
	assert.Equal(t, "standing-desk", p.Slug)
	assert.Equal(t, 1300.0, p.Price)
	assert.True(t, p.IsActive)
	assert.NotEmpty(t, p.ID)
	assert.Len(t, store.products, 5)

	_, err = svc.Create(ctx, ProductRequest{Slug: "desk-lamp", Name: "Another"})
	assert.Equal(t, "slug_taken", apiCode(t, err))

	inactive := false
	updated, err := svc.Update(ctx, "p2", ProductRequest{Slug: "office-chair-pro", Name: "Office Chair Pro", Price: 499, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "office-chair-pro", updated.Slug)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, "p2", ProductRequest{Slug: "desk-lamp", Name: "Clash"})
	assert.Equal(t, "slug_taken", apiCode(t, err))

	_, err = svc.Update(ctx, "missing", ProductRequest{Slug: "x", Name: "X"})
	assert.Equal(t, "product_not_found", apiCode(t, err))
}

func TestTenantScoping(t *testing.T) {
	store := seeded()
	svc := NewService(store)
	shop := shared.WithTenant(context.Background(), "shop-1")
	other := shared.WithTenant(context.Background(), "shop-2")

	items, total, err := svc.List(shop, "", false, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "p4", items[0].ID)

	_, total, err = svc.List(context.Background(), "", false, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "platform requests see every tenant")

	_, err = svc.Get(other, "shop-mug", false)
	assert.Equal(t, "product_not_found", apiCode(t, err))
	_, err = svc.Get(shop, "desk-lamp", false)
	assert.Equal(t, "product_not_found", apiCode(t, err))
	_, err = svc.Update(other, "p4", ProductRequest{Slug: "shop-mug", Name: "Stolen"})
	assert.Equal(t, "product_not_found", apiCode(t, err))

	p, err := svc.Create(shop, ProductRequest{Slug: "shop-tote", Name: "Tote", Price: 40})
	require.NoError(t, err)
	assert.Equal(t, "shop-1", p.TenantID)
}

func newRouter(svc *Service, role types.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if role != "" {
		r.Use(func(c *gin.Context) {
			shared.SetIdentity(c, &shared.Identity{UserID: "u-1", Role: role})
			c.Next()
		})
	}
	RegisterRoutes(r.Group("/api"), svc)
	return r
}

func TestRoutes(t *testing.T) {
	svc := NewService(seeded())

	t.Run("public list hides inactive", func(t *testing.T) {
		r := newRouter(svc, "")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?all=true&limit=1", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Items      []types.Product `json:"items"`
			Pagination types.PageInfo  `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Items, 1)
		assert.Equal(t, 3, body.Pagination.Total)
		assert.Equal(t, 3, body.Pagination.Pages)
	})

	t.Run("admin list includes inactive", func(t *testing.T) {
		r := newRouter(svc, types.RoleAdmin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?all=true", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "old-lamp")
	})

	t.Run("create requires admin", func(t *testing.T) {
		body := `{"slug":"mug","name":"Mug","price":25}`
		for role, want := range map[types.Role]int{
			"":                 http.StatusUnauthorized,
			types.RoleCustomer: http.StatusForbidden,
			types.RoleAdmin:    http.StatusCreated,
		} {
			r := newRouter(svc, role)
			req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, want, w.Code, "role %q", role)
		}
	})

	t.Run("rejects invalid body", func(t *testing.T) {
		r := newRouter(svc, types.RoleAdmin)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(`{"slug":"x","price":-1}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
