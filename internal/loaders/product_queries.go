package loaders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"

	"github.com/vipogroup/vipo-api/internal/types"
)

const productColumns = `id, slug, COALESCE(legacy_id, ''), COALESCE(sku, ''), name, description, price,
	images, is_active, created_at, updated_at, COALESCE(tenant_id, '')`

func scanProduct(row pgx.Row) (*types.Product, error) {
	var (
		p      types.Product
		images []byte
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.LegacyID, &p.SKU, &p.Name, &p.Description, &p.Price,
		&images, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.TenantID); err != nil {
		return nil, notFound(err)
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("failed to decode product images: %w", err)
		}
	}
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]types.Product, error) {
	defer rows.Close()
	var products []types.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ListProducts pages the catalogue. An empty tenantID lists every tenant.
func (c *PostgresClient) ListProducts(ctx context.Context, tenantID, query string, includeInactive bool, limit, offset int) ([]types.Product, int, error) {
	where := `($1 OR is_active) AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR sku ILIKE '%' || $2 || '%')
		AND ($3 = '' OR tenant_id = $3)`

	var total int
	if err := c.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+where, includeInactive, query, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	rows, err := c.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE `+where+`
		ORDER BY created_at DESC LIMIT $4 OFFSET $5`, includeInactive, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	products, err := scanProducts(rows)
	return products, total, err
}

// GetProduct resolves an id, slug or legacy id.
func (c *PostgresClient) GetProduct(ctx context.Context, ref string) (*types.Product, error) {
	return scanProduct(c.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products
		WHERE id = $1 OR lower(slug) = lower($1) OR legacy_id = $1 LIMIT 1`, ref))
}

// FindProductsByRefs returns every product matching one of refs by id, slug or legacy id.
func (c *PostgresClient) FindProductsByRefs(ctx context.Context, refs []string) ([]types.Product, error) {
	lowered := make([]string, len(refs))
	for i, r := range refs {
		lowered[i] = strings.ToLower(r)
	}
	rows, err := c.pool.Query(ctx, `SELECT `+productColumns+` FROM products
		WHERE id = ANY($1) OR lower(slug) = ANY($2) OR legacy_id = ANY($1)`, refs, lowered)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return scanProducts(rows)
}

// UpsertProducts writes products keyed by slug in batches of the client's batch size.
func (c *PostgresClient) UpsertProducts(ctx context.Context, products []types.Product) (int, error) {
	written := 0
	for start := 0; start < len(products); start += c.batchSize {
		end := start + c.batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := &pgx.Batch{}
		for _, p := range products[start:end] {
			images, err := json.Marshal(p.Images)
			if err != nil {
				return written, fmt.Errorf("failed to encode images for %s: %w", p.Slug, err)
			}
			batch.Queue(`INSERT INTO products (id, slug, legacy_id, sku, name, description, price, images,
					is_active, created_at, updated_at, tenant_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10, $11)
				ON CONFLICT (slug) DO UPDATE SET legacy_id = EXCLUDED.legacy_id, sku = EXCLUDED.sku,
					name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
					images = EXCLUDED.images, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at,
					tenant_id = EXCLUDED.tenant_id`,
				p.ID, p.Slug, nullable(p.LegacyID), nullable(p.SKU), p.Name, p.Description, p.Price, images,
				p.IsActive, p.UpdatedAt, nullable(p.TenantID))
		}
		results := c.pool.SendBatch(ctx, batch)
		for range products[start:end] {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return written, fmt.Errorf("failed to upsert product batch: %w", err)
			}
			written++
		}
		if err := results.Close(); err != nil {
			return written, err
		}
	}
	return written, nil
}

func (c *PostgresClient) UpdateProduct(ctx context.Context, p *types.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	tag, err := c.pool.Exec(ctx, `UPDATE products SET slug = $2, legacy_id = $3, sku = $4, name = $5,
			description = $6, price = $7, images = $8, is_active = $9, updated_at = $10
		WHERE id = $1`,
		p.ID, p.Slug, nullable(p.LegacyID), nullable(p.SKU), p.Name, p.Description, p.Price, images,
		p.IsActive, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
