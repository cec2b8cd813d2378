package loaders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/vipogroup/vipo-api/internal/types"
)

func scanBotConfig(row pgx.Row) (*types.BotConfig, error) {
	var (
		cfg        types.BotConfig
		ownerType  string
		businessID string
		doc        []byte
	)
	var id string
	if err := row.Scan(&id, &ownerType, &businessID, &doc, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	createdAt, updatedAt := cfg.CreatedAt, cfg.UpdatedAt
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode bot config: %w", err)
	}
	cfg.ID = id
	cfg.OwnerType = types.OwnerType(ownerType)
	cfg.BusinessID = nullable(businessID)
	cfg.CreatedAt, cfg.UpdatedAt = createdAt, updatedAt
	return &cfg, nil
}

func (c *PostgresClient) GetBotConfig(ctx context.Context, scope types.BotScope) (*types.BotConfig, error) {
	return scanBotConfig(c.pool.QueryRow(ctx, `SELECT id, owner_type, business_id, document, created_at, updated_at
		FROM bot_configs WHERE owner_type = $1 AND business_id = $2`, scope.OwnerType, scope.BusinessID))
}

// InsertBotConfig stores cfg unless the scope already has a document, and
// returns whichever document is stored afterwards.
func (c *PostgresClient) InsertBotConfig(ctx context.Context, cfg *types.BotConfig) (*types.BotConfig, error) {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	_, err = c.pool.Exec(ctx, `INSERT INTO bot_configs (id, owner_type, business_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5) ON CONFLICT (owner_type, business_id) DO NOTHING`,
		cfg.ID, cfg.OwnerType, deref(cfg.BusinessID), doc, cfg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bot config: %w", err)
	}
	return c.GetBotConfig(ctx, types.BotScope{OwnerType: cfg.OwnerType, BusinessID: deref(cfg.BusinessID)})
}

// SaveBotConfig upserts the whole document for its scope.
func (c *PostgresClient) SaveBotConfig(ctx context.Context, cfg *types.BotConfig) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx, `INSERT INTO bot_configs (id, owner_type, business_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_type, business_id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		cfg.ID, cfg.OwnerType, deref(cfg.BusinessID), doc, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save bot config: %w", err)
	}
	return nil
}
