package loaders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (c *PostgresClient) InsertAuditLog(ctx context.Context, action, category, actorID string, details map[string]interface{}) error {
	doc, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx, `INSERT INTO audit_logs (id, action, category, actor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), action, category, nullable(actorID), doc, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
