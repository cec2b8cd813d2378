package botconfig

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vipogroup/vipo-api/internal/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultConfig builds a fresh default document for scope.
func DefaultConfig(scope types.BotScope, now time.Time) (*types.BotConfig, error) {
	var cfg types.BotConfig
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default bot config: %w", err)
	}
	cfg.ID = uuid.NewString()
	cfg.OwnerType = scope.OwnerType
	if scope.OwnerType == types.OwnerBusiness {
		businessID := scope.BusinessID
		cfg.BusinessID = &businessID
	}
	for i := range cfg.Categories {
		if cfg.Categories[i].Questions == nil {
			cfg.Categories[i].Questions = []types.BotQuestion{}
		}
	}
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	return &cfg, nil
}
