package botconfig

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

type Store interface {
	GetBotConfig(ctx context.Context, scope types.BotScope) (*types.BotConfig, error)
	InsertBotConfig(ctx context.Context, cfg *types.BotConfig) (*types.BotConfig, error)
	SaveBotConfig(ctx context.Context, cfg *types.BotConfig) error
}

type Service struct {
	store Store
	cache Cache
	now   func() time.Time
}

func NewService(store Store, cache Cache) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	return &Service{store: store, cache: cache, now: time.Now}
}

// ResolveScope validates the owner of a config document. An empty owner
// type means the admin config.
func ResolveScope(q ScopeQuery) (types.BotScope, error) {
	owner := types.OwnerType(strings.ToLower(strings.TrimSpace(q.OwnerType)))
	switch owner {
	case "", types.OwnerAdmin:
		return types.BotScope{OwnerType: types.OwnerAdmin}, nil
	case types.OwnerBusiness:
		id := strings.TrimSpace(q.BusinessID)
		if id == "" {
			return types.BotScope{}, utils.BadRequest("missing_business_id", "businessId is required for business configs")
		}
		return types.BotScope{OwnerType: types.OwnerBusiness, BusinessID: id}, nil
	}
	return types.BotScope{}, utils.BadRequest("invalid_owner_type", "ownerType must be admin or business")
}

// Authorize checks that caller may edit scope. Only admins edit the admin
// config; business configs are open to admins and agents.
func Authorize(caller *shared.Identity, scope types.BotScope) error {
	if caller == nil {
		return utils.Unauthorized("Unauthorized")
	}
	if caller.IsAdmin() {
		return nil
	}
	if scope.OwnerType == types.OwnerBusiness && caller.Role == types.RoleAgent {
		return nil
	}
	return utils.Forbidden("Forbidden")
}

// Get returns the stored document, creating it from defaults on first use.
func (s *Service) Get(ctx context.Context, scope types.BotScope) (*types.BotConfig, error) {
	if cfg, ok := s.cache.Get(ctx, scope); ok {
		return cfg, nil
	}
	cfg, err := s.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, scope, cfg)
	return cfg, nil
}

func (s *Service) load(ctx context.Context, scope types.BotScope) (*types.BotConfig, error) {
	cfg, err := s.store.GetBotConfig(ctx, scope)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, loaders.ErrNotFound) {
		return nil, err
	}
	def, err := DefaultConfig(scope, s.now().UTC())
	if err != nil {
		return nil, err
	}
	cfg, err = s.store.InsertBotConfig(ctx, def)
	if err != nil {
		return nil, err
	}
	utils.Zlog.Info("Created default bot config", zap.String("scope", scope.Key()))
	return cfg, nil
}

// Public returns the config with inactive categories and questions removed
// and everything sorted by order.
func (s *Service) Public(ctx context.Context, scope types.BotScope) (*types.BotConfig, error) {
	cfg, err := s.Get(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := *cfg
	out.Categories = make([]types.BotCategory, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		if !c.IsActive {
			continue
		}
		questions := make([]types.BotQuestion, 0, len(c.Questions))
		for _, q := range c.Questions {
			if q.IsActive {
				questions = append(questions, q)
			}
		}
		sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
		c.Questions = questions
		out.Categories = append(out.Categories, c)
	}
	sort.SliceStable(out.Categories, func(i, j int) bool { return out.Categories[i].Order < out.Categories[j].Order })
	return &out, nil
}

func validateSettings(st *types.BotSettings) error {
	switch st.Position {
	case "":
		st.Position = "left"
	case "left", "right":
	default:
		return utils.BadRequest("invalid_settings", "position must be left or right")
	}
	for _, color := range []string{st.PrimaryColor, st.SecondaryColor} {
		if color != "" && !utils.IsHexColor(color) {
			return utils.BadRequest("invalid_settings", fmt.Sprintf("%q is not a hex color", color))
		}
	}
	return nil
}

func validateCategories(categories []types.BotCategory) error {
	seen := map[string]bool{}
	for _, c := range categories {
		if c.ID == "" || c.Name == "" {
			return utils.BadRequest("invalid_category", "every category needs an id and a name")
		}
		if seen[c.ID] {
			return utils.BadRequest("invalid_category", fmt.Sprintf("duplicate category id %q", c.ID))
		}
		seen[c.ID] = true
		for _, q := range c.Questions {
			if q.ID == "" || q.Question == "" || q.Answer == "" {
				return utils.BadRequest("invalid_question", fmt.Sprintf("category %q has an incomplete question", c.ID))
			}
		}
	}
	return nil
}

// Update replaces each section present in req and upserts the document.
func (s *Service) Update(ctx context.Context, scope types.BotScope, req UpdateRequest) (*types.BotConfig, error) {
	cfg, err := s.load(ctx, scope)
	if err != nil {
		return nil, err
	}

	if req.Texts != nil {
		sanitizeTexts(req.Texts)
		cfg.Texts = *req.Texts
	}
	if req.Buttons != nil {
		sanitizeButtons(req.Buttons)
		cfg.Buttons = *req.Buttons
	}
	if req.Placeholders != nil {
		sanitizePlaceholders(req.Placeholders)
		cfg.Placeholders = *req.Placeholders
	}
	if req.Categories != nil {
		categories := *req.Categories
		if categories == nil {
			categories = []types.BotCategory{}
		}
		sanitizeCategories(categories)
		if err := validateCategories(categories); err != nil {
			return nil, err
		}
		cfg.Categories = categories
	}
	if req.Settings != nil {
		if err := validateSettings(req.Settings); err != nil {
			return nil, err
		}
		cfg.Settings = *req.Settings
	}
	return s.save(ctx, scope, cfg, "update")
}

// nextID returns prefix_<unix millis>, bumped until it is unused.
func nextID(prefix string, now time.Time, taken func(string) bool) string {
	ms := now.UnixMilli()
	for {
		id := fmt.Sprintf("%s_%d", prefix, ms)
		if !taken(id) {
			return id
		}
		ms++
	}
}

func (s *Service) Add(ctx context.Context, scope types.BotScope, req AddRequest) (*types.BotConfig, error) {
	cfg, err := s.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	now := s.now()

	switch req.Action {
	case ActionAddCategory:
		name := clean(req.Data.Name)
		if name == "" {
			name = "קטגוריה חדשה"
		}
		id := nextID("cat", now, func(id string) bool { return cfg.Category(id) != nil })
		cfg.Categories = append(cfg.Categories, types.BotCategory{
			ID:        id,
			Name:      name,
			IsContact: req.Data.IsContact,
			Order:     len(cfg.Categories) + 1,
			IsActive:  true,
			Questions: []types.BotQuestion{},
		})
	case ActionAddQuestion:
		cat := cfg.Category(req.CategoryID)
		if cat == nil {
			return nil, utils.NotFound("category_not_found", "category not found")
		}
		question, answer := clean(req.Data.Question), clean(req.Data.Answer)
		if question == "" {
			question = "שאלה חדשה"
		}
		if answer == "" {
			answer = "תשובה חדשה"
		}
		id := nextID("q", now, func(id string) bool {
			for _, q := range cat.Questions {
				if q.ID == id {
					return true
				}
			}
			return false
		})
		cat.Questions = append(cat.Questions, types.BotQuestion{
			ID:       id,
			Question: question,
			Answer:   answer,
			Order:    len(cat.Questions) + 1,
			IsActive: true,
		})
	default:
		return nil, utils.BadRequest("invalid_action", "unknown action")
	}
	return s.save(ctx, scope, cfg, string(req.Action))
}

func (s *Service) Delete(ctx context.Context, scope types.BotScope, req DeleteQuery) (*types.BotConfig, error) {
	cfg, err := s.store.GetBotConfig(ctx, scope)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.NotFound("config_not_found", "Config not found")
	}
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionDeleteCategory:
		kept := cfg.Categories[:0]
		for _, c := range cfg.Categories {
			if c.ID != req.CategoryID {
				kept = append(kept, c)
			}
		}
		cfg.Categories = kept
	case ActionDeleteQuestion:
		if req.QuestionID == "" {
			return nil, utils.BadRequest("missing_question_id", "questionId is required")
		}
		if cat := cfg.Category(req.CategoryID); cat != nil {
			kept := cat.Questions[:0]
			for _, q := range cat.Questions {
				if q.ID != req.QuestionID {
					kept = append(kept, q)
				}
			}
			cat.Questions = kept
		}
	default:
		return nil, utils.BadRequest("invalid_action", "unknown action")
	}
	return s.save(ctx, scope, cfg, string(req.Action))
}

// Import merges FAQ categories parsed from markdown into the config.
// Categories whose name already exists receive the new questions.
func (s *Service) Import(ctx context.Context, scope types.BotScope, req ImportRequest) (*types.BotConfig, error) {
	parsed, err := ParseFAQMarkdown(ctx, req.Markdown)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, utils.BadRequest("empty_import", "no \"#\" headers found in markdown")
	}

	cfg, err := s.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	if req.Replace {
		cfg.Categories = []types.BotCategory{}
	}
	sanitizeCategories(parsed)

	stamp := s.now().UnixMilli()
	for i, incoming := range parsed {
		var target *types.BotCategory
		for j := range cfg.Categories {
			if strings.EqualFold(cfg.Categories[j].Name, incoming.Name) {
				target = &cfg.Categories[j]
				break
			}
		}
		if target == nil {
			cfg.Categories = append(cfg.Categories, types.BotCategory{
				ID:        fmt.Sprintf("cat_%d_%d", stamp, i),
				Name:      incoming.Name,
				Order:     len(cfg.Categories) + 1,
				IsActive:  true,
				Questions: []types.BotQuestion{},
			})
			target = &cfg.Categories[len(cfg.Categories)-1]
		}
		for k, q := range incoming.Questions {
			q.ID = fmt.Sprintf("q_%d_%d_%d", stamp, i, k)
			q.Order = len(target.Questions) + 1
			target.Questions = append(target.Questions, q)
		}
	}
	return s.save(ctx, scope, cfg, "import")
}

func (s *Service) save(ctx context.Context, scope types.BotScope, cfg *types.BotConfig, action string) (*types.BotConfig, error) {
	cfg.OwnerType = scope.OwnerType
	if scope.OwnerType == types.OwnerBusiness {
		businessID := scope.BusinessID
		cfg.BusinessID = &businessID
	} else {
		cfg.BusinessID = nil
	}
	cfg.UpdatedAt = s.now().UTC()
	if err := s.store.SaveBotConfig(ctx, cfg); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, scope)
	utils.Zlog.Info("Bot config saved",
		zap.String("scope", scope.Key()),
		zap.String("action", action),
		zap.Int("categories", len(cfg.Categories)))
	return cfg, nil
}
