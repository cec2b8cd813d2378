package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/vipogroup/vipo-api/internal/api/auth"
	"github.com/vipogroup/vipo-api/internal/api/backups"
	"github.com/vipogroup/vipo-api/internal/api/botconfig"
	"github.com/vipogroup/vipo-api/internal/api/commissions"
	"github.com/vipogroup/vipo-api/internal/api/orders"
	"github.com/vipogroup/vipo-api/internal/api/products"
	"github.com/vipogroup/vipo-api/internal/api/reconciliation"
	"github.com/vipogroup/vipo-api/internal/api/socialaudit"
	"github.com/vipogroup/vipo-api/internal/api/withdrawals"
	"github.com/vipogroup/vipo-api/internal/config"
	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/notify"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/worker"
)

// Services holds one instance of every feature service. The server and
// vipoctl build it the same way.
type Services struct {
	Auth           *auth.Service
	Products       *products.Service
	Orders         *orders.Service
	Commissions    *commissions.Service
	Withdrawals    *withdrawals.Service
	BotConfig      *botconfig.Service
	SocialAudit    *socialaudit.Service
	Backups        *backups.Service
	Reconciliation *reconciliation.Service
}

func NewServices(cfg *config.Config, db *loaders.PostgresClient, rdb *redis.Client, pool *worker.Pool,
	notifier *notify.Notifier, tokens *shared.TokenManager) *Services {
	return &Services{
		Auth: auth.NewService(db, tokens, notifier, auth.Options{
			ReferralBonus:     cfg.CommissionPerReferral,
			DiscountPercent:   cfg.DefaultDiscountPercent,
			CommissionPercent: cfg.DefaultCommissionPercent,
		}),
		Products: products.NewService(db),
		Orders: orders.NewService(db, notifier, orders.Options{
			DefaultCommissionPercent: cfg.DefaultCommissionPercent,
			CommissionHold:           time.Duration(cfg.CommissionHoldDays) * 24 * time.Hour,
		}),
		Commissions: commissions.NewService(db),
		Withdrawals: withdrawals.NewService(db, notifier, cfg.MinWithdrawalAmount),
		BotConfig:   botconfig.NewService(db, botconfig.NewCache(rdb, cfg.BotConfigCacheTTL)),
		SocialAudit: socialaudit.NewService(db,
			socialaudit.NewScanner(socialaudit.NewFetcher(cfg.SocialFetchTimeout)), pool, cfg.SiteURL),
		Backups: backups.NewService(db, notifier, backups.Options{
			Dir:          cfg.BackupDir,
			EmergencyDir: cfg.EmergencyBackupDir,
			Keep:         cfg.BackupKeep,
			PostCommand:  cfg.PostBackupCommand,
			Local:        cfg.IsLocal(),
		}),
		Reconciliation: reconciliation.NewService(db),
	}
}

// RegisterRoutes mounts every feature router under router.
func RegisterRoutes(router *gin.RouterGroup, s *Services, cfg *config.Config, limiter *shared.RateLimiter) {
	auth.RegisterRoutes(router, s.Auth, limiter, cfg.IsProduction())
	products.RegisterRoutes(router, s.Products)
	orders.RegisterRoutes(router, s.Orders, limiter)
	commissions.RegisterRoutes(router, s.Commissions, limiter, cfg.CronSecret)
	withdrawals.RegisterRoutes(router, s.Withdrawals, limiter)
	botconfig.RegisterRoutes(router, s.BotConfig, limiter)
	socialaudit.RegisterRoutes(router, s.SocialAudit, limiter)
	backups.RegisterRoutes(router, s.Backups, limiter)
	reconciliation.RegisterRoutes(router, s.Reconciliation, limiter)
}
