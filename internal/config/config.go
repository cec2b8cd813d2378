package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	DBMaxConns     int
	BatchSize      int
	RedisURL       string
	LogLevel       string
	Debug          bool
	ServiceName    string
	Environment    string
	Hostname       string
	Port           string
	WorkerCount    int
	QueueCapacity  int
	JwtSecret      string
	JwtTTL         time.Duration
	AllowedOrigins []string
	TrustedProxies []string
	SiteURL        string

	// DefaultTenantID scopes requests that carry no X-Tenant-ID header.
	DefaultTenantID string

	CommissionHoldDays       int
	DefaultCommissionPercent float64
	DefaultDiscountPercent   float64
	CommissionPerReferral    float64
	MinWithdrawalAmount      float64
	CommissionReleaseEvery   time.Duration

	BackupDir          string
	EmergencyBackupDir string
	BackupKeep         int
	BackupInterval     time.Duration
	PostBackupCommand  string

	BotConfigCacheTTL  time.Duration
	SocialFetchTimeout time.Duration

	CronSecret       string
	AutomationKey    string
	DisableRateLimit bool

	TelegramBotToken    string
	TelegramAdminChatID int64
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	allowedOrigins := []string{"*"}
	if ao := os.Getenv("ALLOWED_ORIGINS"); ao != "" {
		allowedOrigins = splitList(ao)
	}

	hostname, _ := os.Hostname()

	return &Config{
		DatabaseURL:    databaseURL,
		DBMaxConns:     getInt("DB_MAX_CONNS", 10),
		BatchSize:      getInt("BATCH_SIZE", 100),
		RedisURL:       os.Getenv("REDIS_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Debug:          getBool("DEBUG", false),
		ServiceName:    getEnv("SERVICE_NAME", "vipo-api"),
		Environment:    getEnv("ENVIRONMENT", "production"),
		Hostname:       getEnv("HOSTNAME", hostname),
		Port:           getEnv("PORT", "8080"),
		WorkerCount:    getInt("WORKER_COUNT", 4),
		QueueCapacity:  getInt("QUEUE_CAPACITY", 100),
		JwtSecret:      jwtSecret,
		JwtTTL:         getDuration("JWT_TTL", 7*24*time.Hour),
		AllowedOrigins: allowedOrigins,
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),

		DefaultTenantID: strings.TrimSpace(os.Getenv("DEFAULT_TENANT_ID")),

		CommissionHoldDays:       getInt("COMMISSION_HOLD_DAYS", 14),
		DefaultCommissionPercent: getFloat("DEFAULT_COMMISSION_PERCENT", 12),
		DefaultDiscountPercent:   getFloat("DEFAULT_DISCOUNT_PERCENT", 10),
		CommissionPerReferral:    getFloat("COMMISSION_PER_REFERRAL", 0),
		MinWithdrawalAmount:      getFloat("MIN_WITHDRAWAL_AMOUNT", 100),
		CommissionReleaseEvery:   getDuration("COMMISSION_RELEASE_INTERVAL", time.Hour),

		BackupDir:          getEnv("BACKUP_DIR", "backups/database"),
		EmergencyBackupDir: getEnv("EMERGENCY_BACKUP_DIR", "backups/emergency"),
		BackupKeep:         getInt("BACKUP_KEEP", 10),
		BackupInterval:     getDuration("BACKUP_INTERVAL", 0),
		PostBackupCommand:  os.Getenv("POST_BACKUP_COMMAND"),

		BotConfigCacheTTL:  getDuration("BOT_CONFIG_CACHE_TTL", 5*time.Minute),
		SocialFetchTimeout: getDuration("SOCIAL_FETCH_TIMEOUT", 15*time.Second),

		CronSecret:       os.Getenv("CRON_SECRET"),
		AutomationKey:    os.Getenv("AUTOMATION_KEY"),
		DisableRateLimit: getBool("DISABLE_RATE_LIMIT", false),

		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAdminChatID: int64(getInt("TELEGRAM_ADMIN_CHAT_ID", 0)),
	}, nil
}

// IsLocal is true only when ENVIRONMENT names a development setup.
func (c *Config) IsLocal() bool {
	switch strings.ToLower(c.Environment) {
	case "development", "local", "dev", "test":
		return true
	}
	return false
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// splitList parses a comma separated value, dropping empty items.
func splitList(v string) []string {
	out := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDuration accepts Go durations ("90m") or plain seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
