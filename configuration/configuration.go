package configuration

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
)

type OTPConfig struct {
	TTL          time.Duration
	Window       time.Duration
	MaxPerWindow int
	Cooldown     time.Duration
	MaxAttempts  int
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

type Config struct {
	Port string
	Env  string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	OTP    OTPConfig
	SMTP   SMTPConfig
	Twilio TwilioConfig

	AblyAPIKey string

	AIServiceURL     string
	AIServiceTimeout time.Duration

	InternalAPIKey string

	ProxyRatePerSec float64
	ProxyBurst      int
}

// Load reads .env when present and builds the config from the environment.
// Values that fail to parse fall back to their defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("APP_ENV", "development"),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:    os.Getenv("DB"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:  getBool("COOKIE_SECURE", false),

		OTP: OTPConfig{
			TTL:          getDuration("OTP_TTL", 10*time.Minute),
			Window:       getDuration("OTP_WINDOW", 10*time.Minute),
			MaxPerWindow: getInt("OTP_MAX_PER_WINDOW", 5),
			Cooldown:     getDuration("OTP_COOLDOWN", 45*time.Second),
			MaxAttempts:  getInt("OTP_MAX_ATTEMPTS", 5),
		},
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: getInt("SMTP_PORT", 587),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTHTOKEN"),
			From:       os.Getenv("TWILIO_PHONENUMBER"),
		},

		AblyAPIKey: os.Getenv("ABLY_API_KEY"),

		AIServiceURL:     strings.TrimRight(os.Getenv("AI_SERVICE_URL"), "/"),
		AIServiceTimeout: getDuration("AI_SERVICE_TIMEOUT", 30*time.Second),

		InternalAPIKey: os.Getenv("INTERNAL_API_KEY"),

		ProxyRatePerSec: getFloat("PROXY_RATE_PER_SEC", 1),
		ProxyBurst:      getInt("PROXY_BURST", 5),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports settings the process cannot start without. Optional integrations
// (SMTP, Twilio, Ably, AI service) are checked lazily by the components that use them.
func (c Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if c.IsProduction() && len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes in production"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB is required"))
	}
	if c.OTP.MaxAttempts <= 0 || c.OTP.MaxPerWindow <= 0 {
		errs = append(errs, errors.New("OTP limits must be positive"))
	}
	return errors.Join(errs...)
}

// ConfigDB opens the database and migrates every model.
func ConfigDB(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		dialector = postgres.Open(cfg.DBDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == "sqlite" {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
