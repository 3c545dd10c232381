package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	LogFile  string
	SeedDemo bool

	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string

	// Requests per minute per IP; 0 disables the limiter.
	RateLimit int
	// Login attempts per 10 minutes per IP; 0 disables the limiter.
	LoginRateLimit int

	Mail     Mail
	Commerce Commerce
}

// Mail holds outbound SMTP settings. An empty Host switches the app to the
// log-only sender.
type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds dialing and each SMTP command.
	Timeout time.Duration
}

// Commerce is the store-wide business configuration handed to the services.
type Commerce struct {
	ShippingPrimaryCity  string
	ShippingPrimaryCost  decimal.Decimal
	ShippingStandardCost decimal.Decimal
	ResetTokenTTL        time.Duration
	DefaultCountry       string
	OrderNumberPrefix    string
	FrontendURL          string
}

// DefaultCommerce mirrors the values Load falls back to.
func DefaultCommerce() Commerce {
	return Commerce{
		ShippingPrimaryCity:  "Dhaka",
		ShippingPrimaryCost:  decimal.NewFromInt(60),
		ShippingStandardCost: decimal.NewFromInt(120),
		ResetTokenTTL:        time.Hour,
		DefaultCountry:       "Bangladesh",
		OrderNumberPrefix:    "ORD",
		FrontendURL:          "http://localhost:3000",
	}
}

func Load() Config {
	// .env is optional
	_ = godotenv.Load()

	def := DefaultCommerce()
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DBDSN:       getEnv("DB_DSN", "bikeshop.db"), // sqlite file in project root
		MediaDir:    getEnv("MEDIA_DIR", "./web/media"),
		LogFile:     getEnv("LOG_FILE", "./bikeshop.log"),
		SeedDemo:    getBool("SEED_DEMO", true),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      getDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		RateLimit:      getInt("RATE_LIMIT", 120),
		LoginRateLimit: getInt("LOGIN_RATE_LIMIT", 5),
		Mail: Mail{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "BikeShop <no-reply@bikeshop.local>"),
			Timeout:  getDuration("SMTP_TIMEOUT", 10*time.Second),
		},
		Commerce: Commerce{
			ShippingPrimaryCity:  getEnv("SHIPPING_PRIMARY_CITY", def.ShippingPrimaryCity),
			ShippingPrimaryCost:  getDecimal("SHIPPING_PRIMARY_COST", def.ShippingPrimaryCost),
			ShippingStandardCost: getDecimal("SHIPPING_STANDARD_COST", def.ShippingStandardCost),
			ResetTokenTTL:        getDuration("RESET_TOKEN_TTL", def.ResetTokenTTL),
			DefaultCountry:       getEnv("DEFAULT_COUNTRY", def.DefaultCountry),
			OrderNumberPrefix:    getEnv("ORDER_NUMBER_PREFIX", def.OrderNumberPrefix),
			FrontendURL:          strings.TrimRight(getEnv("FRONTEND_URL", def.FrontendURL), "/"),
		},
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = fallbackSecret(cfg.SeedDemo)
	}

	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s SEED_DEMO=%t SMTP_HOST=%q JWT_SECRET=%s",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.SeedDemo, cfg.Mail.Host, mask(cfg.JWTSecret))
	log.Printf("[config] shipping %s=%s other=%s reset_ttl=%s",
		cfg.Commerce.ShippingPrimaryCity, cfg.Commerce.ShippingPrimaryCost, cfg.Commerce.ShippingStandardCost, cfg.Commerce.ResetTokenTTL)
	return cfg
}

// DemoJWTSecret signs tokens on demo installs that leave JWT_SECRET unset.
const DemoJWTSecret = "change-me-in-production"

// fallbackSecret keeps the fixed demo secret while demo data is seeded and
// otherwise generates a per-process one, so tokens die with the process.
func fallbackSecret(seedDemo bool) string {
	if seedDemo {
		log.Printf("[config] WARNING JWT_SECRET not set, using the demo secret; set JWT_SECRET before going live")
		return DemoJWTSecret
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("[config] cannot generate JWT secret: %v", err)
	}
	log.Printf("[config] WARNING JWT_SECRET not set, generated a random secret; tokens will not survive a restart")
	return hex.EncodeToString(b)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(os.Getenv(key))
	if err != nil || d.IsNegative() {
		return defaultValue
	}
	return d
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****"
}
