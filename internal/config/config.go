package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API and supporting services.
type Config struct {
	ListenAddr     string
	MySQLDSN       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	GeminiAPIKey   string
	ImageModel     string
	VideoModel     string
	TextModel      string
	RequestTimeout time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	SignupCredits     int
	FreeDailyCredits  int
	GenerationCost    int
	VideoCost         int
	HistoryCap        int
	TodoCompletionXP  int
	ProMonthlyCredits int
	ProPriceCents     int
	BillingCurrency   string
	ReminderInterval  time.Duration

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),
		ImageModel:     getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		VideoModel:     getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-generate-001"),
		TextModel:      getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		RequestTimeout: time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 120)),

		TokenTTL: time.Hour * time.Duration(getInt("TOKEN_TTL_HOURS", 72)),

		SignupCredits:     getInt("SIGNUP_CREDITS", 5),
		FreeDailyCredits:  getInt("FREE_DAILY_CREDITS", 5),
		GenerationCost:    getInt("GENERATION_COST", 1),
		VideoCost:         getInt("VIDEO_COST", 5),
		HistoryCap:        getInt("HISTORY_CAP", 50),
		TodoCompletionXP:  getInt("TODO_COMPLETION_XP", 10),
		ProMonthlyCredits: getInt("PRO_MONTHLY_CREDITS", 100),
		ProPriceCents:     getInt("PRO_PRICE_CENTS", 2900),
		BillingCurrency:   getEnv("BILLING_CURRENCY", "USD"),
		ReminderInterval:  time.Second * time.Duration(getInt("REMINDER_INTERVAL_SECONDS", 30)),

		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Region:        os.Getenv("S3_REGION"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:  getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:        getEnv("S3_PREFIX", "creations"),
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	var missing []string
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.S3Region == "" {
		missing = append(missing, "S3_REGION")
	}
	if cfg.S3AccessKey == "" {
		missing = append(missing, "S3_ACCESS_KEY")
	}
	if cfg.S3SecretKey == "" {
		missing = append(missing, "S3_SECRET_KEY")
	}
	if cfg.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if cfg.S3PublicBaseURL == "" {
		missing = append(missing, "S3_PUBLIC_BASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// Running without an env file is fine when everything comes from the
	// process environment.
	return nil
}
