package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Sequence allocation strategies.
const (
	SequenceStrategyCounter = "counter"
	SequenceStrategyMax     = "max"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Enrollment     EnrollmentConfig
	ClassLinkRetry ClassLinkRetryConfig
	Signature      SignatureConfig
	AddressLookup  AddressLookupConfig
	Identity       IdentityConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EnrollmentConfig tunes the admission pipeline.
type EnrollmentConfig struct {
	SequenceStrategy string
	// StudentYearColumn pins the students year column and skips detection when set.
	StudentYearColumn          string
	StudentYearColumnPreferred string
	StudentYearColumnLegacy    string
	WizardSessionTTL           time.Duration
	WizardResumeTTL            time.Duration
}

// ClassLinkRetryConfig controls the background class-link reconciliation queue.
type ClassLinkRetryConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// SignatureConfig controls signature rendering and artifact storage.
type SignatureConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CanvasWidth     int
	CanvasHeight    int
	StrokeWidth     float64
	MaxBytes        int64
}

// AddressLookupConfig points at a ViaCEP compatible postal-code service.
type AddressLookupConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// IdentityConfig describes the external identity provider hand-off.
type IdentityConfig struct {
	SignInURL     string
	ReturnBaseURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	strategy := strings.ToLower(strings.TrimSpace(v.GetString("SEQUENCE_STRATEGY")))
	if strategy != SequenceStrategyMax {
		strategy = SequenceStrategyCounter
	}
	cfg.Enrollment = EnrollmentConfig{
		SequenceStrategy:           strategy,
		StudentYearColumn:          strings.TrimSpace(v.GetString("STUDENT_YEAR_COLUMN")),
		StudentYearColumnPreferred: v.GetString("STUDENT_YEAR_COLUMN_PREFERRED"),
		StudentYearColumnLegacy:    v.GetString("STUDENT_YEAR_COLUMN_LEGACY"),
		WizardSessionTTL:           parseDuration(v.GetString("WIZARD_SESSION_TTL"), 24*time.Hour),
		WizardResumeTTL:            parseDuration(v.GetString("WIZARD_RESUME_TTL"), 30*time.Minute),
	}

	cfg.ClassLinkRetry = ClassLinkRetryConfig{
		Enabled:    v.GetBool("ENABLE_CLASS_LINK_RETRY"),
		Workers:    v.GetInt("CLASS_LINK_RETRY_WORKERS"),
		MaxRetries: v.GetInt("CLASS_LINK_RETRY_MAX"),
		RetryDelay: parseDuration(v.GetString("CLASS_LINK_RETRY_DELAY"), 30*time.Second),
	}

	maxSignature := v.GetInt64("SIGNATURE_MAX_BYTES")
	if maxSignature <= 0 {
		maxSignature = 512 * 1024
	}
	cfg.Signature = SignatureConfig{
		StorageDir:      v.GetString("SIGNATURE_STORAGE_DIR"),
		SignedURLSecret: v.GetString("SIGNATURE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("SIGNATURE_SIGNED_URL_TTL"), 15*time.Minute),
		CanvasWidth:     v.GetInt("SIGNATURE_CANVAS_WIDTH"),
		CanvasHeight:    v.GetInt("SIGNATURE_CANVAS_HEIGHT"),
		StrokeWidth:     v.GetFloat64("SIGNATURE_STROKE_WIDTH"),
		MaxBytes:        maxSignature,
	}

	cfg.AddressLookup = AddressLookupConfig{
		BaseURL:  v.GetString("ADDRESS_LOOKUP_URL"),
		Timeout:  parseDuration(v.GetString("ADDRESS_LOOKUP_TIMEOUT"), 5*time.Second),
		CacheTTL: parseDuration(v.GetString("ADDRESS_LOOKUP_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Identity = IdentityConfig{
		SignInURL:     v.GetString("IDENTITY_SIGN_IN_URL"),
		ReturnBaseURL: v.GetString("IDENTITY_RETURN_BASE_URL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_admission")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SEQUENCE_STRATEGY", SequenceStrategyCounter)
	v.SetDefault("STUDENT_YEAR_COLUMN", "")
	v.SetDefault("STUDENT_YEAR_COLUMN_PREFERRED", "school_year")
	v.SetDefault("STUDENT_YEAR_COLUMN_LEGACY", "year")
	v.SetDefault("WIZARD_SESSION_TTL", "24h")
	v.SetDefault("WIZARD_RESUME_TTL", "30m")

	v.SetDefault("ENABLE_CLASS_LINK_RETRY", true)
	v.SetDefault("CLASS_LINK_RETRY_WORKERS", 1)
	v.SetDefault("CLASS_LINK_RETRY_MAX", 5)
	v.SetDefault("CLASS_LINK_RETRY_DELAY", "30s")

	v.SetDefault("SIGNATURE_STORAGE_DIR", "./signatures")
	v.SetDefault("SIGNATURE_SIGNED_URL_SECRET", "dev_signature_secret")
	v.SetDefault("SIGNATURE_SIGNED_URL_TTL", "15m")
	v.SetDefault("SIGNATURE_CANVAS_WIDTH", 600)
	v.SetDefault("SIGNATURE_CANVAS_HEIGHT", 200)
	v.SetDefault("SIGNATURE_STROKE_WIDTH", 2.5)
	v.SetDefault("SIGNATURE_MAX_BYTES", 512*1024)

	v.SetDefault("ADDRESS_LOOKUP_URL", "https://viacep.com.br/ws")
	v.SetDefault("ADDRESS_LOOKUP_TIMEOUT", "5s")
	v.SetDefault("ADDRESS_LOOKUP_CACHE_TTL", "24h")

	v.SetDefault("IDENTITY_SIGN_IN_URL", "http://localhost:9000/sign-in")
	v.SetDefault("IDENTITY_RETURN_BASE_URL", "http://localhost:3000/enrollment")
}

// isMissingFile reports a missing .env; viper returns a path error rather than
// ConfigFileNotFoundError when SetConfigFile is used.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
