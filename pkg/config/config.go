package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Workload      WorkloadConfig
	Scoring       ScoringConfig
	Scheduler     SchedulerConfig
	CriticalUnits CriticalUnitConfig
	Capacity      CapacityConfig
	Compliance    ComplianceConfig
	Notifications NotificationConfig
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
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// WorkloadConfig holds the staffing limits applied during validation. The
// thresholds classify derived workload snapshots; they are policy values, not
// a fixed contract.
type WorkloadConfig struct {
	MaxShiftsPerMonth  int
	MaxShiftsPerWeek   int
	MaxConsecutiveDays int
	WarningThreshold   int
	CriticalThreshold  int
	OverworkThreshold  int
}

// ScoringConfig tunes the penalty weights applied to validation scores.
type ScoringConfig struct {
	ViolationWeight int
	WarningWeight   int
}

// SchedulerConfig governs the auto-scheduler proposal cache.
type SchedulerConfig struct {
	ProposalTTL time.Duration
}

// CriticalUnitConfig lists location keywords that require unit-head approval
// for shift swaps.
type CriticalUnitConfig struct {
	Keywords []string
}

// CapacityConfig caps staffing per location and shift type. Zero means
// unconstrained.
type CapacityConfig struct {
	DefaultPerShift int
}

// ComplianceConfig tunes the compliance report cache.
type ComplianceConfig struct {
	CacheTTL time.Duration
}

// NotificationConfig tunes the dispatch worker queue.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
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
		if !errors.As(err, &notFound) {
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Workload = WorkloadConfig{
		MaxShiftsPerMonth:  v.GetInt("WORKLOAD_MAX_SHIFTS_PER_MONTH"),
		MaxShiftsPerWeek:   v.GetInt("WORKLOAD_MAX_SHIFTS_PER_WEEK"),
		MaxConsecutiveDays: v.GetInt("WORKLOAD_MAX_CONSECUTIVE_DAYS"),
		WarningThreshold:   v.GetInt("WORKLOAD_WARNING_THRESHOLD"),
		CriticalThreshold:  v.GetInt("WORKLOAD_CRITICAL_THRESHOLD"),
		OverworkThreshold:  v.GetInt("WORKLOAD_OVERWORK_THRESHOLD"),
	}

	cfg.Scoring = ScoringConfig{
		ViolationWeight: v.GetInt("SCORING_VIOLATION_WEIGHT"),
		WarningWeight:   v.GetInt("SCORING_WARNING_WEIGHT"),
	}

	cfg.Scheduler = SchedulerConfig{
		ProposalTTL: parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
	}

	cfg.CriticalUnits = CriticalUnitConfig{
		Keywords: splitAndTrim(v.GetString("CRITICAL_UNIT_KEYWORDS")),
	}

	cfg.Capacity = CapacityConfig{
		DefaultPerShift: v.GetInt("CAPACITY_DEFAULT_PER_SHIFT"),
	}

	cfg.Compliance = ComplianceConfig{
		CacheTTL: parseDuration(v.GetString("COMPLIANCE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Notifications = NotificationConfig{
		Workers:    v.GetInt("NOTIFICATION_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATION_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFICATION_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATION_RETRY_DELAY"), time.Second),
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
	v.SetDefault("DB_NAME", "shift_ops")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WORKLOAD_MAX_SHIFTS_PER_MONTH", 18)
	v.SetDefault("WORKLOAD_MAX_SHIFTS_PER_WEEK", 0)
	v.SetDefault("WORKLOAD_MAX_CONSECUTIVE_DAYS", 4)
	v.SetDefault("WORKLOAD_WARNING_THRESHOLD", 4)
	v.SetDefault("WORKLOAD_CRITICAL_THRESHOLD", 6)
	v.SetDefault("WORKLOAD_OVERWORK_THRESHOLD", 8)

	v.SetDefault("SCORING_VIOLATION_WEIGHT", 25)
	v.SetDefault("SCORING_WARNING_WEIGHT", 5)

	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")

	v.SetDefault("CRITICAL_UNIT_KEYWORDS", "ICU,NICU,PICU,EMERGENCY,UGD,IGD")
	v.SetDefault("CAPACITY_DEFAULT_PER_SHIFT", 0)
	v.SetDefault("COMPLIANCE_CACHE_TTL", "10m")

	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFICATION_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATION_RETRY_DELAY", "1s")
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
