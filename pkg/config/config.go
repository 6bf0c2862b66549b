package config

import (
	"errors"
	"fmt"
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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	CORS      CORSConfig
	Log       LogConfig
	Backend   BackendConfig
	Booking   BookingConfig
	Pages     PagesConfig
	RateLimit RateLimitConfig
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BackendConfig points at the server that owns bookings.
type BackendConfig struct {
	BaseURL          string
	AvailabilityPath string
	FormActionPath   string
	// FetchTimeout bounds availability reads. Zero leaves them unbounded.
	FetchTimeout  time.Duration
	FetchWorkers  int
	FetchRetries  int
	SubmitTimeout time.Duration
}

// BookingConfig holds the lead-time and business-hour rules plus the preset slot grid.
type BookingConfig struct {
	LeadDays         int
	OpenHour         int
	CloseHour        int
	SlotStart        string
	SlotEnd          string
	SlotStep         time.Duration
	Timezone         string
	PurposeMaxLength int
}

// PagesConfig tunes the lifetime of hosted pages.
type PagesConfig struct {
	IdleTTL              time.Duration
	NotificationDuration time.Duration
}

// RateLimitConfig caps event traffic per client. Zero RPS disables the limiter.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Location resolves the configured booking timezone, falling back to local time.
// Load rejects unknown zones, so the fallback only applies to hand-built configs.
func (b BookingConfig) Location() *time.Location {
	if b.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Booking.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b BookingConfig) validate() error {
	var errs []error
	if b.LeadDays < 0 {
		errs = append(errs, fmt.Errorf("BOOKING_LEAD_DAYS must not be negative, got %d", b.LeadDays))
	}
	if b.OpenHour < 0 || b.CloseHour > 23 || b.OpenHour > b.CloseHour {
		errs = append(errs, fmt.Errorf("booking hours %d..%d must satisfy 0 <= BOOKING_OPEN_HOUR <= BOOKING_CLOSE_HOUR <= 23", b.OpenHour, b.CloseHour))
	}
	if b.Timezone != "" {
		if _, err := time.LoadLocation(b.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("BOOKING_TIMEZONE: %w", err))
		}
	}
	return errors.Join(errs...)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Backend = BackendConfig{
		BaseURL:          strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		AvailabilityPath: v.GetString("AVAILABILITY_PATH"),
		FormActionPath:   v.GetString("FORM_ACTION_PATH"),
		FetchTimeout:     parseDuration(v.GetString("AVAILABILITY_FETCH_TIMEOUT"), 0),
		FetchWorkers:     v.GetInt("AVAILABILITY_WORKERS"),
		FetchRetries:     v.GetInt("AVAILABILITY_FETCH_RETRIES"),
		SubmitTimeout:    parseDuration(v.GetString("SUBMIT_TIMEOUT"), 15*time.Second),
	}

	cfg.Booking = BookingConfig{
		LeadDays:         v.GetInt("BOOKING_LEAD_DAYS"),
		OpenHour:         v.GetInt("BOOKING_OPEN_HOUR"),
		CloseHour:        v.GetInt("BOOKING_CLOSE_HOUR"),
		SlotStart:        v.GetString("BOOKING_SLOT_START"),
		SlotEnd:          v.GetString("BOOKING_SLOT_END"),
		SlotStep:         parseDuration(v.GetString("BOOKING_SLOT_STEP"), 30*time.Minute),
		Timezone:         v.GetString("BOOKING_TIMEZONE"),
		PurposeMaxLength: v.GetInt("PURPOSE_MAX_LENGTH"),
	}

	cfg.Pages = PagesConfig{
		IdleTTL:              parseDuration(v.GetString("PAGE_IDLE_TTL"), 30*time.Minute),
		NotificationDuration: parseDuration(v.GetString("NOTIFICATION_DURATION"), 3*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		Burst: v.GetInt("RATE_LIMIT_BURST"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:5000")
	v.SetDefault("AVAILABILITY_PATH", "/booking/availability")
	v.SetDefault("FORM_ACTION_PATH", "/booking/new")
	v.SetDefault("AVAILABILITY_FETCH_TIMEOUT", "0s")
	v.SetDefault("AVAILABILITY_WORKERS", 4)
	v.SetDefault("AVAILABILITY_FETCH_RETRIES", 0)
	v.SetDefault("SUBMIT_TIMEOUT", "15s")

	v.SetDefault("BOOKING_LEAD_DAYS", 2)
	v.SetDefault("BOOKING_OPEN_HOUR", 9)
	v.SetDefault("BOOKING_CLOSE_HOUR", 18)
	v.SetDefault("BOOKING_SLOT_START", "09:00")
	v.SetDefault("BOOKING_SLOT_END", "17:30")
	v.SetDefault("BOOKING_SLOT_STEP", "30m")
	v.SetDefault("BOOKING_TIMEZONE", "")
	v.SetDefault("PURPOSE_MAX_LENGTH", 1000)

	v.SetDefault("PAGE_IDLE_TTL", "30m")
	v.SetDefault("NOTIFICATION_DURATION", "3s")

	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
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
