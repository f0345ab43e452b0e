package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"sisu-catalog/internal/providers/sisu"
	"sisu-catalog/internal/sftpclient"
)

type Config struct {
	// Catalog service
	BaseURL            string        `validate:"required,url"`
	UniversityID       string        `validate:"required"`
	CurriculumPeriodID string        `validate:"required"`
	SearchLimit        int           `validate:"gte=1"`
	HTTPTimeout        time.Duration `validate:"gt=0"`
	RetryAttempts      int           `validate:"gte=1,lte=10"`

	// Resolution
	MaxWorkers int `validate:"gte=1,lte=256"`

	// Process
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	ServeAddr string `validate:"required"`

	// SFTP
	SFTPHost                  string
	SFTPPort                  int `validate:"gte=1,lte=65535"`
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPKnownHosts            string
	SFTPInsecureIgnoreHostKey bool
}

// Load reads a local .env when there is one, then the environment.
func Load() Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	return Config{
		// Catalog service
		BaseURL:            getenv("SISU_BASE_URL", "https://sis-tuni.funidata.fi/kori/api"),
		UniversityID:       getenv("SISU_UNIVERSITY_ID", "tuni-university-root-id"),
		CurriculumPeriodID: getenv("SISU_CURRICULUM_PERIOD_ID", "uta-lvv-2021"),
		SearchLimit:        getenvInt("SISU_SEARCH_LIMIT", 1000),
		HTTPTimeout:        getenvDuration("SISU_HTTP_TIMEOUT", 60*time.Second),
		RetryAttempts:      getenvInt("SISU_RETRY_ATTEMPTS", 1),

		// Resolution
		MaxWorkers: getenvInt("RESOLVE_MAX_WORKERS", 8),

		// Process
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		ServeAddr: getenv("SERVE_ADDR", ":8080"),

		// SFTP
		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPKnownHosts:            os.Getenv("SFTP_KNOWN_HOSTS"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) Catalog() sisu.Config {
	return sisu.Config{
		BaseURL:            c.BaseURL,
		UniversityID:       c.UniversityID,
		CurriculumPeriodID: c.CurriculumPeriodID,
		SearchLimit:        c.SearchLimit,
		Timeout:            c.HTTPTimeout,
		RetryAttempts:      c.RetryAttempts,
	}
}

func (c Config) SFTP() sftpclient.Config {
	return sftpclient.Config{
		Host:                  c.SFTPHost,
		Port:                  c.SFTPPort,
		User:                  c.SFTPUser,
		Pass:                  c.SFTPPass,
		RemoteDir:             c.SFTPDir,
		KnownHostsFile:        c.SFTPKnownHosts,
		InsecureIgnoreHostKey: c.SFTPInsecureIgnoreHostKey,
	}
}

// SlogLevel maps LogLevel to a slog level, info when unknown.
func (c Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// getenvDuration accepts Go durations ("90s") or plain seconds ("90").
func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
