package npmsdk

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/npmsdk/pkg/slogx"
)

// DefaultTimeout bounds every outbound request unless Config.Timeout or a
// custom HTTPClient says otherwise.
const DefaultTimeout = 10 * time.Second

// Config configures a Client. Credentials are kept in memory only and are
// reused verbatim for every renewal.
type Config struct {
	Host     string `json:"host" validate:"required"`                  // Required: host[:port] of the proxy manager
	Scheme   string `json:"scheme" validate:"omitempty,oneof=http https"` // Optional: http or https (default: https)
	Email    string `json:"email" validate:"required"`                 // Required: login identity
	Password string `json:"password" validate:"required"`              // Required: login secret

	Timeout       time.Duration // Optional: per-request timeout (default: 10s)
	SkipRoleCheck bool          // Optional: disable the client-side admin role check

	Logger     *slog.Logger `validate:"-"` // Optional: defaults to slog.Default()
	HTTPClient *http.Client `validate:"-"` // Optional: its Transport gets wrapped for logging
}

// LoadConfig reads a Config from the environment:
//
//	NPM_HOST, NPM_SCHEME (https), NPM_EMAIL, NPM_PASSWORD,
//	NPM_TIMEOUT (10s), NPM_SKIP_ROLE_CHECK (false),
//	NPM_LOG_LEVEL (info), NPM_LOG_FORMAT (json)
func LoadConfig() Config {
	return Config{
		Host:          os.Getenv("NPM_HOST"),
		Scheme:        getEnvOrDefault("NPM_SCHEME", "https"),
		Email:         os.Getenv("NPM_EMAIL"),
		Password:      os.Getenv("NPM_PASSWORD"),
		Timeout:       getEnvDurationOrDefault("NPM_TIMEOUT", DefaultTimeout),
		SkipRoleCheck: getEnvBoolOrDefault("NPM_SKIP_ROLE_CHECK", false),
		Logger: slogx.New(slogx.Config{
			Service: "npmsdk",
			Level:   getEnvOrDefault("NPM_LOG_LEVEL", "info"),
			Format:  getEnvOrDefault("NPM_LOG_FORMAT", "json"),
		}),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "30s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
