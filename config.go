package mlsclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEndpoint is the production address of the Timeshare Brokers MLS service.
const DefaultEndpoint = "http://silverlightapi.timesharebrokersmls.com/tsbmlsws.asmx"

// DefaultTimeout applies to every HTTP round trip when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config defines the options to pass to a client
type Config struct {
	// Endpoint is the service address. A trailing "?wsdl" is ignored. It is mandatory.
	Endpoint string

	// APIKey is sent as Key with every operation. It is mandatory.
	APIKey string

	// MemberID is sent with searches. It is mandatory.
	MemberID string

	// Timeout bounds each HTTP round trip. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient replaces the default client, including its timeout and the TLS
	// client auth built from Certificate; configure those on it when needed.
	HTTPClient *http.Client

	// Certificate enables WS-Security: requests are signed with it and it is used for TLS client auth.
	Certificate *tls.Certificate

	// Username and Password are sent as a WS-Security UsernameToken, signed along
	// with the body when Certificate is set.
	Username string
	Password string

	// VerifySignature validates the signature before sending the request. Use it only for development
	VerifySignature bool

	// Debug logs raw requests and responses at debug level. Use it only for development
	Debug bool

	// Logger receives the client logs. Nil discards them.
	Logger *slog.Logger
}

func (cfg Config) validate() error {
	switch {
	case cfg.APIKey == "":
		return ErrMissingAPIKey
	case cfg.MemberID == "":
		return ErrMissingMemberID
	case cfg.endpoint() == "":
		return ErrMissingEndpoint
	}

	return nil
}

func (cfg Config) endpoint() string {
	endpoint := strings.TrimSpace(cfg.Endpoint)

	if i := strings.Index(endpoint, "?"); i >= 0 && strings.EqualFold(endpoint[i+1:], "wsdl") {
		endpoint = endpoint[:i]
	}

	return endpoint
}

func (cfg Config) timeout() time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}

	return DefaultTimeout
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}

	return discardLogger()
}

// LoadConfig reads the configuration from the environment, loading a .env file
// first. The default .env file is optional; an explicit path must exist.
//
//	MLS_ENDPOINT    service address (DefaultEndpoint)
//	MLS_API_KEY     required
//	MLS_MEMBER_ID   required
//	MLS_TIMEOUT     Go duration (30s)
//	MLS_DEBUG       log raw SOAP documents (false)
//	MLS_LOG_LEVEL   debug, info, warn or error (info)
//	MLS_LOG_FORMAT  text, json or color (text)
func LoadConfig(envPath ...string) (Config, error) {
	if len(envPath) > 0 {
		if err := godotenv.Load(envPath[0]); err != nil {
			return Config{}, fmt.Errorf("could not load .env file (path: %v): %w", envPath[0], err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("could not load .env file: %w", err)
	}

	logCfg := LogConfig{
		Level:  getEnvAsString("MLS_LOG_LEVEL", "info"),
		Format: getEnvAsString("MLS_LOG_FORMAT", "text"),
	}

	return loadConfig(NewLogger(logCfg))
}

func loadConfig(logger *slog.Logger) (Config, error) {
	cfg := Config{
		Endpoint: getEnvAsString("MLS_ENDPOINT", DefaultEndpoint),
		APIKey:   os.Getenv("MLS_API_KEY"),
		MemberID: os.Getenv("MLS_MEMBER_ID"),
		Timeout:  getEnvAsDuration(logger, "MLS_TIMEOUT", DefaultTimeout),
		Debug:    getEnvAsBool(logger, "MLS_DEBUG", false),
		Logger:   logger,
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("MLS_API_KEY environment variable is required")
	}

	if cfg.MemberID == "" {
		return Config{}, fmt.Errorf("MLS_MEMBER_ID environment variable is required")
	}

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultValue
}

func getEnvAsDuration(logger *slog.Logger, key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		logger.Warn("invalid duration in environment, using default",
			slog.String("key", key), slog.String("value", valueStr), slog.Duration("default", defaultValue))
		return defaultValue
	}

	return value
}

func getEnvAsBool(logger *slog.Logger, key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Warn("invalid bool in environment, using default",
			slog.String("key", key), slog.String("value", valueStr), slog.Bool("default", defaultValue))
		return defaultValue
	}

	return value
}
