package mlsclient

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"MLS_ENDPOINT", "MLS_API_KEY", "MLS_MEMBER_ID", "MLS_TIMEOUT",
	"MLS_DEBUG", "MLS_LOG_LEVEL", "MLS_LOG_FORMAT",
}

// clearConfigEnv unsets the MLS_* variables for the test and restores them afterwards.
func clearConfigEnv(t *testing.T) {
	t.Helper()

	for _, key := range configEnvKeys {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, value) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
		_ = os.Unsetenv(key)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearConfigEnv(t)

	path := writeEnvFile(t, strings.Join([]string{
		"MLS_API_KEY=abc",
		"MLS_MEMBER_ID=1000",
		"MLS_TIMEOUT=5s",
		"MLS_DEBUG=true",
		"MLS_LOG_FORMAT=json",
	}, "\n"))

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIKey != "abc" || cfg.MemberID != "1000" {
		t.Errorf("credentials not loaded: %+v", cfg)
	}

	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %q", cfg.Endpoint)
	}

	if cfg.Timeout != 5*time.Second || !cfg.Debug {
		t.Errorf("unexpected timeout/debug: %v %v", cfg.Timeout, cfg.Debug)
	}

	if cfg.Logger == nil {
		t.Error("expected a logger")
	}
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	clearConfigEnv(t)
	_ = os.Setenv("MLS_API_KEY", "from-env")

	path := writeEnvFile(t, "MLS_API_KEY=from-file\nMLS_MEMBER_ID=7\nMLS_ENDPOINT=http://mls.local/ws.asmx?wsdl\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIKey != "from-env" {
		t.Errorf("expected environment value, got %q", cfg.APIKey)
	}

	if cfg.endpoint() != "http://mls.local/ws.asmx" {
		t.Errorf("unexpected endpoint %q", cfg.endpoint())
	}
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	clearConfigEnv(t)

	path := writeEnvFile(t, "MLS_API_KEY=k\nMLS_MEMBER_ID=1\nMLS_TIMEOUT=soon\nMLS_DEBUG=perhaps\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Timeout != DefaultTimeout || cfg.Debug {
		t.Errorf("expected defaults, got timeout=%v debug=%v", cfg.Timeout, cfg.Debug)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := map[string]string{
		"missing key":    "MLS_MEMBER_ID=1\n",
		"missing member": "MLS_API_KEY=k\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)

			if _, err := LoadConfig(writeEnvFile(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearConfigEnv(t)

		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.env")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestConfigTimeout(t *testing.T) {
	if got := (Config{}).timeout(); got != DefaultTimeout {
		t.Errorf("expected default, got %v", got)
	}

	if got := (Config{Timeout: time.Second}).timeout(); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"msg":"hello"`},
		{"text", `msg=hello`},
		{"color", `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LogConfig{Writer: &buf, Level: "warn", Format: tt.format})

			logger.Info("hidden")
			logger.Warn("hello")

			if strings.Contains(buf.String(), "hidden") {
				t.Errorf("info record should be filtered: %s", buf.String())
			}

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in %s", tt.want, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"loud":    "INFO",
	}

	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLoadConfig_WarningsUseConfiguredLogger(t *testing.T) {
	clearConfigEnv(t)
	_ = os.Setenv("MLS_API_KEY", "k")
	_ = os.Setenv("MLS_MEMBER_ID", "1")
	_ = os.Setenv("MLS_TIMEOUT", "soon")
	_ = os.Setenv("MLS_DEBUG", "perhaps")

	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Writer: &buf, Format: "json"})

	cfg, err := loadConfig(logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Logger != logger {
		t.Error("loaded config must carry the logger")
	}

	for _, want := range []string{`"key":"MLS_TIMEOUT"`, `"key":"MLS_DEBUG"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected warning with %s, got %s", want, buf.String())
		}
	}
}
