package environments

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()

	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "1055")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify-me")
	t.Setenv("ADMIN_API_KEY", "admin-key")

	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg := validConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Delivery.FallbackText != "Got your message, processing..." {
		t.Errorf("unexpected fallback text %q", cfg.Delivery.FallbackText)
	}
	if cfg.Delivery.AttemptTimeout != 8*time.Second {
		t.Errorf("unexpected attempt timeout %v", cfg.Delivery.AttemptTimeout)
	}
	if cfg.WhatsApp.RetryCount != 0 {
		t.Errorf("expected no transport retries by default, got %d", cfg.WhatsApp.RetryCount)
	}
	if cfg.Redis.LockTTL != 30*time.Second {
		t.Errorf("unexpected lock TTL %v", cfg.Redis.LockTTL)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("DELIVERY_ATTEMPT_TIMEOUT", "3s")
	t.Setenv("WHATSAPP_API_BASE_URL", "https://graph.example.com/")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("REDIS_DB", "not-a-number")
	cfg := validConfig(t)

	if cfg.Delivery.AttemptTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Delivery.AttemptTimeout)
	}
	if cfg.WhatsApp.APIBaseURL != "https://graph.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.WhatsApp.APIBaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected lower-cased level, got %q", cfg.Log.Level)
	}
	if cfg.Redis.DB != 0 {
		t.Errorf("expected invalid int to fall back to default, got %d", cfg.Redis.DB)
	}
}

func TestValidate_ListsMissingSecrets(t *testing.T) {
	cfg := validConfig(t)
	cfg.WhatsApp.AccessToken = ""
	cfg.Auth.AdminAPIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "AccessToken") || !strings.Contains(msg, "AdminAPIKey") {
		t.Fatalf("expected both fields to be reported, got %q", msg)
	}
}

func TestValidate_DatabaseURLReplacesDiscreteFields(t *testing.T) {
	cfg := validConfig(t)
	cfg.Database = DatabaseConfig{URL: "edubot:pw@tcp(db:3306)/edubot?parseTime=true"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected DATABASE_URL alone to be enough, got %v", err)
	}
}

func TestLoadDotEnv_FileFillsUnsetVariables(t *testing.T) {
	// Registered with t.Setenv so the values godotenv writes are restored.
	t.Setenv("BOT_NAME", "")
	os.Unsetenv("BOT_NAME")
	t.Setenv("PAYMENT_URL", "https://pay.example.com/from-env")

	path := filepath.Join(t.TempDir(), ".env")
	content := "BOT_NAME=StudyPal\nPAYMENT_URL=https://pay.example.com/from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	loaded, err := LoadDotEnv(path)
	if err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if !loaded {
		t.Fatalf("expected env file to be loaded")
	}

	cfg := Load()
	if cfg.Bot.Name != "StudyPal" {
		t.Fatalf("expected bot name from file, got %q", cfg.Bot.Name)
	}
	if cfg.Bot.PaymentURL != "https://pay.example.com/from-env" {
		t.Fatalf("expected process env to win, got %q", cfg.Bot.PaymentURL)
	}
}

func TestLoadDotEnv_MissingFileIsNotAnError(t *testing.T) {
	loaded, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if loaded {
		t.Fatalf("expected nothing to be loaded")
	}
}

func TestValidate_LockTTLMustCoverDeliveryChain(t *testing.T) {
	t.Setenv("DELIVERY_ATTEMPT_TIMEOUT", "15s")
	cfg := validConfig(t)

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected a 30s lock TTL to be rejected for 15s attempts")
	}
	if !strings.Contains(err.Error(), "REDIS_LOCK_TTL") {
		t.Fatalf("expected lock TTL to be named, got %q", err.Error())
	}

	cfg.Redis.LockTTL = time.Minute
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected a 1m lock TTL to be enough, got %v", err)
	}

	cfg.Redis.LockTTL = 30 * time.Second
	cfg.Redis.Host = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no lock TTL check without redis, got %v", err)
	}
}
