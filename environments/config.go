package environments

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	WhatsApp WhatsAppConfig
	Delivery DeliveryConfig
	Bot      BotConfig
	Alert    AlertConfig
	Auth     AuthConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string `validate:"required,numeric"`
}

type DatabaseConfig struct {
	// URL is a full MySQL DSN. When set it takes precedence over the discrete fields.
	URL      string
	Host     string `validate:"required_without=URL"`
	Port     string `validate:"required_without=URL"`
	User     string `validate:"required_without=URL"`
	Password string
	DBName   string `validate:"required_without=URL"`
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int `validate:"min=0"`
	// LockTTL bounds how long one message may hold a per-phone lock.
	LockTTL time.Duration `validate:"gt=0"`
}

type WhatsAppConfig struct {
	APIBaseURL    string        `validate:"required,url"`
	APIVersion    string        `validate:"required"`
	PhoneNumberID string        `validate:"required"`
	AccessToken   string        `validate:"required"`
	VerifyToken   string        `validate:"required"`
	AppSecret     string        // optional; enables X-Hub-Signature-256 checks
	Timeout       time.Duration `validate:"gt=0"`
	RetryCount    int           `validate:"min=0,max=5"`
}

// lockHeadroom is the time left in a per-phone lock for loading, saving and
// recording around the send attempts.
const lockHeadroom = 5 * time.Second

type DeliveryConfig struct {
	AttemptTimeout time.Duration `validate:"gt=0"`
	FallbackText   string        `validate:"required"`
	MaxTextLength  int           `validate:"min=20,max=4096"`
}

// MaxSendTime is the longest a full fallback chain can take.
func (d DeliveryConfig) MaxSendTime() time.Duration {
	return 3 * d.AttemptTimeout
}

type BotConfig struct {
	Name           string `validate:"required"`
	PaymentURL     string `validate:"omitempty,url"`
	SupportContact string
}

type AlertConfig struct {
	WebhookURL     string `validate:"omitempty,url"`
	IterationCount int    `validate:"min=0"`
	CheckInterval  time.Duration
}

type AuthConfig struct {
	AdminAPIKey string `validate:"required"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// LoadDotEnv copies variables from the given files (".env" when none are
// given) into the process environment. Variables already set win. Missing
// files are not an error; it reports whether anything was loaded.
func LoadDotEnv(files ...string) (bool, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("failed to stat %s: %w", f, err)
		}
	}
	if len(present) == 0 {
		return false, nil
	}

	if err := godotenv.Load(present...); err != nil {
		return false, fmt.Errorf("failed to load env files: %w", err)
	}

	return true, nil
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: GetEnv("PORT", GetEnv("SERVER_PORT", "8080")),
		},
		Database: DatabaseConfig{
			URL:      GetEnv("DATABASE_URL", ""),
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "edubot"),
			Password: GetEnv("DB_PASSWORD", ""),
			DBName:   GetEnv("DB_NAME", "edubot"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
			LockTTL:  GetEnvAsDuration("REDIS_LOCK_TTL", 30*time.Second),
		},
		WhatsApp: WhatsAppConfig{
			APIBaseURL:    strings.TrimRight(GetEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com"), "/"),
			APIVersion:    GetEnv("WHATSAPP_API_VERSION", "v19.0"),
			PhoneNumberID: GetEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			AccessToken:   GetEnv("WHATSAPP_ACCESS_TOKEN", ""),
			VerifyToken:   GetEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     GetEnv("WHATSAPP_APP_SECRET", ""),
			Timeout:       GetEnvAsDuration("WHATSAPP_TIMEOUT", 10*time.Second),
			RetryCount:    GetEnvAsInt("WHATSAPP_RETRY_COUNT", 0),
		},
		Delivery: DeliveryConfig{
			AttemptTimeout: GetEnvAsDuration("DELIVERY_ATTEMPT_TIMEOUT", 8*time.Second),
			FallbackText:   GetEnv("DELIVERY_FALLBACK_TEXT", "Got your message, processing..."),
			MaxTextLength:  GetEnvAsInt("DELIVERY_MAX_TEXT_LENGTH", 1024),
		},
		Bot: BotConfig{
			Name:           GetEnv("BOT_NAME", "EduBot"),
			PaymentURL:     GetEnv("PAYMENT_URL", ""),
			SupportContact: GetEnv("SUPPORT_CONTACT", ""),
		},
		Alert: AlertConfig{
			WebhookURL:     GetEnv("ALERT_WEBHOOK_URL", ""),
			IterationCount: GetEnvAsInt("ALERT_ITERATION_COUNT", 3),
			CheckInterval:  GetEnvAsDuration("ALERT_CHECK_INTERVAL", 5*time.Minute),
		},
		Auth: AuthConfig{
			AdminAPIKey: GetEnv("ADMIN_API_KEY", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(GetEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(GetEnv("LOG_FORMAT", "json")),
		},
	}
}

// Validate checks the struct tags above and returns one error listing every bad field.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(errs))
			for _, fe := range errs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if need := c.Delivery.MaxSendTime() + lockHeadroom; c.RedisEnabled() && c.Redis.LockTTL < need {
		return fmt.Errorf("invalid configuration: REDIS_LOCK_TTL %v is shorter than 3 x DELIVERY_ATTEMPT_TIMEOUT plus %v (%v)",
			c.Redis.LockTTL, lockHeadroom, need)
	}

	return nil
}

// RedisEnabled reports whether a valkey/redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
