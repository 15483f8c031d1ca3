package database

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/pkg/logger"
)

const (
	defaultMySQLPort = "3306"
	tableCollation   = "utf8mb4_unicode_ci"
)

// DSN builds the driver DSN. DATABASE_URL wins over the discrete fields and
// may be a driver DSN ("user:pw@tcp(host:3306)/db") or a URL
// ("mysql://user:pw@host:3306/db"). parseTime and a utf8mb4 collation are
// always set since the repositories scan DATETIME into time.Time.
func DSN(cfg environments.DatabaseConfig) (string, error) {
	var (
		dsnCfg *mysql.Config
		err    error
	)

	switch {
	case cfg.URL == "":
		dsnCfg = mysql.NewConfig()
		dsnCfg.User = cfg.User
		dsnCfg.Passwd = cfg.Password
		dsnCfg.Net = "tcp"
		dsnCfg.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		dsnCfg.DBName = cfg.DBName
	case strings.Contains(cfg.URL, "://"):
		dsnCfg, err = parseURL(cfg.URL)
	default:
		dsnCfg, err = mysql.ParseDSN(cfg.URL)
	}
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	dsnCfg.ParseTime = true
	if !strings.HasPrefix(dsnCfg.Collation, "utf8mb4") {
		dsnCfg.Collation = tableCollation
	}

	return dsnCfg.FormatDSN(), nil
}

func parseURL(raw string) (*mysql.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "mysql" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("missing host")
	}

	// Query parameters mean the same thing in both forms.
	params := "/"
	if u.RawQuery != "" {
		params += "?" + u.RawQuery
	}
	dsnCfg, err := mysql.ParseDSN(params)
	if err != nil {
		return nil, err
	}

	port := u.Port()
	if port == "" {
		port = defaultMySQLPort
	}

	dsnCfg.User = u.User.Username()
	dsnCfg.Passwd, _ = u.User.Password()
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = net.JoinHostPort(u.Hostname(), port)
	dsnCfg.DBName = strings.TrimPrefix(u.Path, "/")

	return dsnCfg, nil
}

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		phone_number VARCHAR(32) PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		full_name VARCHAR(150) NOT NULL DEFAULT '',
		registered BOOLEAN NOT NULL DEFAULT FALSE,
		state VARCHAR(32) NOT NULL DEFAULT 'INITIAL',
		homework_type VARCHAR(16),
		homework_subject VARCHAR(100),
		last_interaction_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_users_state (state),
		INDEX idx_users_last_interaction_at (last_interaction_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS homework_submissions (
		reference CHAR(36) PRIMARY KEY,
		phone_number VARCHAR(32) NOT NULL,
		type VARCHAR(16) NOT NULL,
		subject VARCHAR(100) NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		media_id VARCHAR(128),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_homework_phone (phone_number),
		INDEX idx_homework_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS deliveries (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		reference CHAR(36) NOT NULL,
		phone_number VARCHAR(32) NOT NULL,
		inbound_event_id VARCHAR(128) NOT NULL DEFAULT '',
		level VARCHAR(16) NOT NULL,
		message_id VARCHAR(128),
		failures TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_deliveries_level (level),
		INDEX idx_deliveries_created_at (created_at),
		INDEX idx_deliveries_phone (phone_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
}

func RunMigrations(db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i+1, err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}

// SeedTestData inserts a few demo contacts in different conversation states.
func SeedTestData(db *sqlx.DB) error {
	var count int

	err := db.Get(&count, "SELECT COUNT(*) FROM users")
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d users, skipping seed", count)
		return nil
	}

	demoUsers := []struct {
		phone      string
		firstName  string
		fullName   string
		registered bool
		state      string
	}{
		{"2348010000001", "Ada", "Ada Okafor", true, "REGISTERED"},
		{"2348010000002", "Tunde", "Tunde Bakare", true, "HOMEWORK_TYPE"},
		{"2348010000003", "Ngozi", "Ngozi Eze", true, "PAYMENT_PENDING"},
		{"2348010000004", "Kwame", "Kwame Mensah", true, "HOMEWORK_SUBMITTED"},
		{"2348010000005", "", "", false, "REGISTERING_NAME"},
	}

	for _, u := range demoUsers {
		_, err := db.Exec(
			"INSERT INTO users (phone_number, first_name, full_name, registered, state) VALUES (?, ?, ?, ?, ?)",
			u.phone, u.firstName, u.fullName, u.registered, u.state,
		)
		if err != nil {
			return fmt.Errorf("failed to seed test data: %w", err)
		}
	}

	logger.Infof("Seeded %d demo users", len(demoUsers))
	return nil
}
