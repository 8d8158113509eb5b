package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"

	"crypto-research-service/config"
	"crypto-research-service/models"

	_ "github.com/go-sql-driver/mysql"
)

const maxPingAttempts = 5

// Database represents the database connection
type Database struct {
	db *sql.DB
}

// RequestLogEntry is one row of the chat request log
type RequestLogEntry struct {
	RequestID  string
	Endpoint   string
	Model      string
	Success    bool
	DurationMs int64
}

// NewDatabase opens the MySQL connection and verifies it with a bounded
// backoff. The caller decides whether a failure is fatal; the service can
// run without persistence.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry
	waitInterval := 1 * time.Second
	for attempt := 1; ; attempt++ {
		err = db.Ping()
		if err == nil {
			break
		}
		if attempt >= maxPingAttempts {
			db.Close()
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
		}
		log.Warnf("database connection failed, retrying in %v: %v", waitInterval, err)
		time.Sleep(waitInterval)
		waitInterval *= 2
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("established db connection")
	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying sql.DB for direct queries
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// InitSchema creates the request log table if it doesn't exist
func (d *Database) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS request_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		request_id VARCHAR(36) NOT NULL,
		endpoint VARCHAR(64) NOT NULL,
		model VARCHAR(64) NOT NULL DEFAULT '',
		success BOOLEAN NOT NULL DEFAULT TRUE,
		duration_ms INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_request_log_created (created_at),
		INDEX idx_request_log_endpoint (endpoint)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create request_log table: %w", err)
	}

	log.Info("request_log table verified/created")
	return nil
}

// LogRequest records one handled chat request
func (d *Database) LogRequest(entry RequestLogEntry) error {
	query := `
	INSERT INTO request_log (request_id, endpoint, model, success, duration_ms)
	VALUES (?, ?, ?, ?, ?)`

	_, err := d.db.Exec(query,
		entry.RequestID,
		entry.Endpoint,
		entry.Model,
		entry.Success,
		entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log request: %w", err)
	}

	return nil
}

// GetStats aggregates the request log. SuccessRate is a percentage.
func (d *Database) GetStats() (*models.RequestStats, error) {
	query := `
	SELECT
		COUNT(*),
		COALESCE(AVG(success), 0),
		COALESCE(AVG(duration_ms), 0),
		COALESCE(SUM(created_at > NOW() - INTERVAL 24 HOUR), 0)
	FROM request_log`

	var stats models.RequestStats
	var successRate float64
	err := d.db.QueryRow(query).Scan(
		&stats.TotalRequests,
		&successRate,
		&stats.AvgDurationMs,
		&stats.RequestsLast24h,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query request stats: %w", err)
	}

	stats.SuccessRate = successRate * 100
	return &stats, nil
}
