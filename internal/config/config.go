// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/celerix-dev/celerix-gestao/internal/logger"
	"github.com/celerix-dev/celerix-gestao/internal/vault"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Backup drivers.
const (
	BackupFS = "fs"
	BackupS3 = "s3"
)

type Config struct {
	Env     string
	Storage Storage
	Server  Server
	Session Session
	DB      DB
	Backup  Backup
	Admin   Admin
}

// Admin is the account created on first start when no user exists.
type Admin struct {
	Login    string
	Password string
}

type Storage struct {
	DataDir       string
	Driver        string
	SQLitePath    string
	PostgresDSN   string
	EncryptionKey []byte
	// RemoteAddr points at a running daemon; empty means embedded.
	RemoteAddr string
}

type Server struct {
	TCPPort    string
	HTTPPort   string
	DisableTLS bool
}

type Session struct {
	Duration      time.Duration
	WarningWindow time.Duration
	CheckInterval time.Duration
}

type DB struct {
	MaxLogEntries int
	Strict        bool
}

type Backup struct {
	Driver      string
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	S3Prefix    string
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", slog.Any("error", err))
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("app_env"),
		Storage: Storage{
			DataDir:     v.GetString("celerix_data_dir"),
			Driver:      strings.ToLower(v.GetString("celerix_storage_driver")),
			SQLitePath:  v.GetString("celerix_sqlite_path"),
			PostgresDSN: v.GetString("celerix_postgres_dsn"),
			RemoteAddr:  v.GetString("celerix_store_addr"),
		},
		Server: Server{
			TCPPort:    v.GetString("celerix_port"),
			HTTPPort:   v.GetString("celerix_http_port"),
			DisableTLS: v.GetBool("celerix_disable_tls"),
		},
		Session: Session{
			Duration:      v.GetDuration("session_duration"),
			WarningWindow: v.GetDuration("session_warning_window"),
			CheckInterval: v.GetDuration("session_check_interval"),
		},
		DB: DB{
			MaxLogEntries: v.GetInt("log_max_entries"),
			Strict:        v.GetBool("db_strict"),
		},
		Backup: Backup{
			Driver:      strings.ToLower(v.GetString("backup_driver")),
			Dir:         v.GetString("backup_dir"),
			S3Bucket:    v.GetString("backup_s3_bucket"),
			S3Region:    v.GetString("backup_s3_region"),
			S3Endpoint:  v.GetString("backup_s3_endpoint"),
			S3PathStyle: v.GetBool("backup_s3_path_style"),
			S3Prefix:    v.GetString("backup_s3_prefix"),
		},
		Admin: Admin{
			Login:    v.GetString("gestao_admin_login"),
			Password: v.GetString("gestao_admin_password"),
		},
	}

	key, err := vault.ParseKey(v.GetString("celerix_encryption_key"))
	if err != nil {
		return nil, fmt.Errorf("CELERIX_ENCRYPTION_KEY: %w", err)
	}
	cfg.Storage.EncryptionKey = key

	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(cfg.Storage.DataDir, "gestao.db")
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = filepath.Join(cfg.Storage.DataDir, "backups")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load for main packages.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", logger.EnvProd)
	v.SetDefault("celerix_data_dir", "./data")
	v.SetDefault("celerix_storage_driver", DriverFile)
	v.SetDefault("celerix_port", "7001")
	v.SetDefault("celerix_http_port", "7002")
	v.SetDefault("session_duration", 12*time.Hour)
	v.SetDefault("session_warning_window", 30*time.Minute)
	v.SetDefault("session_check_interval", time.Minute)
	v.SetDefault("log_max_entries", 0)
	v.SetDefault("backup_driver", BackupFS)
	v.SetDefault("backup_s3_region", "us-east-1")
	v.SetDefault("backup_s3_prefix", "backups/")
	v.SetDefault("gestao_admin_login", "admin")
}

func (c *Config) validate() error {
	var errs []error
	switch c.Env {
	case logger.EnvLocal, logger.EnvDev, logger.EnvProd:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, prod; got %q", c.Env))
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("CELERIX_POSTGRES_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CELERIX_STORAGE_DRIVER %q", c.Storage.Driver))
	}
	switch c.Backup.Driver {
	case BackupFS:
	case BackupS3:
		if c.Backup.S3Bucket == "" {
			errs = append(errs, errors.New("BACKUP_S3_BUCKET is required for the s3 backup driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BACKUP_DRIVER %q", c.Backup.Driver))
	}
	if c.Session.Duration <= 0 {
		errs = append(errs, errors.New("SESSION_DURATION must be positive"))
	}
	if c.Session.WarningWindow <= 0 || c.Session.WarningWindow >= c.Session.Duration {
		errs = append(errs, errors.New("SESSION_WARNING_WINDOW must be positive and shorter than SESSION_DURATION"))
	}
	if c.Session.CheckInterval <= 0 {
		errs = append(errs, errors.New("SESSION_CHECK_INTERVAL must be positive"))
	}
	if c.DB.MaxLogEntries < 0 {
		errs = append(errs, errors.New("LOG_MAX_ENTRIES must not be negative"))
	}
	return errors.Join(errs...)
}
