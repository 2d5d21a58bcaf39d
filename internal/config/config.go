package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Paths    Paths    `mapstructure:"paths"`
	Database Database `mapstructure:"database"`
	Storage  Storage  `mapstructure:"storage"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Retry    Retry    `mapstructure:"retry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort    string `mapstructure:"http_port"`     // HTTP address to listen on
	FrontendDir string `mapstructure:"frontend_dir"`  // pre-built single page app
	MaxUploadMB int64  `mapstructure:"max_upload_mb"` // multipart memory limit
}

// Paths holds the directories the service works with.
// Both are created at startup if absent.
type Paths struct {
	UploadDir string `mapstructure:"upload_dir"` // staging area for uploaded tables
	TargetDir string `mapstructure:"target_dir"` // where found images are copied
}

// Database holds database master and slave configuration.
// The job history is only kept when Enabled is set.
type Database struct {
	Enabled bool           `mapstructure:"enabled"`
	Master  DatabaseNode   `mapstructure:"master"`
	Slaves  []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Storage holds configuration for the object storage mirror.
type Storage struct {
	Mirror Mirror `mapstructure:"mirror"`
}

// Mirror configures replication of copied images to S3-compatible storage.
type Mirror struct {
	Enabled    bool   `mapstructure:"enabled"`
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	Prefix     string `mapstructure:"prefix"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Kafka holds configuration for job events.
// Reports are published to Topic; when RequestsTopic is set, reconcile
// requests are also consumed from it.
type Kafka struct {
	Enabled       bool     `mapstructure:"enabled"`
	Topic         string   `mapstructure:"topic"`          // job report topic
	RequestsTopic string   `mapstructure:"requests_topic"` // reconcile request topic
	GroupID       string   `mapstructure:"group_id"`       // Consumer group ID
	Brokers       []string `mapstructure:"brokers"`        // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

// envBindings maps config keys to the environment variables overriding them.
var envBindings = map[string]string{
	"server.http_port":           "SERVER_HTTP_PORT",
	"paths.target_dir":           "TARGET_DIR",
	"database.master.host":       "DB_HOST",
	"database.master.port":       "DB_PORT",
	"database.master.user":       "DB_USER",
	"database.master.pass":       "DB_PASSWORD",
	"database.master.name":       "DB_NAME",
	"storage.mirror.endpoint":    "MINIO_ENDPOINT",
	"storage.mirror.access_key":  "MINIO_ACCESS_KEY",
	"storage.mirror.secret_key":  "MINIO_SECRET_KEY",
	"storage.mirror.bucket_name": "MINIO_BUCKET",
	"kafka.brokers":              "KAFKA_BROKERS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":7000")
	v.SetDefault("server.frontend_dir", "../Frontend/dist")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("paths.upload_dir", "./uploads")
	v.SetDefault("paths.target_dir", "./images")
	v.SetDefault("database.master.ssl_mode", "disable")
	v.SetDefault("storage.mirror.prefix", "images")
	v.SetDefault("kafka.topic", "reconciliation-jobs")
	v.SetDefault("kafka.group_id", "image-reconciler")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", time.Second)
	v.SetDefault("retry.backoff", 2.0)
}

// Load reads the configuration from the YAML file at path, applying defaults
// and environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to load config")
		panic(err)
	}

	return cfg
}
