package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "DROPOUT"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Dataset    DatasetConfig    `yaml:"dataset" envconfig:"DATASET"`
	Clustering ClusteringConfig `yaml:"clustering" envconfig:"CLUSTERING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"required_if=EnableCORS true"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DatasetConfig describes where the dropout workbook lives and how its
// columns are named.
type DatasetConfig struct {
	Path              string   `yaml:"path" envconfig:"WORKBOOK" validate:"required"`
	Sheet             string   `yaml:"sheet" envconfig:"SHEET" validate:"required"`
	GranularityColumn string   `yaml:"granularity_column" envconfig:"GRANULARITY_COLUMN" validate:"required"`
	TargetGranularity string   `yaml:"target_granularity" envconfig:"TARGET_GRANULARITY" validate:"required"`
	RegionColumn      string   `yaml:"region_column" envconfig:"REGION_COLUMN" validate:"required"`
	LevelColumns      []string `yaml:"level_columns" envconfig:"LEVEL_COLUMNS" validate:"len=4,dive,required"`
}

// ClusteringConfig pins the k-means parameters
type ClusteringConfig struct {
	Seed      uint64 `yaml:"seed" envconfig:"SEED"`
	NInit     int    `yaml:"n_init" envconfig:"N_INIT" validate:"min=10"`
	MaxIter   int    `yaml:"max_iter" envconfig:"MAX_ITER" validate:"min=1"`
	DefaultK  int    `yaml:"default_k" envconfig:"DEFAULT_K" validate:"gtefield=MinK,ltefield=MaxK"`
	MinK      int    `yaml:"min_k" envconfig:"MIN_K" validate:"min=2"`
	MaxK      int    `yaml:"max_k" envconfig:"MAX_K" validate:"max=10,gtefield=MinK"`
	ElbowMaxK int    `yaml:"elbow_max_k" envconfig:"ELBOW_MAX_K" validate:"min=1,max=10"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"gt=0"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"gt=0"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0,ltfield=PongWait"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gt=0"`
}

// Load loads configuration from the first config file found and the
// environment. Environment variables take precedence over the file.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration layering defaults, the YAML file at path
// (skipped when empty) and DROPOUT_* environment variables.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// envconfig only touches fields whose variable is set
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/dashboard.log",
		},
		Dataset: DatasetConfig{
			Path:              "jumlah-siswa-putus-sekolah-updated.xlsx",
			Sheet:             "Sheet1",
			GranularityColumn: "Level",
			TargetGranularity: "Kabupaten/Kota",
			RegionColumn:      "Nama Kabupaten/Kota",
			LevelColumns: []string{
				"Jumlah Putus SD",
				"Jumlah Putus SMP",
				"Jumlah Putus SMA",
				"Jumlah Putus SMK",
			},
		},
		Clustering: ClusteringConfig{
			Seed:      42,
			NInit:     10,
			MaxIter:   300,
			DefaultK:  3,
			MinK:      2,
			MaxK:      10,
			ElbowMaxK: 10,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "dropout-dashboard",
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
