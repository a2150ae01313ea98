package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Maps        MapsConfig        `mapstructure:"maps"`
	Scene       SceneConfig       `mapstructure:"scene"`
	Cluster     ClusterConfig     `mapstructure:"cluster"`
	Checkpoints CheckpointsConfig `mapstructure:"checkpoints"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// MapsConfig configures the geocoding provider and map tiles.
type MapsConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Language          string  `mapstructure:"language"`
	Region            string  `mapstructure:"region"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Timeout           int     `mapstructure:"timeout"`
	TileProvider      string  `mapstructure:"tile_provider"`
}

// SceneConfig configures new map sessions.
type SceneConfig struct {
	CenterLat  float64 `mapstructure:"center_lat"`
	CenterLng  float64 `mapstructure:"center_lng"`
	Zoom       int     `mapstructure:"zoom"`
	SessionTTL int     `mapstructure:"session_ttl"`
}

// ClusterConfig configures the clustering engine.
type ClusterConfig struct {
	RadiusPx  float64 `mapstructure:"radius_px"`
	MinPoints int     `mapstructure:"min_points"`
	MaxZoom   int     `mapstructure:"max_zoom"`
}

type CheckpointsConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file and environment variables.
func Load(service string) (*Config, error) {
	// A local .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.base_url", "https://maps.googleapis.com")
	v.SetDefault("maps.language", "en")
	v.SetDefault("maps.region", "")
	v.SetDefault("maps.requests_per_second", 10.0)
	v.SetDefault("maps.timeout", 5)
	v.SetDefault("maps.tile_provider", "osm")
	v.SetDefault("scene.center_lat", 43.45)
	v.SetDefault("scene.center_lng", -80.49)
	v.SetDefault("scene.zoom", 12)
	v.SetDefault("scene.session_ttl", 1800)
	v.SetDefault("cluster.radius_px", 60.0)
	v.SetDefault("cluster.min_points", 2)
	v.SetDefault("cluster.max_zoom", 16)
	v.SetDefault("checkpoints.model_path", "models/suspicious_driving_model.json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "riskmap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "riskmap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: RISKMAP_MAPS_API_KEY → maps.api_key
	v.SetEnvPrefix("RISKMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// RequireMapsKey reports a missing maps credential. Only programs that draw
// maps or geocode need one.
func (c *Config) RequireMapsKey() error {
	if strings.TrimSpace(c.Maps.APIKey) == "" {
		return errors.New("maps.api_key is required (set RISKMAP_MAPS_API_KEY)")
	}
	return nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Maps.BaseURL == "" {
		errs = append(errs, "maps.base_url is required")
	}
	if c.Maps.RequestsPerSecond <= 0 {
		errs = append(errs, "maps.requests_per_second must be positive")
	}
	if c.Maps.Timeout <= 0 {
		errs = append(errs, "maps.timeout must be positive")
	}
	if c.Scene.CenterLat < -90 || c.Scene.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("scene.center_lat must be -90..90, got %g", c.Scene.CenterLat))
	}
	if c.Scene.CenterLng < -180 || c.Scene.CenterLng > 180 {
		errs = append(errs, fmt.Sprintf("scene.center_lng must be -180..180, got %g", c.Scene.CenterLng))
	}
	if c.Scene.Zoom < 0 || c.Scene.Zoom > 22 {
		errs = append(errs, fmt.Sprintf("scene.zoom must be 0-22, got %d", c.Scene.Zoom))
	}
	if c.Scene.SessionTTL <= 0 {
		errs = append(errs, "scene.session_ttl must be positive")
	}
	if c.Cluster.RadiusPx <= 0 {
		errs = append(errs, "cluster.radius_px must be positive")
	}
	if c.Cluster.MinPoints < 2 {
		errs = append(errs, "cluster.min_points must be at least 2")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
