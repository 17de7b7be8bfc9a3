package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

const (
	// EnvProduction suppresses internal error details in responses.
	EnvProduction = "production"
	// EnvDevelopment is the default environment.
	EnvDevelopment = "development"

	defaultJWTSecret = "change-me"
)

var (
	ErrMissingJWTSecret = errors.New("jwt secret must be set")
	ErrDefaultJWTSecret = errors.New("jwt secret must be changed in production")
	ErrUnknownDriver    = errors.New("unknown storage driver")
	ErrMissingPort      = errors.New("server port must be set")
	ErrInvalidProxy     = errors.New("invalid trusted proxy range")
)

// Config holds application level configuration. It is built once in main
// and handed to every component that needs it.
type Config struct {
	App       App       `envPrefix:"APP_" yaml:"app"`
	Storage   Storage   `yaml:"storage"`
	Redis     Redis     `envPrefix:"REDIS_" yaml:"redis"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_" yaml:"rate_limit"`
	HTTP      HTTP      `envPrefix:"HTTP_" yaml:"http"`
	MinIO     MinIO     `envPrefix:"MINIO_" yaml:"minio"`

	SwaggerHost string `env:"SWAGGER_HOST" yaml:"swagger_host"`

	// File is an optional YAML file whose values fill in whatever the
	// environment left unset.
	File string `env:"CONFIG_FILE" yaml:"-"`
}

// App holds service-wide settings.
type App struct {
	Env       string        `env:"ENV" yaml:"env"`
	Port      string        `env:"PORT" yaml:"port"`
	JWTSecret string        `env:"JWT_SECRET" yaml:"jwt_secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" yaml:"token_ttl"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Driver        string `env:"STORAGE_DRIVER" yaml:"driver"`
	MongoURI      string `env:"MONGODB_URI" yaml:"mongodb_uri"`
	MongoDatabase string `env:"MONGODB_DATABASE" yaml:"mongodb_database"`
	MySQLDSN      string `env:"MYSQL_DSN" yaml:"mysql_dsn"`
	SQLitePath    string `env:"SQLITE_PATH" yaml:"sqlite_path"`
}

// Redis configures the cache used for profiles, token revocation and rate windows.
// An empty Addr disables Redis.
type Redis struct {
	Addr     string `env:"ADDR" yaml:"addr"`
	Password string `env:"PASSWORD" yaml:"password"`
	DB       int    `env:"DB" yaml:"db"`
}

// RateLimit configures the per-address request throttles.
type RateLimit struct {
	Disabled bool          `env:"DISABLED" yaml:"disabled"`
	Window   time.Duration `env:"WINDOW" yaml:"window"`
	Max      int           `env:"MAX" yaml:"max"`
	AuthMax  int           `env:"AUTH_MAX" yaml:"auth_max"`
}

// HTTP holds transport level settings.
type HTTP struct {
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," yaml:"cors_origins"`
	BodyLimit   string   `env:"BODY_LIMIT" yaml:"body_limit"`
	// TrustedProxies lists the CIDR ranges allowed to set X-Forwarded-For.
	// When empty the client address is always the socket peer.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," yaml:"trusted_proxies"`
}

// ProxyRanges parses TrustedProxies. A bare IP is treated as a single host.
func (h HTTP) ProxyRanges() ([]*net.IPNet, error) {
	ranges := make([]*net.IPNet, 0, len(h.TrustedProxies))
	for _, raw := range h.TrustedProxies {
		if ip := net.ParseIP(raw); ip != nil {
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, raw)
		}
		ranges = append(ranges, ipNet)
	}
	return ranges, nil
}

// MinIO configures attachment uploads. Uploads are disabled when Endpoint is empty.
type MinIO struct {
	Endpoint  string `env:"ENDPOINT" yaml:"endpoint"`
	AccessKey string `env:"ACCESS_KEY" yaml:"access_key"`
	SecretKey string `env:"SECRET_KEY" yaml:"secret_key"`
	Bucket    string `env:"BUCKET" yaml:"bucket"`
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`
	UseSSL    bool   `env:"USE_SSL" yaml:"use_ssl"`
}

// Default returns the configuration used for anything not set elsewhere.
func Default() *Config {
	return &Config{
		App: App{
			Env:       EnvDevelopment,
			Port:      "5000",
			JWTSecret: defaultJWTSecret,
			TokenTTL:  7 * 24 * time.Hour,
		},
		Storage: Storage{
			Driver:        DriverMongo,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "diarydesk",
			MySQLDSN:      "user:password@tcp(localhost:3306)/diarydesk?charset=utf8mb4&parseTime=True&loc=UTC",
			SQLitePath:    "diarydesk.db",
		},
		RateLimit: RateLimit{
			Window:  15 * time.Minute,
			Max:     1000,
			AuthMax: 100,
		},
		HTTP: HTTP{
			CORSOrigins: []string{"*"},
			BodyLimit:   "10M",
		},
		MinIO: MinIO{
			Bucket: "diarydesk",
		},
	}
}

// Load builds Config from the environment, then the optional YAML file, then
// defaults. Earlier sources win.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.File != "" {
		fileCfg, err := parseYAML(cfg.File)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(cfg, fileCfg); err != nil {
			return nil, fmt.Errorf("merge config file: %w", err)
		}
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}

	return cfg, cfg.Validate()
}

func parseYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	return &cfg, nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return ErrMissingPort
	}
	if c.App.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.IsProduction() && c.App.JWTSecret == defaultJWTSecret {
		return ErrDefaultJWTSecret
	}
	switch c.Storage.Driver {
	case DriverMongo, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	if _, err := c.HTTP.ProxyRanges(); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether internal error details must be hidden.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// UploadsEnabled reports whether object storage is configured.
func (c *Config) UploadsEnabled() bool {
	return c.MinIO.Endpoint != ""
}
