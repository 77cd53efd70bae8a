package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/tracer"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	GRPC        GRPCConfig        `mapstructure:"grpc"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Redis       RedisConfig       `mapstructure:"redis"`
	NATS        NATSConfig        `mapstructure:"nats"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	Media       MediaConfig       `mapstructure:"media"`
	Lookup      LookupConfig      `mapstructure:"lookup"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	Logger      logger.Config     `mapstructure:"logger"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Tracing     tracer.Config     `mapstructure:"tracing"`
	Session     SessionConfig     `mapstructure:"session"`
	Cart        CartConfig        `mapstructure:"cart"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type GRPCConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type MediaConfig struct {
	MaxConcurrentUploads int    `mapstructure:"max_concurrent_uploads"`
	MaxFileBytes         int64  `mapstructure:"max_file_bytes"`
	StagingDir           string `mapstructure:"staging_dir"`
	PublicBaseURL        string `mapstructure:"public_base_url"`
}

type LookupConfig struct {
	OpenLibraryURL string        `mapstructure:"open_library_url"`
	NominatimURL   string        `mapstructure:"nominatim_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	AdminRole string `mapstructure:"admin_role"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type CartConfig struct {
	DeviceTTL    time.Duration `mapstructure:"device_ttl"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

type MarketplaceConfig struct {
	PageSize     int           `mapstructure:"page_size"`
	FeaturedSize int           `mapstructure:"featured_size"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

const insecureJWTSecret = "change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.max_upload_bytes", 32<<20)

	v.SetDefault("grpc.port", "50061")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "bookmarket")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.max_pool_size", 100)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.connect_timeout", "5s")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.bucket", "listing-photos")
	v.SetDefault("minio.use_ssl", false)

	v.SetDefault("media.max_concurrent_uploads", 4)
	v.SetDefault("media.max_file_bytes", 5<<20)
	v.SetDefault("media.staging_dir", "./var/staging")
	v.SetDefault("media.public_base_url", "http://localhost:8080")

	v.SetDefault("lookup.open_library_url", "https://openlibrary.org")
	v.SetDefault("lookup.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("lookup.user_agent", "bookmarket/1.0")
	v.SetDefault("lookup.timeout", "5s")

	v.SetDefault("jwt.secret", insecureJWTSecret)
	v.SetDefault("jwt.admin_role", "admin")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "noreply@bookmarket.local")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output_file", "stdout")

	v.SetDefault("metrics.namespace", "bookmarket")

	v.SetDefault("tracing.service_name", "bookmarket")
	v.SetDefault("tracing.otlp_endpoint", "")

	v.SetDefault("session.ttl", "2h")

	v.SetDefault("cart.device_ttl", "720h")
	v.SetDefault("cart.sync_interval", "2s")

	v.SetDefault("marketplace.page_size", 20)
	v.SetDefault("marketplace.featured_size", 4)
	v.SetDefault("marketplace.cache_ttl", "1h")
	v.SetDefault("marketplace.query_timeout", "10s")
}

// Load reads config.yaml from path (a file or a directory) when present,
// then a .env file, then BOOKMARKET_* environment variables, e.g.
// BOOKMARKET_MONGO_URI.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: could not read .env: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	if fi, err := os.Stat(path); path != "" && err == nil {
		if fi.IsDir() {
			v.AddConfigPath(path)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		} else {
			v.SetConfigFile(path)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BOOKMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return errors.New("config: mongo.uri and mongo.database are required")
	}
	if c.Media.MaxConcurrentUploads <= 0 {
		return errors.New("config: media.max_concurrent_uploads must be positive")
	}
	if c.Marketplace.PageSize <= 0 || c.Marketplace.FeaturedSize <= 0 {
		return errors.New("config: marketplace page sizes must be positive")
	}
	return nil
}

// InsecureJWTSecret reports whether the signing secret is still the default.
func (c *Config) InsecureJWTSecret() bool {
	return c.JWT.Secret == "" || c.JWT.Secret == insecureJWTSecret
}
