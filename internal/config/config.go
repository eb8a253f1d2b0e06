package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/weiawesome/wes-blog/internal/media"
	pkgconfig "github.com/weiawesome/wes-blog/pkg/config"
	"github.com/weiawesome/wes-blog/pkg/database"
	"github.com/weiawesome/wes-blog/pkg/pubsub"
	"github.com/weiawesome/wes-blog/pkg/storage"
)

// Config holds all configuration for the blog service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  database.Config `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	FeedCache FeedCacheConfig `mapstructure:"feed_cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Media     media.Config    `mapstructure:"media"`
	Events    pubsub.Config   `mapstructure:"events"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RedisConfig is shared by the redis feed cache and the redis event driver.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FeedCacheConfig selects where global feed pages are cached.
type FeedCacheConfig struct {
	Driver string        `mapstructure:"driver"` // "memory" or "redis"
	TTL    time.Duration `mapstructure:"-"`
	Prefix string        `mapstructure:"prefix"`
}

// StorageConfig holds media storage backend configuration.
type StorageConfig struct {
	Type  string              `mapstructure:"type"` // "local" or "s3"
	Local storage.LocalConfig `mapstructure:"local"`
	S3    storage.S3Config    `mapstructure:"s3"`
}

// AuthConfig holds token validation settings. Tokens are issued by an
// external identity provider sharing the HS256 secret.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	LoginURL       string        `mapstructure:"login_url"`
	AccessDuration time.Duration `mapstructure:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads ./config/config.yaml and the environment.
func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom reads config.yaml from configPath and the environment.
func LoadFrom(configPath string) (*Config, error) {
	v, err := pkgconfig.Load(configPath, "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "blog")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.file_path", "./data/blog.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("feed_cache.driver", "memory")
	v.SetDefault("feed_cache.ttl", "20s")
	v.SetDefault("feed_cache.prefix", "blog")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.base_path", "./data/media")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("media.max_size", 5<<20)
	v.SetDefault("media.thumbnail_width", 960)
	v.SetDefault("media.thumbnail_height", 339)
	v.SetDefault("media.jpeg_quality", 85)
	v.SetDefault("media.key_prefix", "posts/")
	v.SetDefault("events.driver", "none")
	v.SetDefault("events.kafka.brokers", "localhost:9092")
	v.SetDefault("events.kafka.partitions", 3)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.login_url", "/login")
	v.SetDefault("auth.access_duration", "15m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("feed_cache.driver", "FEED_CACHE_DRIVER")
	v.BindEnv("feed_cache.ttl", "FEED_CACHE_TTL")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.local.base_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.issuer", "JWT_ISSUER")
	v.BindEnv("auth.login_url", "LOGIN_URL")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.FeedCache.TTL = parseDuration(v, "feed_cache.ttl", 20*time.Second)
	cfg.Auth.AccessDuration = parseDuration(v, "auth.access_duration", 15*time.Minute)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
