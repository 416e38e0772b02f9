package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	pkgconfig "github.com/weiawesome/duochat/pkg/config"
	"github.com/weiawesome/duochat/pkg/database"
	"github.com/weiawesome/duochat/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
	Upload    UploadConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	FilePath        string        `mapstructure:"file_path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessDuration time.Duration `mapstructure:"access_duration"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type UploadConfig struct {
	Driver     string
	BasePath   string `mapstructure:"base_path"`
	PublicURL  string `mapstructure:"public_url"`
	MaxSize    int64  `mapstructure:"max_size"`
	AvatarSize int    `mapstructure:"avatar_size"`
	S3         storage.S3Config
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Enabled bool
	Limit   uint
	Window  time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom reads config.yaml from dir, applying defaults and environment overrides.
func LoadFrom(dir string) (*Config, error) {
	v, err := pkgconfig.Load(dir, "config")
	if err != nil {
		return nil, err
	}

	setDefaults(v)

	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("upload.driver", "UPLOAD_DRIVER")
	v.BindEnv("upload.base_path", "UPLOAD_DIR")
	v.BindEnv("upload.public_url", "UPLOAD_PUBLIC_URL")
	v.BindEnv("upload.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("upload.s3.bucket", "S3_BUCKET")
	v.BindEnv("upload.s3.region", "S3_REGION")
	v.BindEnv("upload.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("upload.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Server.ShutdownTimeout = parseDuration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.Database.ConnMaxLifetime = parseDuration(v, "database.conn_max_lifetime", 30*time.Minute)
	cfg.JWT.AccessDuration = parseDuration(v, "jwt.access_duration", 24*time.Hour)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Redis.TTL = parseDuration(v, "redis.ttl", 5*time.Minute)
	cfg.RateLimit.Window = parseDuration(v, "rate_limit.window", time.Second)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "duochat")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "duochat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "duochat.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "silent")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "duochat")
	v.SetDefault("jwt.access_duration", "24h")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("upload.driver", "local")
	v.SetDefault("upload.base_path", "./uploads")
	v.SetDefault("upload.public_url", "/uploads")
	v.SetDefault("upload.max_size", 10<<20)
	v.SetDefault("upload.avatar_size", 256)
	v.SetDefault("upload.s3.region", "us-east-1")
	v.SetDefault("upload.s3.use_path_style", true)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "duochat")
	v.SetDefault("redis.ttl", "5m")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 100)
	v.SetDefault("rate_limit.window", "1s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// DatabaseOptions converts the database section to pkg/database options.
func (c *Config) DatabaseOptions() *database.Config {
	return &database.Config{
		Driver:          c.Database.Driver,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		DBName:          c.Database.DBName,
		SSLMode:         c.Database.SSLMode,
		FilePath:        c.Database.FilePath,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		LogLevel:        c.Database.LogLevel,
	}
}

// StorageOptions converts the upload section to pkg/storage options.
func (c *Config) StorageOptions() storage.Config {
	return storage.Config{
		Driver:    c.Upload.Driver,
		PublicURL: c.Upload.PublicURL,
		Local:     storage.LocalConfig{BasePath: c.Upload.BasePath},
		S3:        c.Upload.S3,
	}
}

// Origins splits the comma separated CORS origin list.
func (c *CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	return pkgconfig.Duration(v.GetString(key), defaultVal)
}
