package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig 数据库配置，DSN 前缀决定驱动（postgres:// / sqlite: / 其余按 mysql）
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置，Addr 为空时不启用（会话走内存，JWT 不缓存）
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

// RabbitMQConfig MQ 配置，URL 为空时订单事件不投递
type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig token 缓存配置
type AuthConfig struct {
	// Shards token 缓存 key 的分片前缀
	Shards []string `mapstructure:"shards"`
	// ShardPoints 每个分片的虚拟点数
	ShardPoints int `mapstructure:"shard_points"`
	// TokenCacheTTLSeconds JWT 解析结果缓存时间（秒）
	TokenCacheTTLSeconds int `mapstructure:"token_cache_ttl_seconds"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// SessionConfig 会话 cookie 配置
type SessionConfig struct {
	Cookie  string        `mapstructure:"cookie"`
	Expires time.Duration `mapstructure:"expires"`
}

// AdminConfig 启动时自动创建的默认管理员
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Config 应用总配置
type Config struct {
	Env         string         `mapstructure:"env"`
	LogLevel    string         `mapstructure:"log_level"`
	Concurrency int            `mapstructure:"concurrency"`
	UploadDir   string         `mapstructure:"upload_dir"`
	Languages   []string       `mapstructure:"languages"`
	Server      ServerConfig   `mapstructure:"server"`
	AdminServer ServerConfig   `mapstructure:"admin_server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig `mapstructure:"rabbitmq"`
	Auth        AuthConfig     `mapstructure:"auth"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Session     SessionConfig  `mapstructure:"session"`
	Admin       AdminConfig    `mapstructure:"admin"`
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DefaultLanguage 第一个语言即默认语言
func (c *Config) DefaultLanguage() string {
	if len(c.Languages) == 0 {
		return "fr"
	}
	return c.Languages[0]
}

// DefaultConfig 默认配置，方便快速跑起来
func DefaultConfig() *Config {
	return &Config{
		Env:         "development",
		LogLevel:    "info",
		Concurrency: 1,
		UploadDir:   "./uploads",
		Languages:   []string{"fr", "en", "es"},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		AdminServer: ServerConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Database: DatabaseConfig{
			DSN: "sqlite:velours_parfum.db",
		},
		Auth: AuthConfig{
			Shards:               []string{"s1", "s2", "s3"},
			ShardPoints:          64,
			TokenCacheTTLSeconds: 600,
		},
		JWT: JWTConfig{
			Secret:   "velours-secret",
			TokenTTL: 24 * time.Hour,
		},
		Session: SessionConfig{
			Cookie:  "velours_session",
			Expires: 24 * time.Hour,
		},
		Admin: AdminConfig{
			Email:    "admin@velours-parfum.com",
			Username: "admin",
			Password: "admin123",
		},
	}
}

// 平台约定的环境变量与配置键的对应关系
var envBindings = map[string]string{
	"database.dsn":      "DATABASE_URL",
	"jwt.secret":        "SECRET_KEY",
	"server.port":       "PORT",
	"admin_server.port": "ADMIN_PORT",
	"concurrency":       "WEB_CONCURRENCY",
	"redis.addr":        "REDIS_ADDR",
	"rabbitmq.url":      "RABBITMQ_URL",
	"upload_dir":        "UPLOAD_DIR",
	"log_level":         "LOG_LEVEL",
	"env":               "APP_ENV",
	"admin.email":       "DEFAULT_ADMIN_EMAIL",
	"admin.username":    "DEFAULT_ADMIN_USERNAME",
	"admin.password":    "DEFAULT_ADMIN_PASSWORD",
}

// Load 依次读取 .env、dir 下的 config.yaml（可选）与环境变量，后者优先
func Load(dir string) (*Config, error) {
	_ = godotenv.Load()

	def := DefaultConfig()
	v := viper.New()
	setDefaults(v, def)

	if dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("env", def.Env)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("upload_dir", def.UploadDir)
	v.SetDefault("languages", def.Languages)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("admin_server.host", def.AdminServer.Host)
	v.SetDefault("admin_server.port", def.AdminServer.Port)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("rabbitmq.url", def.RabbitMQ.URL)
	v.SetDefault("auth.shards", def.Auth.Shards)
	v.SetDefault("auth.shard_points", def.Auth.ShardPoints)
	v.SetDefault("auth.token_cache_ttl_seconds", def.Auth.TokenCacheTTLSeconds)
	v.SetDefault("jwt.secret", def.JWT.Secret)
	v.SetDefault("jwt.token_ttl", def.JWT.TokenTTL)
	v.SetDefault("session.cookie", def.Session.Cookie)
	v.SetDefault("session.expires", def.Session.Expires)
	v.SetDefault("admin.email", def.Admin.Email)
	v.SetDefault("admin.username", def.Admin.Username)
	v.SetDefault("admin.password", def.Admin.Password)
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.IsProduction() && c.JWT.Secret == DefaultConfig().JWT.Secret {
		return errors.New("SECRET_KEY must be set in production")
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if len(c.Languages) == 0 {
		c.Languages = DefaultConfig().Languages
	}
	return nil
}
