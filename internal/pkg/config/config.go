package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	App       AppConfig       `mapstructure:"app"`
	OSS       OSSConfig       `mapstructure:"oss"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Upload    UploadConfig    `mapstructure:"upload"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Push      PushConfig      `mapstructure:"push"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Blog      BlogConfig      `mapstructure:"blog"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	PublicURL   string   `mapstructure:"public_url"` // 对外访问地址，用于拼接图片 URL
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int64  `mapstructure:"expire"` // 小时
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
}

type StorageConfig struct {
	Driver    string `mapstructure:"driver"`     // oss | memory
	Prefix    string `mapstructure:"prefix"`     // 对象 key 前缀
	SignedTTL int64  `mapstructure:"signed_ttl"` // 签名 URL 有效期（秒）
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type OAuthConfig struct {
	GitHub          GitHubOAuthConfig `mapstructure:"github"`
	SuccessRedirect string            `mapstructure:"success_redirect"` // 登录成功后跳转，空则返回 JSON
}

type GitHubOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type PushConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	AppKey          int64  `mapstructure:"app_key"`
	RegionID        string `mapstructure:"region_id"` // e.g., "cn-hangzhou"
	Workers         int    `mapstructure:"workers"`
}

type CacheConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	TTL     int64 `mapstructure:"ttl"` // 秒
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type BlogConfig struct {
	Categories []CategoryConfig `mapstructure:"categories"`
}

type CategoryConfig struct {
	Value string `mapstructure:"value"`
	Label string `mapstructure:"label"`
}

var GlobalConfig Config

// Validate 验证配置
func (c *Config) Validate() error {
	// JWT 配置验证
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}

	// 数据库配置验证
	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return errors.New("database configuration is incomplete")
	}

	if c.Redis.Addr == "" {
		return errors.New("redis address is required")
	}

	// 第三方登录是唯一的登录方式
	if c.OAuth.GitHub.ClientID == "" || c.OAuth.GitHub.ClientSecret == "" {
		return errors.New("github oauth client id and secret are required")
	}

	switch c.Storage.Driver {
	case "oss":
		if c.OSS.Endpoint == "" || c.OSS.BucketName == "" {
			return errors.New("oss endpoint and bucket are required for the oss storage driver")
		}
	case "memory":
	default:
		return errors.New("storage driver must be oss or memory")
	}

	if len(c.Blog.Categories) == 0 {
		return errors.New("at least one blog category is required")
	}

	return nil
}

// PushEnabled 推送配置是否完整
func (c *Config) PushEnabled() bool {
	return c.Push.AccessKeyID != "" && c.Push.AppKey != 0
}

// DSN postgres 连接串 (URL 形式，migrate 和 sqlx 共用)
func (c DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.public_url", "http://localhost:8080")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.timezone", "UTC")
	viper.SetDefault("jwt.expire", 24*30)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("app.env", "dev")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("storage.driver", "oss")
	viper.SetDefault("storage.prefix", "blog")
	viper.SetDefault("storage.signed_ttl", 3600)
	viper.SetDefault("upload.max_bytes", 1000000)
	viper.SetDefault("push.workers", 2)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", 60)
	viper.SetDefault("rate_limit.qps", 20)
	viper.SetDefault("rate_limit.burst", 40)
	viper.SetDefault("blog.categories", []map[string]string{
		{"value": "application", "label": "Application"},
		{"value": "data", "label": "Data"},
		{"value": "software", "label": "Software"},
		{"value": "technology", "label": "Technology"},
		{"value": "science", "label": "Science"},
	})
}

// LoadConfig 加载并校验配置，失败直接退出
func LoadConfig() {
	ReadConfig()

	// 验证配置
	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Configuration loaded and validated successfully. Environment: %s", GlobalConfig.App.Env)
}

// ReadConfig 只读取配置不做校验，迁移等离线工具使用
func ReadConfig() {
	// 本地开发时从 .env 注入环境变量，文件不存在不影响启动
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// 获取环境变量，默认为dev
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 根据环境选择配置文件
	configName := "config"
	if env != "dev" {
		configName = "config." + env
	}

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults or env vars: %v", err)
	}

	// 绑定环境变量，例如 DATABASE_HOST -> database.host
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// 手动覆盖，以防 viper 无法正确解析复杂结构或环境变量
	if host := os.Getenv("DB_HOST"); host != "" {
		GlobalConfig.Database.Host = host
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		GlobalConfig.Redis.Addr = redisAddr
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		GlobalConfig.JWT.Secret = jwtSecret
	}
	if id := os.Getenv("GITHUB_CLIENT_ID"); id != "" {
		GlobalConfig.OAuth.GitHub.ClientID = id
	}
	if secret := os.Getenv("GITHUB_CLIENT_SECRET"); secret != "" {
		GlobalConfig.OAuth.GitHub.ClientSecret = secret
	}
}
