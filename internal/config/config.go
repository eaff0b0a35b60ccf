package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL   string `mapstructure:"database_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPassword string `mapstructure:"redis_password"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	Port          string `mapstructure:"port"`
	WorkerCount   int    `mapstructure:"worker_count"`
	FrontendURL   string `mapstructure:"frontend_url"`

	PaymentAccessToken     string `mapstructure:"payment_access_token"`
	PaymentAPIURL          string `mapstructure:"payment_api_url"`
	PaymentWebhookSecret   string `mapstructure:"payment_webhook_secret"`
	PaymentNotificationURL string `mapstructure:"payment_notification_url"`

	B2KeyID  string `mapstructure:"b2_key_id"`
	B2AppKey string `mapstructure:"b2_app_key"`
	B2Bucket string `mapstructure:"b2_bucket"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPFrom     string `mapstructure:"smtp_from"`

	MaxUploadMB       int           `mapstructure:"max_upload_mb"`
	DashboardCacheTTL time.Duration `mapstructure:"dashboard_cache_ttl"`
}

var defaults = map[string]any{
	"database_url":             "",
	"redis_addr":               "",
	"redis_db":                 0,
	"redis_password":           "",
	"jwt_secret":               "",
	"port":                     "8080",
	"worker_count":             2,
	"frontend_url":             "http://localhost:5173",
	"payment_access_token":     "",
	"payment_api_url":          "https://api.mercadopago.com",
	"payment_webhook_secret":   "",
	"payment_notification_url": "",
	"b2_key_id":                "",
	"b2_app_key":               "",
	"b2_bucket":                "",
	"smtp_host":                "",
	"smtp_port":                587,
	"smtp_user":                "",
	"smtp_password":            "",
	"smtp_from":                "no-reply@nutriadmin.local",
	"max_upload_mb":            10,
	"dashboard_cache_ttl":      "5m",
}

var loadDotEnv = func() error { return godotenv.Load() }

// Load 讀取 .env、選用的 config.yaml 與環境變數 (環境變數優先)
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		log.Println("未找到 .env，使用環境變數")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("讀取 config.yaml 失敗: %w", err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析設定失敗: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("環境變數 DATABASE_URL 未設定")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("環境變數 REDIS_ADDR 未設定")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("環境變數 JWT_SECRET 未設定")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("無效的 WORKER_COUNT: %d", c.WorkerCount)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("無效的 MAX_UPLOAD_MB: %d", c.MaxUploadMB)
	}
	return nil
}

// Addr 監聽位址
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c *Config) PaymentEnabled() bool {
	return c.PaymentAccessToken != ""
}

func (c *Config) StorageEnabled() bool {
	return c.B2KeyID != "" && c.B2AppKey != "" && c.B2Bucket != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}
