package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Env         string `yaml:"env"`
		BaseURL     string `yaml:"base_url"`     // public URL of this API, used for webhooks
		FrontendURL string `yaml:"frontend_url"` // SPA URL, used in emails and payment return
		CORSOrigins string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	JWT struct {
		Secret          string `yaml:"secret"`
		AccessTTLMin    int    `yaml:"access_ttl_minutes"`
		RefreshTTLHours int    `yaml:"refresh_ttl_hours"`
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
	} `yaml:"email"`

	SMS struct {
		APIURL string `yaml:"api_url"`
		APIKey string `yaml:"api_key"`
		Sender string `yaml:"sender"`
	} `yaml:"sms"`

	Storage struct {
		Type       string `yaml:"type"`      // local, s3, minio
		BasePath   string `yaml:"base_path"` // local only
		BaseURL    string `yaml:"base_url"`
		Bucket     string `yaml:"bucket"`
		Region     string `yaml:"region"`
		AccessKey  string `yaml:"access_key"`
		SecretKey  string `yaml:"secret_key"`
		Endpoint   string `yaml:"endpoint"`
		UseSSL     bool   `yaml:"use_ssl"`
		PublicRead bool   `yaml:"public_read"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`
		AllowedTypes []string `yaml:"allowed_types"`
		ImageQuality int      `yaml:"image_quality"`
	} `yaml:"upload"`

	CinetPay struct {
		BaseURL    string   `yaml:"base_url"`
		APIKey     string   `yaml:"api_key"`
		SiteID     string   `yaml:"site_id"`
		SecretKey  string   `yaml:"secret_key"` // HMAC key for the x-token header
		NotifyURL  string   `yaml:"notify_url"`
		ReturnURL  string   `yaml:"return_url"`
		Currency   string   `yaml:"currency"`
		Channels   string   `yaml:"channels"`
		TimeoutSec int      `yaml:"timeout_seconds"`
		Lang       string   `yaml:"lang"`
		Methods    []string `yaml:"methods"`
	} `yaml:"cinetpay"`

	Subscriptions struct {
		Plans        []Plan `yaml:"plans"`
		ExpiryCron   string `yaml:"expiry_cron"`
		ReminderDays int    `yaml:"reminder_days"`
	} `yaml:"subscriptions"`

	Marketplace struct {
		ReportThreshold     int  `yaml:"report_threshold"`
		MaxImages           int  `yaml:"max_images"`
		RequireSubscription bool `yaml:"require_subscription"`
		CacheTTLSeconds     int  `yaml:"cache_ttl_seconds"`
	} `yaml:"marketplace"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// Default returns a configuration usable for local development.
func Default() *Config {
	var cfg Config

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 5000
	cfg.Server.Env = "development"
	cfg.Server.BaseURL = "http://localhost:5000"
	cfg.Server.FrontendURL = "http://localhost:3000"
	cfg.Server.CORSOrigins = "*"

	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = "host=localhost user=postgres password=postgres dbname=businessconnect port=5432 sslmode=disable"

	cfg.Mongo.Database = "businessconnect"

	cfg.JWT.AccessTTLMin = 60
	cfg.JWT.RefreshTTLHours = 24 * 7

	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = "no-reply@businessconnect.sn"
	cfg.Email.FromName = "BusinessConnect Sénégal"
	cfg.Email.UseTLS = true

	cfg.SMS.Sender = "BConnect"

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/uploads"

	cfg.Upload.MaxSize = 5 * 1024 * 1024
	cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png"}
	cfg.Upload.ImageQuality = 85

	cfg.CinetPay.BaseURL = "https://api-checkout.cinetpay.com/v2"
	cfg.CinetPay.Currency = "XOF"
	cfg.CinetPay.Channels = "ALL"
	cfg.CinetPay.TimeoutSec = 15
	cfg.CinetPay.Lang = "fr"

	cfg.Subscriptions.Plans = DefaultPlans()
	cfg.Subscriptions.ExpiryCron = "@every 1h"
	cfg.Subscriptions.ReminderDays = 3

	cfg.Marketplace.ReportThreshold = 5
	cfg.Marketplace.MaxImages = 5
	cfg.Marketplace.RequireSubscription = true
	cfg.Marketplace.CacheTTLSeconds = 600

	return &cfg
}

// LoadConfig reads .env, the YAML file and environment overrides into AppConfig.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	if err := cfg.loadFile(configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
		log.Printf("Config file %s not found, using defaults + environment", configPath)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	AppConfig = cfg
	return cfg
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return yaml.NewDecoder(f).Decode(c)
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("SERVER_ENV", &c.Server.Env)
	setInt("SERVER_PORT", &c.Server.Port)
	setString("SERVER_BASE_URL", &c.Server.BaseURL)
	setString("FRONTEND_URL", &c.Server.FrontendURL)
	setString("DATABASE_DRIVER", &c.Database.Driver)
	setString("DATABASE_URL", &c.Database.DSN)
	setString("REDIS_ADDR", &c.Redis.Addr)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setString("MONGO_URI", &c.Mongo.URI)
	setString("MONGO_DATABASE", &c.Mongo.Database)
	setString("NATS_URL", &c.NATS.URL)
	setString("JWT_SECRET", &c.JWT.Secret)
	setString("SMTP_HOST", &c.Email.SMTPHost)
	setInt("SMTP_PORT", &c.Email.SMTPPort)
	setString("SMTP_USER", &c.Email.SMTPUsername)
	setString("SMTP_PASSWORD", &c.Email.SMTPPassword)
	setString("SMS_API_URL", &c.SMS.APIURL)
	setString("SMS_API_KEY", &c.SMS.APIKey)
	setString("CINETPAY_API_KEY", &c.CinetPay.APIKey)
	setString("CINETPAY_SITE_ID", &c.CinetPay.SiteID)
	setString("CINETPAY_SECRET_KEY", &c.CinetPay.SecretKey)
	setString("FIRST_ADMIN_EMAIL", &c.FirstAdminEmail)
	setString("FIRST_ADMIN_PASSWORD", &c.FirstAdminPassword)

	if c.CinetPay.NotifyURL == "" {
		c.CinetPay.NotifyURL = strings.TrimRight(c.Server.BaseURL, "/") + "/api/subscriptions/webhook"
	}
	if c.CinetPay.ReturnURL == "" {
		c.CinetPay.ReturnURL = strings.TrimRight(c.Server.FrontendURL, "/") + "/subscription/return"
	}
}

// Validate checks the settings the application cannot run without.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWT.Secret == "" || len(c.JWT.Secret) < 32) {
		return errors.New("jwt.secret must be at least 32 characters in production")
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = "dev-secret-change-me"
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if len(c.Subscriptions.Plans) == 0 {
		return errors.New("at least one subscription plan is required")
	}
	seen := make(map[string]bool)
	for _, p := range c.Subscriptions.Plans {
		if p.ID == "" {
			return errors.New("subscription plan id is required")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate subscription plan id: %s", p.ID)
		}
		seen[p.ID] = true
		// CinetPay rejects XOF amounts that are not multiples of 5
		if p.Price <= 0 || int64(p.Price)%5 != 0 {
			return fmt.Errorf("plan %s: price must be a positive multiple of 5", p.ID)
		}
		if p.DurationDays <= 0 {
			return fmt.Errorf("plan %s: duration_days must be positive", p.ID)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
