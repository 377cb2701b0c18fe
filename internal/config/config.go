// Package config loads service configuration from the environment.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config carries everything the server and its collaborator clients need.
type Config struct {
	Port         string
	AllowOrigins []string

	Cloudinary struct {
		CloudName string
		APIKey    string
		APISecret string
		Folder    string
	}

	PhonePe struct {
		ClientID      string
		ClientSecret  string
		ClientVersion string
		Env           string // SANDBOX or PRODUCTION
		BaseURL       string // derived from Env unless overridden
		RedirectURL   string // merchant redirect base, transaction id appended
	}

	Shiprocket struct {
		Email    string
		Password string
		BaseURL  string
	}

	WebhookSecret string

	Email struct {
		Host string
		Port int
		User string
		Pass string
		From string
	}

	DatabaseURL string
	RedisURL    string

	RateRPS   float64
	RateBurst int
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "5000")
	v.SetDefault("ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("CLOUDINARY_FOLDER", "express-uploads")
	v.SetDefault("PHONEPE_ENV", "SANDBOX")
	v.SetDefault("PHONEPE_CLIENT_VERSION", "1")
	v.SetDefault("PHONEPE_REDIRECT_URL", "http://localhost:5173/payment-status")
	v.SetDefault("SHIPROCKET_BASE_URL", "https://apiv2.shiprocket.in")
	v.SetDefault("EMAIL_PORT", 587)
	v.SetDefault("RATE_RPS", 0.0)
	v.SetDefault("RATE_BURST", 0)

	cfg := &Config{
		Port:          v.GetString("PORT"),
		AllowOrigins:  splitOrigins(v.GetString("ALLOW_ORIGINS")),
		WebhookSecret: v.GetString("WEBHOOK_SECRET"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisURL:      v.GetString("REDIS_URL"),
		RateRPS:       v.GetFloat64("RATE_RPS"),
		RateBurst:     v.GetInt("RATE_BURST"),
	}

	cfg.Cloudinary.CloudName = v.GetString("CLOUDINARY_CLOUD_NAME")
	cfg.Cloudinary.APIKey = v.GetString("CLOUDINARY_CLOUD_KEY")
	cfg.Cloudinary.APISecret = v.GetString("CLOUDINARY_CLOUD_SECRET")
	cfg.Cloudinary.Folder = v.GetString("CLOUDINARY_FOLDER")

	cfg.PhonePe.ClientID = v.GetString("PHONEPE_CLIENT_ID")
	cfg.PhonePe.ClientSecret = v.GetString("PHONEPE_CLIENT_SECRET")
	cfg.PhonePe.ClientVersion = v.GetString("PHONEPE_CLIENT_VERSION")
	cfg.PhonePe.Env = strings.ToUpper(v.GetString("PHONEPE_ENV"))
	cfg.PhonePe.BaseURL = v.GetString("PHONEPE_BASE_URL")
	if cfg.PhonePe.BaseURL == "" {
		if cfg.PhonePe.Env == "PRODUCTION" {
			cfg.PhonePe.BaseURL = "https://api.phonepe.com/apis/pg"
		} else {
			cfg.PhonePe.BaseURL = "https://api-preprod.phonepe.com/apis/pg-sandbox"
		}
	}
	cfg.PhonePe.RedirectURL = v.GetString("PHONEPE_REDIRECT_URL")

	cfg.Shiprocket.Email = v.GetString("SHIPROCKET_EMAIL")
	cfg.Shiprocket.Password = v.GetString("SHIPROCKET_PASSWORD")
	cfg.Shiprocket.BaseURL = v.GetString("SHIPROCKET_BASE_URL")

	cfg.Email.Host = v.GetString("EMAIL_HOST")
	cfg.Email.Port = v.GetInt("EMAIL_PORT")
	cfg.Email.User = v.GetString("EMAIL_USER")
	cfg.Email.Pass = v.GetString("EMAIL_PASS")
	cfg.Email.From = v.GetString("EMAIL_FROM")
	if cfg.Email.From == "" {
		cfg.Email.From = "no-reply@sashastore.in"
	}

	return cfg
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
