// Package api implements HTTP handlers and helpers for the shopgate service.
package api

import (
	"strings"

	"github.com/sirupsen/logrus"

	"shopgate/internal/config"
	"shopgate/internal/mailer"
	"shopgate/internal/phonepe"
	"shopgate/internal/shiprocket"
	"shopgate/internal/store"
	"shopgate/internal/upload"
)

type Server struct {
	Cfg      *config.Config
	Store    store.Store
	Broker   EventBroker
	Uploader upload.Uploader
	Payments *phonepe.Client
	Shipping *shiprocket.Client
	Mailer   mailer.Sender
}

// NewServer wires the collaborator clients from config. With no
// DATABASE_URL the in-memory store is used; with no REDIS_URL the
// in-process broker is used.
func NewServer(cfg *config.Config) (*Server, error) {
	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = pg
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Warn("redis broker unavailable, falling back to in-memory")
			broker = NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = NewBroker()
	}

	s := &Server{
		Cfg:      cfg,
		Store:    st,
		Broker:   broker,
		Payments: phonepe.NewClient(cfg.PhonePe.BaseURL, cfg.PhonePe.ClientID, cfg.PhonePe.ClientSecret, cfg.PhonePe.ClientVersion),
		Shipping: shiprocket.NewClient(cfg.Shiprocket.BaseURL, cfg.Shiprocket.Email, cfg.Shiprocket.Password),
	}

	if cfg.Cloudinary.CloudName != "" {
		up, err := upload.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if err != nil {
			return nil, err
		}
		s.Uploader = up
	}
	if cfg.Email.Host != "" {
		s.Mailer = mailer.NewSMTP(cfg.Email.Host, cfg.Email.Port, cfg.Email.User, cfg.Email.Pass, cfg.Email.From)
	}
	return s, nil
}
