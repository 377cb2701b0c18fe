package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"shopgate/internal/api"
	"shopgate/internal/config"
	"shopgate/internal/metrics"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	srv, err := api.NewServer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to init server")
	}
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Storefront API
	mux.HandleFunc("/api/upload", srv.UploadHandler)
	mux.HandleFunc("/api/create-payment", srv.CreatePaymentHandler)
	mux.HandleFunc("/api/payment-status", srv.PaymentStatusHandler)
	mux.HandleFunc("/api/create-order", srv.CreateOrderHandler)
	mux.HandleFunc("/api/send-invoice", srv.SendInvoiceHandler)

	// Shipment tracking
	mux.HandleFunc("/webhook/shiprocket", srv.WebhookHandler)
	mux.HandleFunc("/api/orders/", srv.OrderEventsHandler) // includes /events and /events/stream
	mux.HandleFunc("/api/track/ws", srv.TrackWSHandler)

	// Health and ops
	mux.HandleFunc("/", srv.RootHandler)
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)
	mux.HandleFunc("/debug", srv.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Docs
	mux.HandleFunc("/openapi.yaml", srv.OpenAPIHandler)
	mux.HandleFunc("/docs", srv.DocsHandler)

	handler := api.LogMiddleware(
		api.CORSMiddleware(cfg.AllowOrigins,
			api.RateLimitMiddleware(cfg.RateRPS, cfg.RateBurst, mux)))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logrus.WithField("addr", httpSrv.Addr).Info("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Fatal("server error")
	}
}
