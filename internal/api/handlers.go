package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"shopgate/internal/invoice"
	"shopgate/internal/metrics"
	"shopgate/internal/model"
	"shopgate/internal/phonepe"
	"shopgate/internal/shiprocket"
)

const internalErrorMessage = "An internal server error occurred."

// RootHandler answers the liveness check on GET /.
func (s *Server) RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not Found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sasha Store backend is running."})
}

// UploadHandler handles POST /api/upload: one multipart file under "image".
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeFail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	if s.Uploader == nil {
		writeFail(w, http.StatusInternalServerError, "Image storage is not configured")
		return
	}
	res, err := s.Uploader.Upload(r.Context(), file, header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("cloudinary", "error").Inc()
		logrus.WithError(err).Error("upload failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Error uploading file",
			"error":   err.Error(),
		})
		return
	}
	metrics.CollaboratorCalls.WithLabelValues("cloudinary", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Image uploaded successfully!",
		"data":    res,
	})
}

// CreatePaymentHandler handles POST /api/create-payment.
func (s *Server) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Amount <= 0 || req.CustomerPhone == "" || req.CustomerName == "" {
		writeFail(w, http.StatusBadRequest, "amount, customerPhone and customerName are required")
		return
	}

	txn := "TXN_" + uuid.New().String()
	redirect := fmt.Sprintf("%s?transactionId=%s", s.Cfg.PhonePe.RedirectURL, txn)
	session := model.PaymentSession{
		TransactionID: txn,
		Amount:        req.Amount,
		RedirectURL:   redirect,
		MetaInfo:      map[string]string{"udf1": req.CustomerName, "udf2": req.CustomerPhone},
		State:         "PENDING",
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Store.SavePaymentSession(r.Context(), session); err != nil {
		logrus.WithError(err).Warn("could not record payment session")
	}

	resp, err := s.Payments.CreatePayment(r.Context(), phonepe.CreateRequest{
		MerchantOrderID: txn,
		AmountPaise:     int64(math.Round(req.Amount * 100)),
		RedirectURL:     redirect,
		MetaInfo:        session.MetaInfo,
	})
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("phonepe", "error").Inc()
		var gw *phonepe.GatewayError
		if errors.As(err, &gw) {
			msg := "Failed to create payment session"
			if gw.Message != "" {
				msg = gw.Message
			}
			writeFail(w, http.StatusInternalServerError, msg)
			return
		}
		logrus.WithError(err).Error("create payment failed")
		writeFail(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	metrics.CollaboratorCalls.WithLabelValues("phonepe", "ok").Inc()
	if resp.State != "" {
		_ = s.Store.UpdatePaymentState(r.Context(), txn, resp.State)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"transactionId": txn,
		"redirectUrl":   resp.RedirectURL,
	})
}

// PaymentStatusHandler handles POST /api/payment-status.
func (s *Server) PaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.PaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.TransactionID == "" {
		writeFail(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	data, err := s.Payments.OrderStatus(r.Context(), req.TransactionID)
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("phonepe", "error").Inc()
		var gw *phonepe.GatewayError
		if errors.As(err, &gw) {
			msg := "Failed to fetch payment status"
			if gw.Message != "" {
				msg = gw.Message
			}
			writeFail(w, http.StatusInternalServerError, msg)
			return
		}
		logrus.WithError(err).Error("payment status failed")
		writeFail(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	metrics.CollaboratorCalls.WithLabelValues("phonepe", "ok").Inc()
	if state, ok := data["state"].(string); ok && state != "" {
		_ = s.Store.UpdatePaymentState(r.Context(), req.TransactionID, state)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// CreateOrderHandler handles POST /api/create-order: pushes the order to
// Shiprocket for fulfillment, filling order_id/order_date when absent.
func (s *Server) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, internalErrorMessage, nil)
		return
	}
	var order map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &order); err != nil {
			writeError(w, http.StatusBadRequest, "Order data is missing or empty in the request body.", nil)
			return
		}
	}
	if len(order) == 0 {
		writeError(w, http.StatusBadRequest, "Order data is missing or empty in the request body.", nil)
		return
	}

	status, data, err := s.Shipping.CreateOrder(r.Context(), order)
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("shiprocket", "error").Inc()
		if errors.Is(err, shiprocket.ErrAuth) {
			writeError(w, http.StatusInternalServerError, "Could not authenticate with Shiprocket.", nil)
			return
		}
		logrus.WithError(err).Error("create order failed")
		writeError(w, http.StatusInternalServerError, internalErrorMessage, nil)
		return
	}
	if status < 200 || status >= 300 {
		metrics.CollaboratorCalls.WithLabelValues("shiprocket", "rejected").Inc()
		writeError(w, status, "Failed to create order.", data)
		return
	}
	metrics.CollaboratorCalls.WithLabelValues("shiprocket", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order created successfully in Shiprocket!",
		"data":    data,
	})
}

// WebhookHandler handles POST /webhook/shiprocket. The signature is
// verified over the raw received bytes before anything is parsed.
func (s *Server) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "An error occurred while processing the webhook.", nil)
		return
	}
	sig := r.Header.Get(shiprocket.SignatureHeader)
	switch shiprocket.VerifySignature(s.Cfg.WebhookSecret, raw, sig) {
	case shiprocket.SignatureMissing:
		metrics.WebhookSignatures.WithLabelValues("missing").Inc()
		writeError(w, http.StatusUnauthorized, "HMAC signature is missing.", nil)
		return
	case shiprocket.SignatureInvalid:
		metrics.WebhookSignatures.WithLabelValues("invalid").Inc()
		logrus.Warn("webhook HMAC verification failed")
		writeError(w, http.StatusUnauthorized, "HMAC signature verification failed.", nil)
		return
	}
	metrics.WebhookSignatures.WithLabelValues("valid").Inc()

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(w, http.StatusInternalServerError, "An error occurred while processing the webhook.", nil)
		return
	}

	evt := model.ShipmentEvent{
		OrderID: stringField(payload, "order_id", "channel_order_id"),
		AWB:     stringField(payload, "awb", "awb_code"),
		Status:  stringField(payload, "current_status", "shipment_status"),
		Payload: payload,
	}
	if _, err := s.Store.RecordShipmentEvent(r.Context(), evt); err != nil {
		logrus.WithError(err).Error("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "An error occurred while processing the webhook.", nil)
		return
	}
	if evt.OrderID != "" {
		s.Broker.Publish(evt.OrderID, Event{Type: "shipment.status", Data: map[string]any{
			"orderId": evt.OrderID,
			"awb":     evt.AWB,
			"status":  evt.Status,
			"ts":      time.Now().UTC().Format(time.RFC3339),
		}})
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Webhook received successfully."})
}

// SendInvoiceHandler handles POST /api/send-invoice: renders the invoice
// and emails it. Email delivery is best-effort; failures are logged and
// counted, never surfaced to the caller.
func (s *Server) SendInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SendInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Order.ID == "" {
		writeFail(w, http.StatusBadRequest, "email and order.id are required")
		return
	}

	pdf, err := invoice.Render(req.Order)
	if err != nil {
		logrus.WithError(err).Error("invoice render failed")
		writeFail(w, http.StatusInternalServerError, "Failed to generate invoice")
		return
	}

	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", req.Order.ID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
		return
	}

	if s.Mailer != nil {
		if err := s.Mailer.SendInvoice(req.Email, pdf, req.Order.ID); err != nil {
			metrics.InvoiceEmailFailures.Inc()
			logrus.WithError(err).WithField("orderId", req.Order.ID).Error("invoice email failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Invoice generated",
		"orderId": req.Order.ID,
	})
}

// HealthHandler answers GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler answers GET /readyz, pinging the database when one is wired.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeFail(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// stringField pulls the first present key as a string, tolerating the
// numeric ids some webhook payloads carry.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
