package phonepe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func newStub(t *testing.T, payBody map[string]any) (*httptest.Server, *int32) {
	t.Helper()
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("client_id") != "cid" || r.PostForm.Get("grant_type") != "client_credentials" {
			t.Fatalf("unexpected form: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_at":   time.Now().Add(time.Hour).Unix(),
		})
	})
	mux.HandleFunc("/checkout/v2/pay", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "O-Bearer tok-1" {
			t.Fatalf("authorization: %q", got)
		}
		_ = json.NewEncoder(w).Encode(payBody)
	})
	return httptest.NewServer(mux), &tokenCalls
}

func TestCreatePaymentSingleTokenFetch(t *testing.T) {
	srv, tokenCalls := newStub(t, map[string]any{"orderId": "OM1", "state": "PENDING", "redirectUrl": "https://pay.example/x"})
	defer srv.Close()

	c := NewClient(srv.URL, "cid", "secret", "1")
	for i := 0; i < 3; i++ {
		resp, err := c.CreatePayment(context.Background(), CreateRequest{
			MerchantOrderID: "TXN_1",
			AmountPaise:     49950,
			RedirectURL:     "http://localhost:5173/payment-status?transactionId=TXN_1",
		})
		if err != nil {
			t.Fatalf("create payment: %v", err)
		}
		if resp.RedirectURL != "https://pay.example/x" {
			t.Fatalf("redirect: %q", resp.RedirectURL)
		}
		if resp.State != "PENDING" {
			t.Fatalf("state: %q", resp.State)
		}
	}
	if n := atomic.LoadInt32(tokenCalls); n != 1 {
		t.Fatalf("expected a single token fetch, got %d", n)
	}
}

func TestCreatePaymentLegacyRedirectShape(t *testing.T) {
	srv, _ := newStub(t, map[string]any{
		"instrumentResponse": map[string]any{
			"redirectInfo": map[string]any{"url": "https://pay.example/legacy"},
		},
	})
	defer srv.Close()

	c := NewClient(srv.URL, "cid", "secret", "1")
	resp, err := c.CreatePayment(context.Background(), CreateRequest{MerchantOrderID: "TXN_1", AmountPaise: 100})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if resp.RedirectURL != "https://pay.example/legacy" {
		t.Fatalf("redirect: %q", resp.RedirectURL)
	}
}

func TestCreatePaymentNoRedirectIsGatewayError(t *testing.T) {
	srv, _ := newStub(t, map[string]any{"state": "FAILED", "message": "payment instruments unavailable"})
	defer srv.Close()

	c := NewClient(srv.URL, "cid", "secret", "1")
	_, err := c.CreatePayment(context.Background(), CreateRequest{MerchantOrderID: "TXN_1", AmountPaise: 100})
	var gw *GatewayError
	if !errors.As(err, &gw) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gw.Message != "payment instruments unavailable" {
		t.Fatalf("message: %q", gw.Message)
	}
}

func TestTokenRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "invalid client"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "cid", "bad-secret", "1")
	_, err := c.CreatePayment(context.Background(), CreateRequest{MerchantOrderID: "TXN_1", AmountPaise: 100})
	var gw *GatewayError
	if !errors.As(err, &gw) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gw.Status != http.StatusUnauthorized || gw.Message != "invalid client" {
		t.Fatalf("gateway error: %+v", gw)
	}
}

func TestOrderStatusPassthrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1"})
	})
	mux.HandleFunc("/checkout/v2/order/TXN_9/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state":  "COMPLETED",
			"amount": 49950,
			"paymentDetails": []any{
				map[string]any{"paymentMode": "UPI_QR"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "cid", "secret", "1")
	data, err := c.OrderStatus(context.Background(), "TXN_9")
	if err != nil {
		t.Fatalf("order status: %v", err)
	}
	if data["state"] != "COMPLETED" {
		t.Fatalf("state: %v", data["state"])
	}
	// the payload is passed through undigested
	if _, ok := data["paymentDetails"].([]any); !ok {
		t.Fatalf("paymentDetails lost: %+v", data)
	}
}
