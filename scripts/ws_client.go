// Package main runs a demo WebSocket client for shipment tracking: it
// subscribes to an order's event stream, posts a signed webhook for that
// order, and prints what arrives.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"shopgate/internal/shiprocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	secret := os.Getenv("WEBHOOK_SECRET")
	base := fmt.Sprintf("http://localhost:%s", port)
	orderID := fmt.Sprintf("ORD-%d", time.Now().UnixMilli())
	log.Printf("Order ID: %s", orderID)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/api/track/ws", RawQuery: "orderId=" + orderID}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m map[string]any
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			b, _ := json.Marshal(m)
			log.Printf("WS <- %s", string(b))
		}
	}()

	// Post a signed webhook for this order
	time.Sleep(500 * time.Millisecond)
	body, _ := json.Marshal(map[string]any{
		"order_id":       orderID,
		"awb":            "AWB-DEMO-1",
		"current_status": "Out For Delivery",
	})
	req, _ := http.NewRequest(http.MethodPost, base+"/webhook/shiprocket", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shiprocket.SignatureHeader, shiprocket.Sign(secret, body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("webhook: %s", resp.Status)
	_ = resp.Body.Close()

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
