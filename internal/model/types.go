package model

import "time"

// Order is the upstream order record an invoice is rendered from.
// It is produced by the storefront and read-only here.
type Order struct {
	ID           string      `json:"id"`
	CreatedAt    time.Time   `json:"createdAt"`
	Address      Address     `json:"address"`
	Items        []OrderItem `json:"items"`
	Subtotal     float64     `json:"subtotal"`
	ShippingCost float64     `json:"shippingCost"`
	Total        float64     `json:"total"`
}

type Address struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Sale     float64 `json:"sale"` // unit price
}

// PaymentSession correlates a created checkout session with later status
// polls. The gateway owns the authoritative state; this record exists for
// observability only.
type PaymentSession struct {
	TransactionID string            `json:"transactionId"`
	Amount        float64           `json:"amount"`
	RedirectURL   string            `json:"redirectUrl"` // merchant redirect with the transaction id embedded
	MetaInfo      map[string]string `json:"metaInfo,omitempty"`
	State         string            `json:"state"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// ShipmentEvent is one verified webhook callback from the shipping
// collaborator, kept as received.
type ShipmentEvent struct {
	ID         string         `json:"id"`
	OrderID    string         `json:"orderId"`
	AWB        string         `json:"awb,omitempty"`
	Status     string         `json:"status,omitempty"`
	Payload    map[string]any `json:"payload"`
	ReceivedAt time.Time      `json:"receivedAt"`
}

// CreatePaymentRequest is the POST /api/create-payment body.
type CreatePaymentRequest struct {
	Amount        float64 `json:"amount"`
	CustomerPhone string  `json:"customerPhone"`
	CustomerName  string  `json:"customerName"`
}

// PaymentStatusRequest is the POST /api/payment-status body.
type PaymentStatusRequest struct {
	TransactionID string `json:"transactionId"`
}

// SendInvoiceRequest is the POST /api/send-invoice body.
type SendInvoiceRequest struct {
	Email string `json:"email"`
	Order Order  `json:"order"`
}
