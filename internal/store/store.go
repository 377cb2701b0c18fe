package store

import (
	"context"
	"errors"

	"shopgate/internal/model"
)

// Store records payment sessions and verified shipment events for
// observability. The collaborators stay authoritative; nothing here is read
// back on the payment or fulfillment hot path.
type Store interface {
	SavePaymentSession(ctx context.Context, s model.PaymentSession) error
	GetPaymentSession(ctx context.Context, transactionID string) (model.PaymentSession, error)
	UpdatePaymentState(ctx context.Context, transactionID, state string) error

	RecordShipmentEvent(ctx context.Context, e model.ShipmentEvent) (string, error)
	ListShipmentEvents(ctx context.Context, orderID string, limit int) ([]model.ShipmentEvent, error)
}

var ErrNotFound = errors.New("not found")
