package events

import "time"

// Event types
const (
	GatewayEventReceived = "gateway.event.received"

	TransactionUpdated = "transaction.updated"
	CardIssued         = "card.issued"
	BalanceUpdated     = "balance.updated"
)

// Stream names
const (
	// GatewayEventsStream carries raw, signature-verified provider webhook
	// payloads awaiting reconciliation.
	GatewayEventsStream = "gateway.events"
	WalletEventsStream  = "wallet.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// GatewayEventReceivedEvent wraps an inbound provider webhook for out-of-band
// processing. Body is the raw request payload, already signature-verified.
type GatewayEventReceivedEvent struct {
	EventID string `json:"eventId"`
	Body    []byte `json:"body"`
}

type TransactionUpdatedEvent struct {
	TransactionID string `json:"transactionId"`
	UserID        string `json:"userId"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
}

type CardIssuedEvent struct {
	CardID   string `json:"cardId"`
	UserID   string `json:"userId"`
	Currency string `json:"currency"`
	Scheme   string `json:"scheme"`
}

type BalanceUpdatedEvent struct {
	CardID     string `json:"cardId"`
	NewBalance string `json:"newBalance"`
	Change     string `json:"change"`
}
