package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

// Recognized provider event tags. Everything else is logged and dropped.
const (
	EventChargeCompleted   = "charge.completed"
	EventTransferCompleted = "transfer.completed"
)

// GatewayEvent is the provider webhook payload shape.
type GatewayEvent struct {
	Event string           `json:"event"`
	Data  GatewayEventData `json:"data"`
}

type GatewayEventData struct {
	ID       json.Number `json:"id"`
	TxRef    string      `json:"tx_ref"`
	FlwRef   string      `json:"flw_ref"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Status   string      `json:"status"`
}

// Deduper is the fast-path replay guard over provider event ids. The
// pending-only status guard in the ledger is the source of truth; this only
// avoids useless work on redelivery.
type Deduper interface {
	IsProcessed(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID string)
}

// SuccessHook runs once per transaction, the first time it flips from
// pending to successful. Used to chain card issuance onto the initial
// deposit flow.
type SuccessHook func(ctx context.Context, tx *models.Transaction)

// WebhookProcessor verifies inbound event signatures and dispatches events to
// ledger updates by event type.
type WebhookProcessor struct {
	secretHash      string
	allowUnverified bool
	ledger          Ledger
	dedup           Deduper
	onSuccess       SuccessHook
	logger          *zap.Logger
}

// NewWebhookProcessor builds the processor. allowUnverified enables the
// development-only fallback that skips signature checks when no secret hash
// is configured; it must be false in production, where a missing hash rejects
// every delivery instead.
func NewWebhookProcessor(secretHash string, allowUnverified bool, ledger Ledger, dedup Deduper, logger *zap.Logger) *WebhookProcessor {
	return &WebhookProcessor{
		secretHash:      secretHash,
		allowUnverified: allowUnverified,
		ledger:          ledger,
		dedup:           dedup,
		logger:          logger,
	}
}

// SetSuccessHook configures the hook fired on the first pending→successful
// flip of a transaction.
func (p *WebhookProcessor) SetSuccessHook(hook SuccessHook) {
	p.onSuccess = hook
}

// VerifySignature computes an HMAC-SHA256 over the raw, unparsed body and
// compares it against the header value in constant time. With no secret hash
// configured, deliveries pass only under the explicit development fallback.
func (p *WebhookProcessor) VerifySignature(signatureHeader string, rawBody []byte) bool {
	if p.secretHash == "" {
		if p.allowUnverified {
			p.logger.Warn("webhook hash not configured, skipping signature verification")
			return true
		}
		p.logger.Error("webhook hash not configured, rejecting delivery")
		return false
	}

	mac := hmac.New(sha256.New, []byte(p.secretHash))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signatureHeader), []byte(expected)) {
		p.logger.Warn("invalid webhook signature")
		return false
	}
	return true
}

// Dispatch routes a verified event strictly on its type tag. Errors are for
// the out-of-band reconciliation worker to log and retry; by the time this
// runs, the provider has already been acknowledged.
func (p *WebhookProcessor) Dispatch(ctx context.Context, rawBody []byte) error {
	var event GatewayEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	p.logger.Info("processing webhook event",
		zap.String("event", event.Event),
		zap.String("tx_ref", event.Data.TxRef),
		zap.String("status", event.Data.Status),
	)

	switch event.Event {
	case EventChargeCompleted, EventTransferCompleted:
		return p.settleTransaction(ctx, event)
	default:
		p.logger.Info("unhandled webhook event type", zap.String("event", event.Event))
		return nil
	}
}

func (p *WebhookProcessor) settleTransaction(ctx context.Context, event GatewayEvent) error {
	eventID := event.Event + ":" + event.Data.ID.String() + ":" + event.Data.TxRef
	if p.dedup != nil && p.dedup.IsProcessed(ctx, eventID) {
		p.logger.Info("duplicate webhook event, skipping", zap.String("event_id", eventID))
		return nil
	}

	// The flip and any card credit commit together inside the ledger; an
	// error here means nothing was persisted and the event must be retried.
	status := flutterwave.MapStatus(event.Data.Status)
	tx, flipped, err := p.ledger.SettleTransaction(event.Data.TxRef, status, event.Data.ID.String())
	if err != nil {
		return fmt.Errorf("failed to settle %s: %w", event.Data.TxRef, err)
	}

	if !flipped {
		// Already terminal: replayed delivery or the polling path won the
		// race. Nothing to do.
		p.logger.Info("transaction already settled, webhook is a no-op",
			zap.String("reference", event.Data.TxRef),
			zap.String("status", tx.Status),
		)
		if p.dedup != nil {
			p.dedup.MarkProcessed(ctx, eventID)
		}
		return nil
	}

	if tx.Status == models.TxStatusSuccessful && p.onSuccess != nil {
		p.onSuccess(ctx, tx)
	}

	if p.dedup != nil {
		p.dedup.MarkProcessed(ctx, eventID)
	}
	return nil
}
