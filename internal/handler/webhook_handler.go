package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/events"
	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
)

// GatewayEventSink verifies and processes inbound provider events.
type GatewayEventSink interface {
	VerifySignature(signatureHeader string, rawBody []byte) bool
	Dispatch(ctx context.Context, rawBody []byte) error
}

// EventPublisher hands verified webhook bodies to the reconciliation stream.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// WebhookHandler receives provider callbacks. The contract with the provider
// is: verify the signature over the raw body, acknowledge immediately, and do
// all ledger work out-of-band so a slow database never causes a redelivery
// storm.
type WebhookHandler struct {
	processor GatewayEventSink
	publisher EventPublisher
	logger    *zap.Logger
}

func NewWebhookHandler(processor GatewayEventSink, publisher EventPublisher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, publisher: publisher, logger: logger}
}

// HandleGatewayWebhook verifies the verif-hash header against the raw,
// unparsed body. A failed check is rejected with 401 before any parsing or
// state change. Verified payloads are queued and acknowledged with 200.
func (h *WebhookHandler) HandleGatewayWebhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Unable to read request body", "BAD_REQUEST")
		return
	}

	if !h.processor.VerifySignature(c.GetHeader("verif-hash"), rawBody) {
		middleware.RespondError(c, http.StatusUnauthorized, "Invalid webhook signature", "INVALID_SIGNATURE")
		return
	}

	h.enqueue(rawBody)

	middleware.RespondSuccess(c, http.StatusOK, gin.H{"status": "received"})
}

// enqueue hands the verified body to the stream consumer. If the broker is
// unavailable the event is processed on a detached goroutine instead: the
// provider has already been promised a 200, and the ledger's status guard
// makes a duplicate attempt after redelivery harmless.
func (h *WebhookHandler) enqueue(rawBody []byte) {
	if h.publisher != nil {
		err := h.publisher.Publish(context.Background(), events.GatewayEventsStream, events.GatewayEventReceived,
			events.GatewayEventReceivedEvent{
				EventID: uuid.NewString(),
				Body:    rawBody,
			})
		if err == nil {
			return
		}
		h.logger.Error("failed to queue webhook event, processing inline", zap.Error(err))
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.processor.Dispatch(ctx, rawBody); err != nil {
			h.logger.Error("inline webhook processing failed", zap.Error(err))
		}
	}()
}
