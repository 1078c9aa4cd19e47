package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newWebhookTestRouter(sink GatewayEventSink, publisher EventPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWebhookHandler(sink, publisher, zap.NewNop())
	r.POST("/v1/webhooks/flutterwave", h.HandleGatewayWebhook)
	return r
}

func postWebhook(router *gin.Engine, signature, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/v1/webhooks/flutterwave", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("verif-hash", signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const webhookBody = `{"event":"charge.completed","data":{"id":4212345,"tx_ref":"feza_1_a","status":"successful"}}`

func TestWebhookRejectsBadSignature(t *testing.T) {
	sink := &mockEventSink{verifyFn: func(string, []byte) bool { return false }}
	publisher := &mockPublisher{}
	router := newWebhookTestRouter(sink, publisher)

	w := postWebhook(router, "wrong", webhookBody)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401; body: %s", w.Code, w.Body.String())
	}
	// A rejected delivery must not reach the queue or the processor.
	if publisher.published != 0 {
		t.Errorf("rejected webhook was queued")
	}
	if len(sink.dispatchedBodies()) != 0 {
		t.Errorf("rejected webhook was processed")
	}
}

func TestWebhookAcknowledgesAndQueues(t *testing.T) {
	sink := &mockEventSink{verifyFn: func(string, []byte) bool { return true }}
	publisher := &mockPublisher{}
	router := newWebhookTestRouter(sink, publisher)

	w := postWebhook(router, "valid", webhookBody)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if publisher.published != 1 {
		t.Errorf("published = %d, want 1", publisher.published)
	}
	// Queued, not processed inline.
	if len(sink.dispatchedBodies()) != 0 {
		t.Errorf("webhook was processed inline despite a healthy queue")
	}
}

func TestWebhookFallsBackToInlineProcessing(t *testing.T) {
	sink := &mockEventSink{verifyFn: func(string, []byte) bool { return true }}
	publisher := &mockPublisher{
		publishFn: func(string, string, any) error { return fmt.Errorf("broker down") },
	}
	router := newWebhookTestRouter(sink, publisher)

	w := postWebhook(router, "valid", webhookBody)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.dispatchedBodies()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	dispatched := sink.dispatchedBodies()
	if len(dispatched) != 1 {
		t.Fatalf("dispatched = %d, want 1 after queue failure", len(dispatched))
	}
	if string(dispatched[0]) != webhookBody {
		t.Errorf("dispatched body was altered: %s", dispatched[0])
	}
}

// The signature must be computed over the raw body exactly as received.
func TestWebhookVerifiesRawBody(t *testing.T) {
	var seen []byte
	sink := &mockEventSink{verifyFn: func(_ string, body []byte) bool {
		seen = body
		return true
	}}
	router := newWebhookTestRouter(sink, &mockPublisher{})

	postWebhook(router, "valid", webhookBody)

	if string(seen) != webhookBody {
		t.Errorf("signature checked over altered body: %s", seen)
	}
}
