package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/service"
)

// ---- mock implementations ----

type mockAuthenticator struct {
	registerFn func(email, password, displayName string) (*models.User, string, error)
	loginFn    func(email, password string) (*models.User, string, error)
	refreshFn  func(token string) (string, error)
}

func (m *mockAuthenticator) Register(email, password, displayName string) (*models.User, string, error) {
	if m.registerFn != nil {
		return m.registerFn(email, password, displayName)
	}
	return nil, "", fmt.Errorf("not configured")
}

func (m *mockAuthenticator) Login(email, password string) (*models.User, string, error) {
	if m.loginFn != nil {
		return m.loginFn(email, password)
	}
	return nil, "", fmt.Errorf("not configured")
}

func (m *mockAuthenticator) RefreshToken(token string) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(token)
	}
	return "", fmt.Errorf("not configured")
}

type mockDepositor struct {
	initiateFn func(userID string, req service.DepositRequest) (*service.DepositResult, error)
	verifyFn   func(userID, transactionID string) (*service.DepositResult, error)
	initiates  int
}

func (m *mockDepositor) InitiateDeposit(_ context.Context, userID string, req service.DepositRequest) (*service.DepositResult, error) {
	m.initiates++
	if m.initiateFn != nil {
		return m.initiateFn(userID, req)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockDepositor) VerifyDeposit(_ context.Context, userID, transactionID string) (*service.DepositResult, error) {
	if m.verifyFn != nil {
		return m.verifyFn(userID, transactionID)
	}
	return nil, fmt.Errorf("not configured")
}

type mockProvisioner struct {
	issueFn  func(userID string, req service.IssueCardRequest) (*service.IssuedCard, error)
	getFn    func(userID, cardID string) (*models.Card, error)
	statusFn func(userID, cardID, status string) error
	fundFn   func(userID, cardID string, amount decimal.Decimal) (*models.Transaction, error)
}

func (m *mockProvisioner) IssueCard(_ context.Context, userID string, req service.IssueCardRequest) (*service.IssuedCard, error) {
	if m.issueFn != nil {
		return m.issueFn(userID, req)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockProvisioner) GetCard(_ context.Context, userID, cardID string) (*models.Card, error) {
	if m.getFn != nil {
		return m.getFn(userID, cardID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockProvisioner) FreezeCard(_ context.Context, userID, cardID string) error {
	if m.statusFn != nil {
		return m.statusFn(userID, cardID, models.CardStatusFrozen)
	}
	return fmt.Errorf("not configured")
}

func (m *mockProvisioner) UnfreezeCard(_ context.Context, userID, cardID string) error {
	if m.statusFn != nil {
		return m.statusFn(userID, cardID, models.CardStatusActive)
	}
	return fmt.Errorf("not configured")
}

func (m *mockProvisioner) FundCard(_ context.Context, userID, cardID string, amount decimal.Decimal) (*models.Transaction, error) {
	if m.fundFn != nil {
		return m.fundFn(userID, cardID, amount)
	}
	return nil, fmt.Errorf("not configured")
}

type mockProfileStore struct {
	getFn    func(userID string) (*models.User, error)
	updateFn func(userID, displayName, photoURL string) (*models.User, error)
}

func (m *mockProfileStore) GetByID(userID string) (*models.User, error) {
	if m.getFn != nil {
		return m.getFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockProfileStore) UpdateProfile(userID, displayName, photoURL string) (*models.User, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, displayName, photoURL)
	}
	return nil, fmt.Errorf("not configured")
}

type mockWalletReader struct {
	cardsFn func(userID string) ([]models.Card, error)
	txsFn   func(userID string) ([]models.Transaction, error)
}

func (m *mockWalletReader) GetCardsByUser(userID string) ([]models.Card, error) {
	if m.cardsFn != nil {
		return m.cardsFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockWalletReader) GetTransactionsByUser(userID string) ([]models.Transaction, error) {
	if m.txsFn != nil {
		return m.txsFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

type mockKYCRecorder struct {
	submitFn func(userID string, sub service.KYCSubmission) (*models.KYCVerification, error)
	statusFn func(userID string) (*models.KYCVerification, error)
}

func (m *mockKYCRecorder) Submit(userID string, sub service.KYCSubmission) (*models.KYCVerification, error) {
	if m.submitFn != nil {
		return m.submitFn(userID, sub)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockKYCRecorder) Status(userID string) (*models.KYCVerification, error) {
	if m.statusFn != nil {
		return m.statusFn(userID)
	}
	return nil, fmt.Errorf("not configured")
}

// mockEventSink records dispatches under a lock; the handler's fallback path
// processes on a detached goroutine.
type mockEventSink struct {
	mu         sync.Mutex
	verifyFn   func(signature string, body []byte) bool
	dispatched [][]byte
}

func (m *mockEventSink) VerifySignature(signature string, body []byte) bool {
	if m.verifyFn != nil {
		return m.verifyFn(signature, body)
	}
	return false
}

func (m *mockEventSink) Dispatch(_ context.Context, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, body)
	return nil
}

func (m *mockEventSink) dispatchedBodies() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.dispatched...)
}

type mockPublisher struct {
	publishFn func(stream, eventType string, data any) error
	published int
}

func (m *mockPublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	m.published++
	if m.publishFn != nil {
		return m.publishFn(stream, eventType, data)
	}
	return nil
}

// ---- helpers ----

func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Set("email", "user@example.com")
		c.Next()
	}
}

func doRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
