package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/repository"
	"github.com/Abrahambaraka/Feza-pay/internal/utils"
)

// fakeLedger is an in-memory Ledger with the same status-guard semantics as
// the SQL implementation.
type fakeLedger struct {
	mu      sync.Mutex
	txByRef map[string]*models.Transaction
	txByID  map[string]*models.Transaction
	cards   map[string]*models.Card
	credits []string

	// creditFailures rejects that many settlement credits, leaving the
	// transaction pending the way a rolled-back SQL settlement would.
	creditFailures int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		txByRef: map[string]*models.Transaction{},
		txByID:  map[string]*models.Transaction{},
		cards:   map[string]*models.Card{},
	}
}

func (l *fakeLedger) AppendTransaction(tx *models.Transaction) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx.ID == "" {
		tx.ID = utils.GenerateID("tan")
	}
	if tx.Status == "" {
		tx.Status = models.TxStatusCompleted
	}
	l.txByID[tx.ID] = tx
	if tx.Reference != "" {
		l.txByRef[tx.Reference] = tx
	}
	return tx, nil
}

func (l *fakeLedger) SettleTransaction(reference, newStatus, externalID string) (*models.Transaction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.txByRef[reference]
	if !ok {
		return nil, false, repository.ErrTransactionNotFound
	}
	if models.IsTerminalStatus(tx.Status) || !models.IsTerminalStatus(newStatus) {
		return tx, false, nil
	}
	// Credit before flip: a failed credit leaves the row pending, matching
	// the rollback behavior of the SQL implementation.
	if newStatus == models.TxStatusSuccessful && tx.CardID != "" {
		card, ok := l.cards[tx.CardID]
		if !ok {
			return nil, false, repository.ErrCardNotFound
		}
		if l.creditFailures > 0 {
			l.creditFailures--
			return nil, false, fmt.Errorf("credit rejected")
		}
		card.Balance = card.Balance.Add(tx.Amount)
		l.credits = append(l.credits, tx.CardID)
	}
	tx.Status = newStatus
	if externalID != "" {
		tx.ExternalID = externalID
	}
	return tx, true, nil
}

func (l *fakeLedger) ApplyCardTransaction(tx *models.Transaction, delta decimal.Decimal) (*models.Transaction, error) {
	l.mu.Lock()
	card, ok := l.cards[tx.CardID]
	if !ok {
		l.mu.Unlock()
		return nil, repository.ErrCardNotFound
	}
	if card.Balance.Add(delta).Sign() < 0 {
		l.mu.Unlock()
		return nil, repository.ErrInsufficientBalance
	}
	card.Balance = card.Balance.Add(delta)
	l.mu.Unlock()
	return l.AppendTransaction(tx)
}

func (l *fakeLedger) RecordIssuedCard(card *models.Card, activation, funding *models.Transaction) error {
	l.mu.Lock()
	l.cards[card.ID] = card
	l.mu.Unlock()
	if _, err := l.AppendTransaction(activation); err != nil {
		return err
	}
	if funding != nil {
		if _, err := l.AppendTransaction(funding); err != nil {
			return err
		}
	}
	return nil
}

func (l *fakeLedger) GetCard(userID, cardID string) (*models.Card, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	card, ok := l.cards[cardID]
	if !ok {
		return nil, repository.ErrCardNotFound
	}
	if card.UserID != userID {
		return nil, ErrForbidden
	}
	return card, nil
}

func (l *fakeLedger) GetTransaction(userID, txID string) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.txByID[txID]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	if tx.UserID != userID {
		return nil, ErrForbidden
	}
	return tx, nil
}

func (l *fakeLedger) UpdateCardStatus(cardID, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	card, ok := l.cards[cardID]
	if !ok {
		return repository.ErrCardNotFound
	}
	card.Status = status
	return nil
}

func (l *fakeLedger) RefreshCardBalance(cardID string, balance decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	card, ok := l.cards[cardID]
	if !ok {
		return repository.ErrCardNotFound
	}
	card.Balance = balance
	return nil
}

func (l *fakeLedger) GetCardsByUser(userID string) ([]models.Card, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Card
	for _, c := range l.cards {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (l *fakeLedger) GetTransactionsByUser(userID string) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Transaction
	for _, t := range l.txByID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// fakeGateway scripts charge submissions and verifications.
type fakeGateway struct {
	submitFn func(reference string, req flutterwave.ChargeRequest) (*flutterwave.ChargeResult, error)
	verifyFn func(externalID string) (*flutterwave.ChargeResult, error)
	submits  []string
}

func (g *fakeGateway) SubmitCharge(_ context.Context, reference string, req flutterwave.ChargeRequest) (*flutterwave.ChargeResult, error) {
	g.submits = append(g.submits, reference)
	if g.submitFn != nil {
		return g.submitFn(reference, req)
	}
	return &flutterwave.ChargeResult{
		ExternalID: "421",
		Reference:  reference,
		Status:     "pending",
		Amount:     req.Amount,
		Currency:   req.Currency,
		Message:    "Transaction in progress",
	}, nil
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, externalID string) (*flutterwave.ChargeResult, error) {
	if g.verifyFn != nil {
		return g.verifyFn(externalID)
	}
	return nil, fmt.Errorf("not configured")
}

// fakeIssuer scripts card-issuer calls.
type fakeIssuer struct {
	createFn func() (*flutterwave.CardDetails, error)
	calls    []string
}

func (i *fakeIssuer) CreateCard(_ context.Context, scheme, currency string, amount decimal.Decimal, _ flutterwave.BillingProfile) (*flutterwave.CardDetails, error) {
	i.calls = append(i.calls, "create:"+scheme)
	if i.createFn != nil {
		return i.createFn()
	}
	return &flutterwave.CardDetails{
		ProviderID: "crd_prov_1",
		PAN:        "4111111111111111",
		MaskedPAN:  "****1111",
		CVV:        "123",
		Expiry:     "2027-01",
		Balance:    amount,
		Currency:   currency,
		Status:     models.CardStatusActive,
		Scheme:     scheme,
	}, nil
}

func (i *fakeIssuer) GetCard(_ context.Context, providerCardID string) (*flutterwave.CardDetails, error) {
	i.calls = append(i.calls, "get:"+providerCardID)
	return &flutterwave.CardDetails{
		ProviderID: providerCardID,
		PAN:        "4111111111111111",
		MaskedPAN:  "****1111",
		Expiry:     "2027-01",
		Balance:    decimal.NewFromInt(10),
		Currency:   "USD",
		Status:     models.CardStatusActive,
		Scheme:     models.CardSchemeVisa,
	}, nil
}

func (i *fakeIssuer) FreezeCard(_ context.Context, providerCardID string) error {
	i.calls = append(i.calls, "freeze:"+providerCardID)
	return nil
}

func (i *fakeIssuer) UnfreezeCard(_ context.Context, providerCardID string) error {
	i.calls = append(i.calls, "unfreeze:"+providerCardID)
	return nil
}

func (i *fakeIssuer) FundCard(_ context.Context, providerCardID string, amount decimal.Decimal, _ string) error {
	i.calls = append(i.calls, "fund:"+providerCardID)
	return nil
}

// approvingKYC reports a fixed KYC decision.
type approvingKYC struct{ approved bool }

func (k *approvingKYC) IsApproved(string) (bool, error) { return k.approved, nil }

// memDedup is an in-memory Deduper.
type memDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDedup() *memDedup { return &memDedup{seen: map[string]bool{}} }

func (d *memDedup) IsProcessed(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[id]
}

func (d *memDedup) MarkProcessed(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[id] = true
}
