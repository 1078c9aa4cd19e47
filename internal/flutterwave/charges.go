package flutterwave

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/utils"
)

// ChargeResult is the normalized outcome of a charge submission or a
// transaction verification.
type ChargeResult struct {
	ExternalID string
	Reference  string
	Status     string // pending | successful | failed
	Amount     decimal.Decimal
	Currency   string
	Message    string
}

type ChargeRequest struct {
	Amount    decimal.Decimal
	Currency  string
	PhoneE164 string
	Operator  string
	Email     string
	FullName  string
}

type chargePayload struct {
	TxRef             string          `json:"tx_ref"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	PaymentType       string          `json:"payment_type"`
	PhoneNumber       string          `json:"phone_number"`
	Email             string          `json:"email"`
	FullName          string          `json:"fullname"`
	ClientIP          string          `json:"client_ip"`
	DeviceFingerprint string          `json:"device_fingerprint"`
	Meta              map[string]any  `json:"meta"`
}

type chargeData struct {
	ID                json.Number `json:"id"`
	TxRef             string      `json:"tx_ref"`
	FlwRef            string      `json:"flw_ref"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	Status            string      `json:"status"`
	ProcessorResponse string      `json:"processor_response"`
}

// NewReference generates a fresh idempotency reference. A retried charge must
// always allocate a new reference; the provider-side outcome of the previous
// one is unknown.
func NewReference() string {
	return fmt.Sprintf("feza_%d_%s", time.Now().UnixMilli(), utils.RandomSuffix(7))
}

// SubmitCharge initiates a mobile money charge. The reference must come from
// NewReference and is how the pending ledger row is keyed.
func (c *Client) SubmitCharge(ctx context.Context, reference string, req ChargeRequest) (*ChargeResult, error) {
	c.logger.Info("initiating mobile money charge",
		zap.String("reference", reference),
		zap.String("currency", req.Currency),
		zap.String("network", req.Operator),
	)

	fullName := req.FullName
	if fullName == "" {
		fullName = "FezaPay User"
	}

	env, err := c.do(ctx, "POST", "/charges", chargePayload{
		TxRef:       reference,
		Amount:      req.Amount,
		Currency:    req.Currency,
		PaymentType: "mobilemoneyrwanda", // provider's code for francophone mobile money
		PhoneNumber: req.PhoneE164,
		Email:       req.Email,
		FullName:    fullName,
		ClientIP:    "127.0.0.1",
		DeviceFingerprint: "N/A",
		Meta: map[string]any{
			"network": req.Operator,
		},
	})
	if err != nil {
		return nil, asGatewayError(err)
	}

	return c.chargeResult(env)
}

// VerifyTransaction fetches the current provider-side status of a charge.
// Used for client-triggered verification and for reconciling ambiguous
// webhook states.
func (c *Client) VerifyTransaction(ctx context.Context, externalID string) (*ChargeResult, error) {
	c.logger.Info("verifying transaction", zap.String("external_id", externalID))

	env, err := c.do(ctx, "GET", "/transactions/"+externalID+"/verify", nil)
	if err != nil {
		return nil, asGatewayError(err)
	}

	return c.chargeResult(env)
}

func (c *Client) chargeResult(env *envelope) (*ChargeResult, error) {
	var data chargeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &GatewayError{Message: "malformed charge response"}
	}

	amount, err := decimal.NewFromString(data.Amount.String())
	if err != nil {
		amount = decimal.Zero
	}

	message := data.ProcessorResponse
	if message == "" {
		message = env.Message
	}

	return &ChargeResult{
		ExternalID: data.ID.String(),
		Reference:  data.TxRef,
		Status:     MapStatus(data.Status),
		Amount:     amount,
		Currency:   data.Currency,
		Message:    message,
	}, nil
}

// MapStatus normalizes the provider's status vocabulary to exactly
// {pending, successful, failed}. Unrecognized statuses map to pending:
// an ambiguous provider state must never trigger issuance or a credit.
func MapStatus(providerStatus string) string {
	switch strings.ToLower(providerStatus) {
	case "successful", "success", "completed":
		return "successful"
	case "failed", "cancelled":
		return "failed"
	case "pending":
		return "pending"
	default:
		return "pending"
	}
}
