package flutterwave

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CardDetails is the normalized virtual card shape. CVV is populated only in
// the CreateCard response and blanked everywhere else.
type CardDetails struct {
	ProviderID string
	PAN        string
	MaskedPAN  string
	CVV        string
	Expiry     string
	Balance    decimal.Decimal
	Currency   string
	NameOnCard string
	Status     string
	Scheme     string
}

type BillingProfile struct {
	Name       string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

type createCardPayload struct {
	Currency          string          `json:"currency"`
	CardType          string          `json:"card_type,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	BillingName       string          `json:"billing_name"`
	BillingAddress    string          `json:"billing_address"`
	BillingCity       string          `json:"billing_city"`
	BillingState      string          `json:"billing_state"`
	BillingPostalCode string          `json:"billing_postal_code"`
	BillingCountry    string          `json:"billing_country"`
	CallbackURL       string          `json:"callback_url"`
}

// CreateCard provisions a virtual card on the requested scheme. The response
// is the only place the full PAN and CVV ever appear.
func (c *Client) CreateCard(ctx context.Context, scheme, currency string, initialAmount decimal.Decimal, billing BillingProfile) (*CardDetails, error) {
	c.logger.Info("creating virtual card",
		zap.String("scheme", scheme),
		zap.String("currency", currency),
	)

	if billing.Address == "" {
		billing.Address = "123 Main St"
	}
	if billing.City == "" {
		billing.City = "Kinshasa"
	}
	if billing.State == "" {
		billing.State = "Kinshasa"
	}
	if billing.PostalCode == "" {
		billing.PostalCode = "00000"
	}
	if billing.Country == "" {
		billing.Country = "CD"
	}

	env, err := c.do(ctx, "POST", "/virtual-cards", createCardPayload{
		Currency:          currency,
		CardType:          strings.ToLower(scheme),
		Amount:            initialAmount,
		BillingName:       billing.Name,
		BillingAddress:    billing.Address,
		BillingCity:       billing.City,
		BillingState:      billing.State,
		BillingPostalCode: billing.PostalCode,
		BillingCountry:    billing.Country,
	})
	if err != nil {
		return nil, asIssuerError(err)
	}

	return decodeCard(env.Data, true)
}

// GetCard fetches current card details. CVV is always blanked.
func (c *Client) GetCard(ctx context.Context, providerCardID string) (*CardDetails, error) {
	c.logger.Info("fetching card details", zap.String("card_id", providerCardID))

	env, err := c.do(ctx, "GET", "/virtual-cards/"+providerCardID, nil)
	if err != nil {
		return nil, asIssuerError(err)
	}

	return decodeCard(env.Data, false)
}

// FreezeCard blocks a card at the issuer. Idempotent on the provider side.
func (c *Client) FreezeCard(ctx context.Context, providerCardID string) error {
	c.logger.Info("freezing card", zap.String("card_id", providerCardID))

	_, err := c.do(ctx, "PUT", "/virtual-cards/"+providerCardID+"/status/block", nil)
	return asIssuerError(err)
}

// UnfreezeCard unblocks a card at the issuer.
func (c *Client) UnfreezeCard(ctx context.Context, providerCardID string) error {
	c.logger.Info("unfreezing card", zap.String("card_id", providerCardID))

	_, err := c.do(ctx, "PUT", "/virtual-cards/"+providerCardID+"/status/unblock", nil)
	return asIssuerError(err)
}

// FundCard tops up a card from the wallet's collection balance.
func (c *Client) FundCard(ctx context.Context, providerCardID string, amount decimal.Decimal, debitCurrency string) error {
	c.logger.Info("funding card",
		zap.String("card_id", providerCardID),
		zap.String("amount", amount.String()),
	)

	_, err := c.do(ctx, "POST", "/virtual-cards/"+providerCardID+"/fund", map[string]any{
		"amount":         amount,
		"debit_currency": debitCurrency,
	})
	return asIssuerError(err)
}

// Card field names vary across provider dialects. decodeCard reads each field
// through an ordered list of known aliases and fails loudly when a required
// field is missing under every alias.
func decodeCard(data json.RawMessage, includeCVV bool) (*CardDetails, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &IssuerError{Message: "malformed card response"}
	}

	pan := firstString(raw, "card_pan", "pan", "number")
	if pan == "" {
		return nil, &IssuerError{Message: "card response missing PAN under all known aliases"}
	}

	providerID := firstString(raw, "id", "card_id")
	if providerID == "" {
		return nil, &IssuerError{Message: "card response missing card id"}
	}

	masked := firstString(raw, "masked_pan", "masked_number")
	if masked == "" && len(pan) >= 4 {
		masked = "****" + pan[len(pan)-4:]
	}

	balance, err := decimal.NewFromString(firstNumeric(raw, "amount", "balance"))
	if err != nil {
		balance = decimal.Zero
	}

	scheme := "VISA"
	if firstString(raw, "card_type", "type") == "mastercard" {
		scheme = "MASTERCARD"
	}

	status := "FROZEN"
	if active, ok := raw["is_active"].(bool); ok && active {
		status = "ACTIVE"
	}

	card := &CardDetails{
		ProviderID: providerID,
		PAN:        pan,
		MaskedPAN:  masked,
		Expiry:     firstString(raw, "expiration", "expiry", "expiry_date"),
		Balance:    balance,
		Currency:   firstString(raw, "currency"),
		NameOnCard: firstString(raw, "name_on_card", "cardholder_name"),
		Status:     status,
		Scheme:     scheme,
	}
	if includeCVV {
		card.CVV = firstString(raw, "cvv", "cvv2")
	}

	return card, nil
}

// firstString returns the first alias present in raw as a non-empty string.
func firstString(raw map[string]any, aliases ...string) string {
	for _, key := range aliases {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// firstNumeric returns the first alias present as either a JSON string or a
// JSON number, rendered as a decimal string.
func firstNumeric(raw map[string]any, aliases ...string) string {
	for _, key := range aliases {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return "0"
}
