package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"parcelio/config"
	"parcelio/models"

	"go.uber.org/zap"
)

// Gateway abstracts the external payment provider's orders API. The checkout
// widget itself runs client-side; this side only registers orders and checks
// result signatures.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error)
	VerifySignature(result models.GatewayResult) error
	KeyID() string
}

// HTTPGateway talks to a Razorpay-style orders API over HTTPS.
type HTTPGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPGateway builds a gateway client from the application config.
func NewHTTPGateway(logger *zap.Logger) *HTTPGateway {
	timeout := time.Duration(config.AppConfig.HTTPTimeoutSeconds) * time.Second
	return &HTTPGateway{
		baseURL:   config.AppConfig.GatewayBaseURL,
		keyID:     config.AppConfig.GatewayKeyID,
		keySecret: config.AppConfig.GatewayKeySecret,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// KeyID returns the public key identifier handed to the checkout widget.
func (g *HTTPGateway) KeyID() string {
	return g.keyID
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder registers a payment order with the gateway.
func (g *HTTPGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   amountMinorUnits,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn("gateway order creation rejected", zap.Int("status", resp.StatusCode), zap.String("receipt", receipt))
		return nil, fmt.Errorf("gateway order creation returned status %d", resp.StatusCode)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode gateway order response: %w", err)
	}

	g.logger.Info("payment order created", zap.String("orderId", out.ID), zap.Int64("amountMinorUnits", out.Amount))
	return &models.PaymentOrder{
		OrderID:          out.ID,
		AmountMinorUnits: out.Amount,
		Currency:         out.Currency,
		Receipt:          receipt,
	}, nil
}

// VerifySignature checks the widget result signature: HMAC-SHA256 over
// "orderID|paymentID" with the key secret, hex encoded.
func (g *HTTPGateway) VerifySignature(result models.GatewayResult) error {
	if result.GatewayOrderID == "" || result.GatewaySignature == "" {
		return errors.New("gateway result is missing order id or signature")
	}

	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(result.GatewayOrderID + "|" + result.GatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(result.GatewaySignature)) {
		return errors.New("gateway signature mismatch")
	}
	return nil
}
