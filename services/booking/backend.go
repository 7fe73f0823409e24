package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parcelio/config"
	"parcelio/models"

	"go.uber.org/zap"
)

// BookingAPI is the marketplace backend that persists bookings and issues the
// authoritative shipment and tracking numbers.
type BookingAPI interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
}

// HTTPBookingAPI calls the backend booking service over HTTP.
type HTTPBookingAPI struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPBookingAPI(logger *zap.Logger) *HTTPBookingAPI {
	timeout := time.Duration(config.AppConfig.HTTPTimeoutSeconds) * time.Second
	return &HTTPBookingAPI{
		baseURL: config.AppConfig.BookingAPIURL,
		token:   config.AppConfig.BookingAPIToken,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (a *HTTPBookingAPI) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build booking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("booking backend call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.Warn("booking backend rejected request", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("booking backend returned status %d", resp.StatusCode)
	}

	var result models.BookingResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode booking response: %w", err)
	}
	return &result, nil
}
