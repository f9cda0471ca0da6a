// Package whatsapp is the HTTP client for the outbound messaging gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/dispatch"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"
)

const defaultTimeout = 15 * time.Second

var ErrNotConfigured = errors.New("whatsapp gateway url not configured")

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type sendRequest struct {
	PhoneNumber string    `json:"phone_number"`
	Message     string    `json:"message"`
	LeadID      uuid.UUID `json:"lead_id"`
}

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) (*Client, error) {
	if cfg.GetWhatsAppURL() == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.GetWhatsAppTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		apiKey:  cfg.GetWhatsAppAPIKey(),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// Send posts one message. Transport errors and any non-2xx status are
// failures.
func (c *Client) Send(ctx context.Context, msg dispatch.OutboundMessage) error {
	body, err := json.Marshal(sendRequest{PhoneNumber: msg.PhoneNumber, Message: msg.Message, LeadID: msg.LeadID})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send-message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderError("transport")
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordProviderError(fmt.Sprintf("http_%dxx", resp.StatusCode/100))
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Debug("whatsapp message accepted", "lead_id", msg.LeadID)
	return nil
}

func formatAuthHeader(apiKey string) string {
	lower := strings.ToLower(apiKey)
	if strings.HasPrefix(lower, "basic ") || strings.HasPrefix(lower, "bearer ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}

// DryRunSender logs messages instead of sending them. Only wired in
// development when no gateway is configured.
type DryRunSender struct {
	log *logger.Logger
}

func NewDryRunSender(log *logger.Logger) *DryRunSender {
	return &DryRunSender{log: log}
}

func (d *DryRunSender) Send(_ context.Context, msg dispatch.OutboundMessage) error {
	d.log.Info("whatsapp dry run", "lead_id", msg.LeadID, "chars", len([]rune(msg.Message)))
	return nil
}

var (
	_ dispatch.Sender = (*Client)(nil)
	_ dispatch.Sender = (*DryRunSender)(nil)
)
