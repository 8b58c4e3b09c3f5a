package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/expotoworld/expotoworld-sub002/internal/logger"
)

// SMSSender posts to an SMS gateway's form endpoint. DryRun skips the HTTP
// call and logs instead, for local development without gateway credentials.
type SMSSender struct {
	apiURL   string
	apiKey   string
	senderID string
	dryRun   bool
	client   *http.Client
}

type smsGatewayResponse struct {
	Code int `json:"code"`
	Data struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewSMSSender(apiURL, apiKey, senderID string, dryRun bool) *SMSSender {
	return &SMSSender{
		apiURL:   apiURL,
		apiKey:   apiKey,
		senderID: senderID,
		dryRun:   dryRun,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SMSSender) Send(ctx context.Context, to, body string) error {
	if s.dryRun || s.apiKey == "" {
		logger.Log.WithField("to", to).Info("sms dry-run: skipping gateway call")

		return nil
	}

	form := url.Values{
		"apiKey":    {s.apiKey},
		"recipient": {to},
		"text":      {body},
	}
	if s.senderID != "" {
		form.Set("from", s.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sms gateway response: %w", err)
	}

	var result smsGatewayResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to parse sms gateway response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("sms gateway returned error code %d", result.Code)
	}

	return nil
}
