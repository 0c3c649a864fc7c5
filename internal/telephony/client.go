package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.twilio.com"

// Client places outbound voice calls through the Twilio REST API. Only
// call creation is awaited; call progress (ringing, answered, ended) is
// not tracked.
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	voiceURL   string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(accountSID, authToken, fromNumber, voiceURL string, logger zerolog.Logger) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		voiceURL:   voiceURL,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

type callResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Call creates one outbound call to the given number and returns the
// provider-assigned call SID. The number is passed through verbatim; no
// validation or normalization happens here.
func (c *Client) Call(ctx context.Context, to string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Url", c.voiceURL)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug().Str("to", to).Str("from", c.fromNumber).Msg("creating outbound call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("twilio error (status %d, code %d): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("twilio error (status %d): %s", resp.StatusCode, string(body))
	}

	var call callResponse
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if call.SID == "" {
		return "", fmt.Errorf("twilio response missing call SID")
	}

	return call.SID, nil
}
