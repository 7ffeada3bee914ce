// Package client provides the HTTP client for the telephony switch CDR endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

// Client is the HTTP client for the switch CDR endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// New creates a new CDR client. The timeout bounds the whole fetch; the
// switch can be slow when asked for multi-month windows.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// FlexInt decodes a JSON value that may arrive as a number or a numeric string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(data, `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(trimmed))
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// RawCall is one record as the switch reports it. The switch firmware has
// shipped several field-name variants over time, so alternates are decoded
// side by side and resolved by the normalizer.
type RawCall struct {
	Calldate  string `json:"calldate"`
	CallDate  string `json:"call_date"`
	StartTime string `json:"start_time"`

	Src    string `json:"src"`
	Source string `json:"source"`
	From   string `json:"from"`

	Dst         string `json:"dst"`
	Destination string `json:"destination"`
	To          string `json:"to"`

	Billsec  FlexInt `json:"billsec"`
	Duration FlexInt `json:"duration"`

	Line   string `json:"line"`
	Email  string `json:"email"`
	Record string `json:"record"`
}

// Fetch retrieves the trailing call-record window for an agent extension.
// Any transport failure, timeout or non-200 response surfaces as an
// Unavailable error so callers can retry.
func (c *Client) Fetch(ctx context.Context, agentCode string, months int) ([]RawCall, error) {
	params := url.Values{}
	params.Set("agent", agentCode)
	params.Set("m", strconv.Itoa(months))
	reqURL := fmt.Sprintf("%s/cdr.php?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("cdr request failed", "error", err, "agent", agentCode)
		return nil, apperr.Wrap(apperr.KindUnavailable, "call record source unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("cdr upstream error", "status", resp.StatusCode, "agent", agentCode)
		return nil, apperr.Unavailable(fmt.Sprintf("call record source returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "read call record response", err)
	}

	calls, err := decodeCalls(body)
	if err != nil {
		c.log.Error("cdr decode failed", "error", err, "agent", agentCode)
		return nil, apperr.Wrap(apperr.KindUnavailable, "malformed call record response", err)
	}

	return calls, nil
}

// decodeCalls tolerates the three shapes the switch emits: a bare array,
// a JSON-encoded string wrapping an array, and an object with a data field.
func decodeCalls(body []byte) ([]RawCall, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("unwrap string payload: %w", err)
		}
		trimmed = bytes.TrimSpace([]byte(inner))
		if len(trimmed) == 0 {
			return nil, nil
		}
	}

	if trimmed[0] == '[' {
		var calls []RawCall
		if err := json.Unmarshal(trimmed, &calls); err != nil {
			return nil, fmt.Errorf("decode array payload: %w", err)
		}
		return calls, nil
	}

	var wrapper struct {
		Data []RawCall `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("decode object payload: %w", err)
	}
	return wrapper.Data, nil
}
