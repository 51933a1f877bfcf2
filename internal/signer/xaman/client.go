// Package xaman signs offer descriptors through a credential-holding
// wallet gateway. The gateway proxies the Xaman platform API so the
// API key and secret never reach this process; this package only
// talks to the proxy's surface: create a payload, watch it resolve.
package xaman

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds individual gateway HTTP calls, not the wallet
// approval wait (the signer owns that).
const DefaultTimeout = 15 * time.Second

// Client is a wallet-gateway HTTP client.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a gateway client for the given base URL.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

// PayloadRequest is the body of a create-payload call: the ledger
// transaction plus optional Xaman payload options.
type PayloadRequest struct {
	TxJSON  map[string]any `json:"txjson"`
	Options map[string]any `json:"options,omitempty"`
}

// CreatedPayload is the gateway's answer to create-payload: a payload
// id plus the references the wallet flow needs (QR image, deep link,
// status websocket).
type CreatedPayload struct {
	UUID string `json:"uuid"`
	Next struct {
		Always string `json:"always"`
	} `json:"next"`
	Refs struct {
		QRPNG           string `json:"qr_png"`
		WebsocketStatus string `json:"websocket_status"`
	} `json:"refs"`
}

// PayloadStatus is the gateway's view of a payload's resolution.
type PayloadStatus struct {
	Meta struct {
		Resolved  bool `json:"resolved"`
		Signed    bool `json:"signed"`
		Expired   bool `json:"expired"`
		Cancelled bool `json:"cancelled"`
	} `json:"meta"`
	Response struct {
		TxID    string `json:"txid"`
		Account string `json:"account"`
	} `json:"response"`
}

// CreatePayload registers a transaction for signing and returns the
// payload references.
func (c *Client) CreatePayload(ctx context.Context, req *PayloadRequest) (*CreatedPayload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("xaman: marshal payload request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-payload", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("xaman: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var created CreatedPayload
	if err := c.do(httpReq, &created); err != nil {
		return nil, err
	}
	if created.UUID == "" {
		return nil, fmt.Errorf("xaman: gateway returned payload without uuid")
	}
	return &created, nil
}

// PayloadStatus fetches the current resolution state of a payload.
func (c *Client) PayloadStatus(ctx context.Context, uuid string) (*PayloadStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payload-status/"+uuid, nil)
	if err != nil {
		return nil, fmt.Errorf("xaman: build request: %w", err)
	}

	var status PayloadStatus
	if err := c.do(httpReq, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health checks the gateway's health endpoint, including whether it
// holds API credentials.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("xaman: build request: %w", err)
	}

	var health struct {
		Status         string `json:"status"`
		HasCredentials bool   `json:"hasCredentials"`
	}
	if err := c.do(httpReq, &health); err != nil {
		return err
	}
	if health.Status != "healthy" {
		return fmt.Errorf("xaman: gateway unhealthy: %q", health.Status)
	}
	if !health.HasCredentials {
		return fmt.Errorf("xaman: gateway has no API credentials configured")
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("xaman: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("xaman: %s %s: gateway returned %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("xaman: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
