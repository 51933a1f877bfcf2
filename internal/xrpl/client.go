// Package xrpl is a read-only JSON-RPC client for the ledger data the
// ladder workflow needs: account sequence, XRP balance, trustline
// balances, and the current ledger index. Nothing here submits
// transactions; submission happens through the wallet.
package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/LeJamon/xrpl-ladder/internal/core/txbuild"
	"github.com/LeJamon/xrpl-ladder/internal/core/xrpamount"
)

const (
	// DefaultTimeout bounds individual RPC calls.
	DefaultTimeout = 15 * time.Second

	// defaultLineCacheSize is how many accounts' trustlines to keep.
	defaultLineCacheSize = 128

	// defaultLineCacheTTL is how long cached trustlines stay fresh.
	// Balance reads feed pre-flight validation only, so a short
	// staleness window is acceptable.
	defaultLineCacheTTL = 30 * time.Second
)

// AccountInfo is the subset of account_info the workflow consumes.
type AccountInfo struct {
	Sequence   uint32
	BalanceXRP xrpamount.XRPAmount
}

// TrustLine is one entry from account_lines.
type TrustLine struct {
	Issuer   string
	Currency string
	Balance  decimal.Decimal
}

type cachedLines struct {
	lines     []TrustLine
	fetchedAt time.Time
}

// Client talks to a rippled-compatible JSON-RPC endpoint.
type Client struct {
	url    string
	httpc  *http.Client
	logger *zap.Logger

	mu        sync.Mutex
	lineCache *lru.Cache[string, cachedLines]
	lineTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLineCacheTTL overrides the trustline cache freshness window.
func WithLineCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.lineTTL = ttl }
}

// NewClient builds a client for the given JSON-RPC URL.
func NewClient(url string, opts ...Option) (*Client, error) {
	cache, err := lru.New[string, cachedLines](defaultLineCacheSize)
	if err != nil {
		return nil, err
	}
	c := &Client{
		url:       url,
		httpc:     &http.Client{Timeout: DefaultTimeout},
		logger:    zap.NewNop(),
		lineCache: cache,
		lineTTL:   defaultLineCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// AccountInfo fetches the account's current sequence and XRP balance.
// Never cached: the sequence must be fresh when a build starts.
func (c *Client) AccountInfo(ctx context.Context, account string) (*AccountInfo, error) {
	var result struct {
		AccountData struct {
			Sequence uint32 `json:"Sequence"`
			Balance  string `json:"Balance"`
		} `json:"account_data"`
	}
	params := map[string]any{"account": account, "ledger_index": "validated"}
	if err := c.call(ctx, "account_info", params, &result); err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(result.AccountData.Balance)
	if err != nil {
		return nil, fmt.Errorf("xrpl: account %s balance %q: %w", account, result.AccountData.Balance, err)
	}
	return &AccountInfo{
		Sequence:   result.AccountData.Sequence,
		BalanceXRP: xrpamount.NewXRPAmount(balance.IntPart()),
	}, nil
}

// NextSequence implements txbuild.SequenceSource.
func (c *Client) NextSequence(ctx context.Context, account string) (uint32, error) {
	info, err := c.AccountInfo(ctx, account)
	if err != nil {
		return 0, err
	}
	return info.Sequence, nil
}

// CurrentLedger implements txbuild.LedgerSource.
func (c *Client) CurrentLedger(ctx context.Context) (uint32, error) {
	var result struct {
		LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	}
	if err := c.call(ctx, "ledger_current", map[string]any{}, &result); err != nil {
		return 0, err
	}
	return result.LedgerCurrentIndex, nil
}

// AccountLines fetches the account's trustlines, serving from a short
// lived cache so validation and display do not refetch within a run.
func (c *Client) AccountLines(ctx context.Context, account string) ([]TrustLine, error) {
	c.mu.Lock()
	if cached, ok := c.lineCache.Get(account); ok && time.Since(cached.fetchedAt) < c.lineTTL {
		c.mu.Unlock()
		return cached.lines, nil
	}
	c.mu.Unlock()

	var result struct {
		Lines []struct {
			Account  string `json:"account"`
			Currency string `json:"currency"`
			Balance  string `json:"balance"`
		} `json:"lines"`
	}
	params := map[string]any{"account": account, "ledger_index": "validated"}
	if err := c.call(ctx, "account_lines", params, &result); err != nil {
		return nil, err
	}

	lines := make([]TrustLine, 0, len(result.Lines))
	for _, l := range result.Lines {
		balance, err := decimal.NewFromString(l.Balance)
		if err != nil {
			return nil, fmt.Errorf("xrpl: line %s/%s balance %q: %w", l.Currency, l.Account, l.Balance, err)
		}
		lines = append(lines, TrustLine{Issuer: l.Account, Currency: l.Currency, Balance: balance})
	}

	c.mu.Lock()
	c.lineCache.Add(account, cachedLines{lines: lines, fetchedAt: time.Now()})
	c.mu.Unlock()
	return lines, nil
}

// BalanceOf returns the account's balance of the given token, zero if
// no matching trustline exists. Currency codes are normalized before
// comparison so "AB" matches the ledger's padded form.
func (c *Client) BalanceOf(ctx context.Context, account, currencyCode, issuer string) (decimal.Decimal, error) {
	want, err := txbuild.NormalizeCurrencyCode(currencyCode)
	if err != nil {
		return decimal.Zero, err
	}

	lines, err := c.AccountLines(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	for _, line := range lines {
		got, err := txbuild.NormalizeCurrencyCode(line.Currency)
		if err != nil {
			continue
		}
		if got == want && line.Issuer == issuer {
			return line.Balance, nil
		}
	}
	return decimal.Zero, nil
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: []any{params}})
	if err != nil {
		return fmt.Errorf("xrpl: marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("xrpl: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("xrpl: %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("xrpl: %s: node returned %d", method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("xrpl: decode %s response: %w", method, err)
	}

	var status rpcStatus
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return fmt.Errorf("xrpl: decode %s status: %w", method, err)
	}
	if status.Status == "error" || status.Error != "" {
		msg := status.ErrorMessage
		if msg == "" {
			msg = status.Error
		}
		return fmt.Errorf("xrpl: %s: %s", method, msg)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("xrpl: decode %s result: %w", method, err)
	}
	return nil
}
