// Package indexer implements mint.Indexer against an external chain
// indexer oracle reachable over HTTP/JSON.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/time/rate"

	"github.com/ordwallet/batchmint/mint"
	"github.com/ordwallet/batchmint/pkg/logging"
)

// Config holds the indexer client's tunables.
type Config struct {
	// BaseURL is the indexer's HTTP root, e.g. "https://indexer.example.com".
	BaseURL string

	// RateLimit is the number of requests per second allowed against
	// the indexer.
	RateLimit int

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RetryAttempts is the number of retry attempts for failed requests.
	RetryAttempts int

	// RetryDelay is the base delay between retry attempts.
	RetryDelay time.Duration

	// Logger receives debug-level output for the retry path. Nil
	// defaults to the package logger's "indexer" component.
	Logger *logging.Logger
}

// DefaultConfig returns the client's defaults.
func DefaultConfig() *Config {
	return &Config{
		RateLimit:     10,
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Client is an HTTP client for the indexer oracle, rate-limited and
// retrying the same way the pack's other chain-data clients do.
type Client struct {
	cfg *Config
	log *logging.Logger

	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a new indexer client. cfg.BaseURL must be set.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultConfig().RateLimit
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}

	return &Client{
		cfg: cfg,
		log: log.Component("indexer"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
	}
}

var _ mint.Indexer = (*Client)(nil)

func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := c.cfg.BaseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("indexer: rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(nil))
		if err != nil {
			return nil, fmt.Errorf("indexer: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("indexer: request failed: %w", err)
			if attempt < c.cfg.RetryAttempts {
				delay := c.cfg.RetryDelay * time.Duration(attempt+1)
				c.log.Debug("retrying after network error", "path", path, "attempt", attempt+1, "delay", delay, "err", err)
				time.Sleep(delay)
				continue
			}
			return nil, lastErr
		}

		body, err := readAndClose(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("indexer: read response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("indexer: rate limited by server (429)")
			if attempt < c.cfg.RetryAttempts {
				delay := c.cfg.RetryDelay * time.Duration(attempt+1) * 2
				c.log.Debug("backing off after 429", "path", path, "attempt", attempt+1, "delay", delay)
				time.Sleep(delay)
				continue
			}
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
			lastErr = fmt.Errorf("indexer: server error (%d): %s", resp.StatusCode, string(body))
			if attempt < c.cfg.RetryAttempts {
				delay := c.cfg.RetryDelay * time.Duration(attempt+1)
				c.log.Debug("retrying after server error", "path", path, "status", resp.StatusCode, "attempt", attempt+1, "delay", delay)
				time.Sleep(delay)
				continue
			}
		default:
			return nil, fmt.Errorf("indexer: unexpected status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("indexer: request failed after %d attempts: %w", c.cfg.RetryAttempts+1, lastErr)
}

func readAndClose(r io.ReadCloser) ([]byte, error) {
	defer r.Close()
	return io.ReadAll(r)
}

// utxoEntry is one element of the get_unspent_outputs /
// get_pending_unspent_outputs response array.
type utxoEntry struct {
	Txid  string `json:"txid"`
	Vout  uint32 `json:"vout"`
	Value int64  `json:"value"`
}

// GetUnspentOutputs implements mint.Indexer.
func (c *Client) GetUnspentOutputs(ctx context.Context, wallet string) (mint.UTXOSet, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/wallet/%s/utxos", wallet))
	if err != nil {
		return nil, err
	}
	return decodeUTXOSet(body)
}

// GetPendingUnspentOutputs implements mint.Indexer.
func (c *Client) GetPendingUnspentOutputs(ctx context.Context, wallet string) (mint.UTXOSet, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/wallet/%s/pending-utxos", wallet))
	if err != nil {
		return nil, err
	}
	return decodeUTXOSet(body)
}

func decodeUTXOSet(body []byte) (mint.UTXOSet, error) {
	var entries []utxoEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("indexer: decode utxo list: %w", err)
	}

	set := make(mint.UTXOSet, len(entries))
	for _, e := range entries {
		txid, err := chainhash.NewHashFromStr(e.Txid)
		if err != nil {
			return nil, fmt.Errorf("indexer: bad txid %q: %w", e.Txid, err)
		}
		set[wire.OutPoint{Hash: *txid, Index: e.Vout}] = btcutil.Amount(e.Value)
	}
	return set, nil
}

// inscriptionEntry is one element of the get_inscriptions response
// array: the outpoint string form "txid:vout" the indexer reports an
// inscription as living on.
type inscriptionEntry struct {
	Outpoint string `json:"outpoint"`
}

// GetInscriptions implements mint.Indexer.
func (c *Client) GetInscriptions(ctx context.Context) (mint.InscribedSet, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/inscriptions")
	if err != nil {
		return nil, err
	}

	var entries []inscriptionEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("indexer: decode inscription list: %w", err)
	}

	set := make(mint.InscribedSet, len(entries))
	for _, e := range entries {
		op, err := parseOutpoint(e.Outpoint)
		if err != nil {
			return nil, fmt.Errorf("indexer: bad outpoint %q: %w", e.Outpoint, err)
		}
		set[op] = struct{}{}
	}
	return set, nil
}

func parseOutpoint(s string) (wire.OutPoint, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return wire.OutPoint{}, fmt.Errorf("expected txid:vout")
	}

	txid, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return wire.OutPoint{}, err
	}

	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return wire.OutPoint{}, err
	}

	return wire.OutPoint{Hash: *txid, Index: uint32(vout)}, nil
}
