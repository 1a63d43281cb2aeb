package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"fundhub/internal/delegation"
	"fundhub/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("chain: api key is required")

// Options configures the chain gateway client.
type Options struct {
	APIKey         string
	BaseURL        string
	ExplorerURL    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	// MaxElapsed bounds the total retry time for one call. Zero disables retries.
	MaxElapsed time.Duration
}

// HTTPClient performs calls against the chain gateway REST API.
type HTTPClient struct {
	apiKey      string
	baseURL     string
	explorerURL string
	maxElapsed  time.Duration
	newBackOff  func() backoff.BackOff
	httpClient  *http.Client
	logger      *infra.Logger
}

type submitResponse struct {
	TxHash string `json:"txHash"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewHTTPClient constructs a client with sane defaults and injected dependencies.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("chain: base url is required")
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	return &HTTPClient{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		explorerURL: strings.TrimSpace(opts.ExplorerURL),
		maxElapsed:  opts.MaxElapsed,
		newBackOff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *HTTPClient) HasCredentials() bool {
	return c.apiKey != ""
}

// TxLink returns the explorer link for a transaction hash.
func (c *HTTPClient) TxLink(txHash string) string {
	if c.explorerURL == "" || txHash == "" {
		return ""
	}
	return c.explorerURL + txHash
}

// Delegate submits a delegation of the selected donations.
func (c *HTTPClient) Delegate(ctx context.Context, req delegation.ChainRequest) (Handle, error) {
	if len(req.DonationIDs) == 0 {
		return Handle{}, &Error{Op: "delegate", Message: "no donations selected"}
	}
	var resp submitResponse
	if err := c.call(ctx, "delegate", http.MethodPost, "/v1/delegations", req, &resp); err != nil {
		return Handle{}, err
	}
	return c.handle(resp)
}

// Withdraw submits a milestone payout.
func (c *HTTPClient) Withdraw(ctx context.Context, req WithdrawRequest) (Handle, error) {
	if req.MilestoneID == "" || req.RecipientAddress == "" {
		return Handle{}, &Error{Op: "withdraw", Message: "milestone and recipient are required"}
	}
	var resp submitResponse
	path := "/v1/milestones/" + url.PathEscape(req.MilestoneID) + "/withdraw"
	if err := c.call(ctx, "withdraw", http.MethodPost, path, req, &resp); err != nil {
		return Handle{}, err
	}
	return c.handle(resp)
}

// Status fetches the current state of a transaction.
func (c *HTTPClient) Status(ctx context.Context, txHash string) (TxStatus, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return TxStatus{}, &Error{Op: "status", Message: "tx hash is required"}
	}
	var st TxStatus
	if err := c.call(ctx, "status", http.MethodGet, "/v1/tx/"+url.PathEscape(txHash), nil, &st); err != nil {
		return TxStatus{}, err
	}
	if st.TxHash == "" {
		st.TxHash = txHash
	}
	if st.State == "" {
		st.State = TxUnknown
	}
	return st, nil
}

func (c *HTTPClient) handle(resp submitResponse) (Handle, error) {
	if resp.TxHash == "" {
		return Handle{}, &Error{Op: "submit", Message: "gateway returned no tx hash"}
	}
	return Handle{TxHash: resp.TxHash, TxLink: c.TxLink(resp.TxHash)}, nil
}

// call runs one request, retrying transient failures with exponential
// backoff when MaxElapsed is set.
func (c *HTTPClient) call(ctx context.Context, op, method, path string, body, out any) error {
	if !c.HasCredentials() {
		return ErrMissingAPIKey
	}
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chain: encode %s request: %w", op, err)
		}
		payload = raw
	}

	operation := func() ([]byte, error) {
		raw, err := c.do(ctx, op, method, path, payload)
		if err == nil {
			return raw, nil
		}
		var chainErr *Error
		if !errors.As(err, &chainErr) || !chainErr.Retryable() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var (
		raw []byte
		err error
	)
	if c.maxElapsed > 0 {
		raw, err = backoff.Retry(ctx, operation,
			backoff.WithBackOff(c.newBackOff()),
			backoff.WithMaxElapsedTime(c.maxElapsed),
		)
	} else {
		raw, err = c.do(ctx, op, method, path, payload)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Msg("chain gateway call failed")
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: op, Message: "decode response: " + err.Error()}
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("chain: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Message: "read response: " + err.Error()}
	}
	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			msg = detail.Message
		}
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	c.logger.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("chain gateway call")
	return raw, nil
}

var _ Client = (*HTTPClient)(nil)
