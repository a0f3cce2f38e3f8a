package zota

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 10 * time.Second

// Client talks to the deposit API over HTTPS. All calls carry a bounded
// timeout; a timed-out call surfaces as a SubmissionError or LookupError at
// the service layer, never as a hang.
type Client struct {
	apiBase    string
	merchantID string
	secretKey  string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a deposit API client for the given credentials.
func NewClient(apiBase, merchantID, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		apiBase:    apiBase,
		merchantID: merchantID,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type depositEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    *DepositResult `json:"data"`
}

type statusEnvelope struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Data    *OrderStatusResult `json:"data"`
}

// Deposit submits a deposit request. The request signature is computed here
// so callers never handle the merchant secret.
func (c *Client) Deposit(ctx context.Context, req *DepositRequest) (*DepositResult, error) {
	req.Signature = SignDeposit(req.EndpointID, req.MerchantOrderID, req.OrderAmount, req.CustomerEmail, c.secretKey)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode deposit request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/deposit/request/%s/", c.apiBase, req.EndpointID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build deposit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.SubmissionError{Code: "network", Message: err.Error()}
	}
	defer resp.Body.Close()

	var env depositEnvelope
	if err := decodeEnvelope(resp.Body, &env); err != nil {
		return nil, &domain.SubmissionError{Code: strconv.Itoa(resp.StatusCode), Message: err.Error()}
	}
	if env.Code != "200" || env.Data == nil {
		return nil, &domain.SubmissionError{Code: env.Code, Message: env.Message}
	}
	if env.Data.DepositURL == "" {
		return nil, &domain.SubmissionError{Code: env.Code, Message: "deposit response carries no redirect URL"}
	}

	zap.L().Debug("deposit accepted",
		zap.String("merchant_order_id", env.Data.MerchantOrderID),
		zap.String("processor_order_id", env.Data.ProcessorOrderID),
	)
	return env.Data, nil
}

// OrderStatus queries the processor for the current status of an order.
func (c *Client) OrderStatus(ctx context.Context, req *OrderStatusRequest) (*OrderStatusResult, error) {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sig := SignOrderStatus(c.merchantID, req.MerchantOrderID, req.ProcessorOrderID, ts, c.secretKey)

	query := url.Values{}
	query.Set("merchantID", c.merchantID)
	query.Set("merchantOrderID", req.MerchantOrderID)
	query.Set("orderID", req.ProcessorOrderID)
	query.Set("timestamp", ts)
	query.Set("signature", sig)

	endpoint := fmt.Sprintf("%s/api/v1/query/order-status/?%s", c.apiBase, query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("status query: %w", err)
	}
	defer resp.Body.Close()

	var env statusEnvelope
	if err := decodeEnvelope(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	if env.Code != "200" || env.Data == nil {
		return nil, fmt.Errorf("status query rejected: (%s) %s", env.Code, env.Message)
	}
	return env.Data, nil
}

func decodeEnvelope(r io.Reader, v any) error {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
