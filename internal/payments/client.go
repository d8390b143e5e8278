package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"billetter/internal/shared/apperror"
	"billetter/internal/shared/config"
	"billetter/pkg/logger"
)

// Currency is the only settlement currency the gateway accepts from us.
const Currency = "KZT"

const (
	pathInit    = "/api/v1/PaymentInit/init"
	pathCheck   = "/api/v1/PaymentCheck/check"
	pathConfirm = "/api/v1/PaymentConfirm/confirm"
)

// Client is the request/response codec for the payment gateway. Every
// call goes through the circuit breaker; errors come back already
// classified for the HTTP layer.
type Client struct {
	cfg        config.PaymentConfig
	cb         *CircuitBreaker
	httpClient *http.Client
}

func NewClient(cfg config.PaymentConfig, cb *CircuitBreaker) *Client {
	return &Client{
		cfg: cfg,
		cb:  cb,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Breaker returns the circuit breaker guarding this client's calls.
func (c *Client) Breaker() *CircuitBreaker {
	return c.cb
}

// initToken signs init and confirm requests:
// sha256(amount || currency || orderId || password || teamSlug).
func (c *Client) initToken(amount int64, currency, orderID string) string {
	raw := fmt.Sprintf("%d%s%s%s%s", amount, currency, orderID, c.cfg.Password, c.cfg.TeamSlug)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// checkToken signs check requests:
// sha256(paymentId || password || teamSlug).
func (c *Client) checkToken(paymentID string) string {
	raw := paymentID + c.cfg.Password + c.cfg.TeamSlug
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CreatePayment registers an order with the gateway and returns the
// payment id and redirect URL.
func (c *Client) CreatePayment(ctx context.Context, amount int64, orderID, description, email string) (*InitResponse, error) {
	if err := c.cb.Allow(); err != nil {
		return nil, err
	}

	req := InitRequest{
		TeamSlug:        c.cfg.TeamSlug,
		Token:           c.initToken(amount, Currency, orderID),
		Amount:          amount,
		OrderID:         orderID,
		Currency:        Currency,
		Description:     description,
		SuccessURL:      c.cfg.SuccessURL,
		FailURL:         c.cfg.FailURL,
		NotificationURL: c.cfg.WebhookURL,
		Email:           email,
		Language:        "ru",
	}

	var resp InitResponse
	if err := c.post(ctx, pathInit, req, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		code := 0
		if resp.Code != nil {
			code = *resp.Code
		}
		msg := "Неизвестная ошибка платежного шлюза"
		if resp.Message != nil {
			msg = *resp.Message
		}
		logger.GetDefault().Error("payment init rejected", "code", code, "message", msg)
		return nil, apperror.FromGatewayCode(code, msg)
	}

	return &resp, nil
}

// CheckPaymentStatus fetches the gateway-side status of a payment.
func (c *Client) CheckPaymentStatus(ctx context.Context, paymentID string) (*CheckResponse, error) {
	if err := c.cb.Allow(); err != nil {
		return nil, err
	}

	req := CheckRequest{
		TeamSlug:  c.cfg.TeamSlug,
		Token:     c.checkToken(paymentID),
		PaymentID: paymentID,
	}

	var resp CheckResponse
	if err := c.post(ctx, pathCheck, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmPayment captures an authorized payment.
func (c *Client) ConfirmPayment(ctx context.Context, paymentID string, amount int64, orderID string) (*ConfirmResponse, error) {
	if err := c.cb.Allow(); err != nil {
		return nil, err
	}

	req := ConfirmRequest{
		TeamSlug:  c.cfg.TeamSlug,
		Token:     c.initToken(amount, Currency, orderID),
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  Currency,
		OrderID:   orderID,
	}

	var resp ConfirmResponse
	if err := c.post(ctx, pathConfirm, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends one JSON request. Transport and server-side failures feed
// the breaker; a decodable response counts as gateway health.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.cb.RecordFailure()
		return apperror.Wrap(apperror.BadGateway, "Ошибка платежного шлюза. Повторите попытку позже.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.RecordFailure()
		return apperror.New(apperror.BadGateway, fmt.Sprintf("Платежный шлюз вернул статус %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.cb.RecordFailure()
		return apperror.Wrap(apperror.BadGateway, "Некорректный ответ платежного шлюза", err)
	}

	c.cb.RecordSuccess()
	return nil
}
