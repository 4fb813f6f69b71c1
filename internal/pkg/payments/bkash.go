package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sohojbiniyog/biniyog/app/models"
	"github.com/sohojbiniyog/biniyog/internal/pkg/env"
)

const defaultBkashAPIBaseURL = "https://tokenized.sandbox.bka.sh/v1.2.0-beta"

// Checkout is what the investor's client acts on after a payment is started.
type Checkout struct {
	PaymentID   uint
	Reference   string
	CheckoutURL string
}

// GatewayClient abstracts the external payment provider's session API.
// Production talks to bKash; tests and unprovisioned environments get the
// local sandbox page.
type GatewayClient interface {
	StartCheckout(ctx context.Context, pay *models.Payment) (*Checkout, error)
}

// BkashClient creates tokenized checkout sessions against the bKash API. When
// no app key is configured it falls back to a local confirmation page so the
// flow stays walkable end to end without provider credentials.
type BkashClient struct {
	AppKey      string
	AppSecret   string
	Username    string
	Password    string
	APIBaseURL  string
	CallbackURL string

	HTTPClient *http.Client
}

// NewBkashClientFromEnv builds a client from BKASH_* environment configuration.
func NewBkashClientFromEnv() *BkashClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	callback := strings.TrimSpace(env.GetEnv("BKASH_CALLBACK_URL", ""))
	if callback == "" && base != "" {
		callback = base + "/payments/bkash/return"
	}

	return &BkashClient{
		AppKey:      strings.TrimSpace(env.GetEnv("BKASH_APP_KEY", "")),
		AppSecret:   strings.TrimSpace(env.GetEnv("BKASH_APP_SECRET", "")),
		Username:    strings.TrimSpace(env.GetEnv("BKASH_USERNAME", "")),
		Password:    strings.TrimSpace(env.GetEnv("BKASH_PASSWORD", "")),
		APIBaseURL:  strings.TrimSpace(env.GetEnv("BKASH_API_BASE_URL", defaultBkashAPIBaseURL)),
		CallbackURL: callback,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Sandbox reports whether the client runs without provider credentials.
func (c *BkashClient) Sandbox() bool {
	return c.AppKey == "" || c.AppSecret == ""
}

// StartCheckout creates a checkout session for a pending payment. The caller
// (Service.StartCheckout) has already verified the pending status; this checks
// again so the adapter is safe to use directly.
func (c *BkashClient) StartCheckout(ctx context.Context, pay *models.Payment) (*Checkout, error) {
	if pay == nil || pay.Status != models.PaymentStatusPending {
		return nil, ErrInvalidState
	}

	reference := uuid.NewString()
	if c.Sandbox() {
		return &Checkout{
			PaymentID:   pay.ID,
			Reference:   reference,
			CheckoutURL: fmt.Sprintf("/payments/bkash/start/%d", pay.ID),
		}, nil
	}

	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]string{
		"mode":                  "0011",
		"payerReference":        reference,
		"callbackURL":           c.CallbackURL,
		"amount":                pay.Amount.StringFixed(2),
		"currency":              pay.Currency,
		"intent":                "sale",
		"merchantInvoiceNumber": fmt.Sprintf("inv-%d", pay.ID),
	}
	var resp struct {
		PaymentID  string `json:"paymentID"`
		BkashURL   string `json:"bkashURL"`
		StatusCode string `json:"statusCode"`
		StatusMsg  string `json:"statusMessage"`
	}
	if err := c.post(ctx, "/tokenized/checkout/create", token, reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.BkashURL == "" {
		return nil, fmt.Errorf("bkash checkout create failed: %s %s", resp.StatusCode, resp.StatusMsg)
	}

	return &Checkout{
		PaymentID:   pay.ID,
		Reference:   resp.PaymentID,
		CheckoutURL: resp.BkashURL,
	}, nil
}

func (c *BkashClient) grantToken(ctx context.Context) (string, error) {
	if c.Username == "" || c.Password == "" {
		return "", errors.New("BKASH_USERNAME/BKASH_PASSWORD are not configured")
	}

	body, err := json.Marshal(map[string]string{
		"app_key":    c.AppKey,
		"app_secret": c.AppSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.APIBaseURL+"/tokenized/checkout/token/grant", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("username", c.Username)
	req.Header.Set("password", c.Password)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bkash token grant failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var grant struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(raw, &grant); err != nil {
		return "", err
	}
	if grant.IDToken == "" {
		return "", errors.New("bkash token grant returned no id_token")
	}
	return grant.IDToken, nil
}

func (c *BkashClient) post(ctx context.Context, path, token string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-App-Key", c.AppKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bkash %s failed: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, out)
}
