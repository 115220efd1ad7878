package gateway

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KerjaQuest/KerjaQuest/internal/pkg/env"
	"github.com/google/uuid"
)

const (
	defaultSnapSandboxURL    = "https://app.sandbox.midtrans.com/snap/v1/transactions"
	defaultSnapProductionURL = "https://app.midtrans.com/snap/v1/transactions"
)

// Client talks to the Midtrans Snap API. It is a stateless collaborator;
// construct one per use or share freely.
type Client struct {
	ServerKey    string
	IsProduction bool
	SnapURL      string

	HTTPClient *http.Client
}

// Item is a line item forwarded to the gateway checkout page.
type Item struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// CheckoutRequest describes one payment to collect.
type CheckoutRequest struct {
	OrderID       string
	GrossAmount   int64
	CustomerName  string
	CustomerEmail string
	Items         []Item
}

// Checkout is the gateway's handle for a created transaction.
type Checkout struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// NotificationPayload is the raw shape of a Midtrans HTTP notification.
type NotificationPayload struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// NewClientFromEnv builds a client from MIDTRANS_* environment settings.
func NewClientFromEnv() *Client {
	isProduction := env.GetEnv("MIDTRANS_IS_PRODUCTION", "false") == "true"
	snapURL := strings.TrimSpace(env.GetEnv("MIDTRANS_SNAP_URL", ""))
	if snapURL == "" {
		snapURL = defaultSnapSandboxURL
		if isProduction {
			snapURL = defaultSnapProductionURL
		}
	}

	return &Client{
		ServerKey:    strings.TrimSpace(env.GetEnv("MIDTRANS_SERVER_KEY", "")),
		IsProduction: isProduction,
		SnapURL:      snapURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateTransaction registers a checkout with the gateway and returns the
// snap token plus redirect URL for the payer.
func (c *Client) CreateTransaction(ctx context.Context, in CheckoutRequest) (*Checkout, error) {
	if strings.TrimSpace(c.ServerKey) == "" {
		return nil, errors.New("MIDTRANS_SERVER_KEY is not configured")
	}
	if strings.TrimSpace(in.OrderID) == "" || in.GrossAmount <= 0 {
		return nil, errors.New("order id and a positive gross amount are required")
	}

	body := map[string]interface{}{
		"transaction_details": map[string]interface{}{
			"order_id":     in.OrderID,
			"gross_amount": in.GrossAmount,
		},
	}
	if in.CustomerName != "" || in.CustomerEmail != "" {
		body["customer_details"] = map[string]interface{}{
			"first_name": in.CustomerName,
			"email":      in.CustomerEmail,
		}
	}
	if len(in.Items) > 0 {
		body["item_details"] = in.Items
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SnapURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.ServerKey+":")))
	// Midtrans honors this header, so a retried request cannot create a
	// second transaction for the same checkout.
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("midtrans snap returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out Checkout
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("midtrans snap response is missing a token")
	}
	return &out, nil
}

// ParseNotification decodes a webhook body into its payload.
func ParseNotification(body []byte) (*NotificationPayload, error) {
	var p NotificationPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.OrderID) == "" {
		return nil, errors.New("notification is missing order_id")
	}
	return &p, nil
}

// VerifySignature checks the notification's signature_key, which Midtrans
// computes as SHA-512 over order_id + status_code + gross_amount + server
// key. Comparison is constant time.
func (c *Client) VerifySignature(p *NotificationPayload) bool {
	return VerifySignature(p, c.ServerKey)
}

// VerifySignature checks a notification signature against a server key.
func VerifySignature(p *NotificationPayload, serverKey string) bool {
	if p == nil || strings.TrimSpace(p.SignatureKey) == "" || strings.TrimSpace(serverKey) == "" {
		return false
	}
	sum := sha512.Sum512([]byte(p.OrderID + p.StatusCode + p.GrossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(p.SignatureKey)))) == 1
}
