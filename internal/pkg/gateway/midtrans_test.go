package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedPayload(orderID, statusCode, grossAmount, serverKey string) *NotificationPayload {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return &NotificationPayload{
		OrderID:      orderID,
		StatusCode:   statusCode,
		GrossAmount:  grossAmount,
		SignatureKey: hex.EncodeToString(sum[:]),
	}
}

func TestVerifySignature(t *testing.T) {
	serverKey := "SB-Mid-server-testkey"
	payload := signedPayload("SUBS-1-1700000000000", "200", "250000.00", serverKey)

	assert.True(t, VerifySignature(payload, serverKey))
	assert.False(t, VerifySignature(payload, "some-other-key"))

	tampered := *payload
	tampered.GrossAmount = "1.00"
	assert.False(t, VerifySignature(&tampered, serverKey))

	assert.False(t, VerifySignature(nil, serverKey))
	assert.False(t, VerifySignature(&NotificationPayload{OrderID: "x"}, serverKey))
	assert.False(t, VerifySignature(payload, ""))
}

func TestParseNotification(t *testing.T) {
	payload, err := ParseNotification([]byte(`{
		"order_id": "QUOTA-5-1700000000000",
		"transaction_id": "abc-123",
		"transaction_status": "settlement",
		"status_code": "200",
		"gross_amount": "75000.00"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "QUOTA-5-1700000000000", payload.OrderID)
	assert.Equal(t, "settlement", payload.TransactionStatus)

	_, err = ParseNotification([]byte(`{"transaction_status": "settlement"}`))
	assert.Error(t, err)

	_, err = ParseNotification([]byte(`not json`))
	assert.Error(t, err)
}

func TestCreateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"snap-token-123","redirect_url":"https://example.test/pay"}`))
	}))
	defer srv.Close()

	client := &Client{
		ServerKey:  "SB-Mid-server-testkey",
		SnapURL:    srv.URL,
		HTTPClient: srv.Client(),
	}

	checkout, err := client.CreateTransaction(context.Background(), CheckoutRequest{
		OrderID:     "JOBPOST-9-1700000000000",
		GrossAmount: 50000,
	})
	require.NoError(t, err)
	assert.Equal(t, "snap-token-123", checkout.Token)
	assert.Equal(t, "https://example.test/pay", checkout.RedirectURL)
}

func TestCreateTransactionValidation(t *testing.T) {
	client := &Client{ServerKey: "key", SnapURL: "http://localhost", HTTPClient: http.DefaultClient}

	_, err := client.CreateTransaction(context.Background(), CheckoutRequest{GrossAmount: 100})
	assert.Error(t, err)

	_, err = client.CreateTransaction(context.Background(), CheckoutRequest{OrderID: "X-1-1"})
	assert.Error(t, err)

	noKey := &Client{SnapURL: "http://localhost", HTTPClient: http.DefaultClient}
	_, err = noKey.CreateTransaction(context.Background(), CheckoutRequest{OrderID: "X-1-1", GrossAmount: 100})
	assert.Error(t, err)
}

func TestCreateTransactionGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_messages":["unauthorized"]}`))
	}))
	defer srv.Close()

	client := &Client{ServerKey: "bad-key", SnapURL: srv.URL, HTTPClient: srv.Client()}
	_, err := client.CreateTransaction(context.Background(), CheckoutRequest{
		OrderID:     "JOBPOST-9-1700000000000",
		GrossAmount: 50000,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
