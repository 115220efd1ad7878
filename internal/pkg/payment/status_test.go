package payment

import (
	"testing"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name              string
		transactionStatus string
		fraudStatus       string
		expected          string
	}{
		{
			name:              "settlement is success",
			transactionStatus: TransactionSettlement,
			expected:          models.PaymentStatusSuccess,
		},
		{
			name:              "capture with accepted fraud check is success",
			transactionStatus: TransactionCapture,
			fraudStatus:       FraudAccept,
			expected:          models.PaymentStatusSuccess,
		},
		{
			name:              "capture without fraud status is success",
			transactionStatus: TransactionCapture,
			expected:          models.PaymentStatusSuccess,
		},
		{
			name:              "challenged capture stays pending",
			transactionStatus: TransactionCapture,
			fraudStatus:       FraudChallenge,
			expected:          models.PaymentStatusPending,
		},
		{
			name:              "cancel is failed",
			transactionStatus: TransactionCancel,
			expected:          models.PaymentStatusFailed,
		},
		{
			name:              "deny is failed",
			transactionStatus: TransactionDeny,
			expected:          models.PaymentStatusFailed,
		},
		{
			name:              "expire is failed",
			transactionStatus: TransactionExpire,
			expected:          models.PaymentStatusFailed,
		},
		{
			name:              "pending stays pending",
			transactionStatus: "pending",
			expected:          models.PaymentStatusPending,
		},
		{
			name:              "unknown status stays pending",
			transactionStatus: "refund",
			expected:          models.PaymentStatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveStatus(tt.transactionStatus, tt.fraudStatus))
		})
	}
}
