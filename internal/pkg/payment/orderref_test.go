package payment

import (
	"strings"
	"testing"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderRef(t *testing.T) {
	tests := []struct {
		name        string
		paymentType string
		paymentID   uint
		prefix      string
	}{
		{"job post", models.PaymentTypeJobPost, 7, "JOBPOST"},
		{"quota", models.PaymentTypeQuestQuota, 42, "QUOTA"},
		{"subscription", models.PaymentTypeQuestSubscription, 3, "SUBS"},
		{"unknown type falls back", "SOMETHING_ELSE", 9, "PAY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := BuildOrderRef(tt.paymentType, tt.paymentID)
			parts := strings.Split(ref, "-")
			require.Len(t, parts, 3)
			assert.Equal(t, tt.prefix, parts[0])

			id, err := ParseOrderRef(ref)
			require.NoError(t, err)
			assert.Equal(t, tt.paymentID, id)
		})
	}
}

func TestParseOrderRef(t *testing.T) {
	tests := []struct {
		name     string
		orderRef string
		wantID   uint
		wantErr  bool
	}{
		{"valid", "SUBS-15-1700000000000", 15, false},
		{"no timestamp still resolves", "QUOTA-8", 8, false},
		{"missing id", "JOBPOST", 0, true},
		{"non numeric id", "JOBPOST-abc-123", 0, true},
		{"zero id", "JOBPOST-0-123", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseOrderRef(tt.orderRef)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOrderRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
