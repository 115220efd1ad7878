package payment

import (
	"strings"

	"github.com/KerjaQuest/KerjaQuest/app/models"
)

// Gateway transaction statuses we recognize.
const (
	TransactionCapture    = "capture"
	TransactionSettlement = "settlement"
	TransactionCancel     = "cancel"
	TransactionDeny       = "deny"
	TransactionExpire     = "expire"
)

// Fraud statuses reported alongside captures.
const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
)

// DeriveStatus maps a gateway-reported transaction status and fraud status
// to an internal payment status. Capture or settlement with an accepted or
// absent fraud check succeeds; a challenged capture stays pending until
// re-notified; cancel, deny and expire fail. Anything unrecognized stays
// PENDING so an unknown gateway state can never release a resource.
func DeriveStatus(transactionStatus, fraudStatus string) string {
	ts := strings.ToLower(strings.TrimSpace(transactionStatus))
	fs := strings.ToLower(strings.TrimSpace(fraudStatus))

	switch ts {
	case TransactionCapture, TransactionSettlement:
		if fs == FraudAccept || fs == "" {
			return models.PaymentStatusSuccess
		}
		return models.PaymentStatusPending
	case TransactionCancel, TransactionDeny, TransactionExpire:
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}
