package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
)

// ErrInvalidOrderRef is returned when a gateway order reference cannot be
// parsed back to a payment id.
var ErrInvalidOrderRef = errors.New("payment: invalid order reference")

// Order reference prefixes by payment purpose.
const (
	OrderPrefixJobPost      = "JOBPOST"
	OrderPrefixQuota        = "QUOTA"
	OrderPrefixSubscription = "SUBS"
)

// OrderPrefixForType returns the order reference prefix for a payment type.
func OrderPrefixForType(paymentType string) string {
	switch paymentType {
	case models.PaymentTypeJobPost:
		return OrderPrefixJobPost
	case models.PaymentTypeQuestQuota:
		return OrderPrefixQuota
	case models.PaymentTypeQuestSubscription:
		return OrderPrefixSubscription
	default:
		return "PAY"
	}
}

// BuildOrderRef creates the gateway order id for a payment, in the form
// {PREFIX}-{paymentID}-{unixMilli}. The trailing timestamp keeps retried
// checkouts unique on the gateway side; only the middle token matters for
// resolution.
func BuildOrderRef(paymentType string, paymentID uint) string {
	return fmt.Sprintf("%s-%d-%d", OrderPrefixForType(paymentType), paymentID, time.Now().UnixMilli())
}

// ParseOrderRef extracts the payment id from an order reference.
func ParseOrderRef(orderRef string) (uint, error) {
	parts := strings.Split(orderRef, "-")
	if len(parts) < 2 {
		return 0, ErrInvalidOrderRef
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidOrderRef
	}
	return uint(id), nil
}
