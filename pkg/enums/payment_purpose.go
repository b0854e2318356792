package enums

import "fmt"

// PaymentPurpose describes what a payment intent is paying for. Only content
// purchases flow through settlement; tips are paid out directly.
type PaymentPurpose string

const (
	PaymentPurposeContentPurchase PaymentPurpose = "content_purchase"
	PaymentPurposeTip             PaymentPurpose = "tip"
)

var validPaymentPurposes = []PaymentPurpose{
	PaymentPurposeContentPurchase,
	PaymentPurposeTip,
}

// String implements fmt.Stringer.
func (p PaymentPurpose) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentPurpose.
func (p PaymentPurpose) IsValid() bool {
	for _, candidate := range validPaymentPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentPurpose converts raw input into a PaymentPurpose.
func ParsePaymentPurpose(value string) (PaymentPurpose, error) {
	for _, candidate := range validPaymentPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment purpose %q", value)
}
