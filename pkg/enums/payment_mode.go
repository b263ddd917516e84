package enums

import "fmt"

// PaymentMode is how the customer settles an order.
type PaymentMode string

const (
	// PaymentModePersonal is a self-attested QR transfer.
	PaymentModePersonal PaymentMode = "PERSONAL"
	// PaymentModeCell debits the cell's prepaid balance.
	PaymentModeCell PaymentMode = "CELL"
)

var validPaymentModes = []PaymentMode{
	PaymentModePersonal,
	PaymentModeCell,
}

// String implements fmt.Stringer.
func (m PaymentMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMode.
func (m PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts raw input into a PaymentMode.
func ParsePaymentMode(value string) (PaymentMode, error) {
	for _, candidate := range validPaymentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}
