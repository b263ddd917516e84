package enums

import "fmt"

// KioskView is the screen a kiosk session is currently on.
type KioskView string

const (
	KioskViewHome          KioskView = "HOME"
	KioskViewCellAuth      KioskView = "CELL_AUTH"
	KioskViewMenu          KioskView = "MENU"
	KioskViewPaymentQR     KioskView = "PAYMENT_QR"
	KioskViewOrderComplete KioskView = "ORDER_COMPLETE"
)

var validKioskViews = []KioskView{
	KioskViewHome,
	KioskViewCellAuth,
	KioskViewMenu,
	KioskViewPaymentQR,
	KioskViewOrderComplete,
}

// String implements fmt.Stringer.
func (v KioskView) String() string {
	return string(v)
}

// IsValid reports whether the value is a known KioskView.
func (v KioskView) IsValid() bool {
	for _, candidate := range validKioskViews {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseKioskView converts raw input into a KioskView.
func ParseKioskView(value string) (KioskView, error) {
	for _, candidate := range validKioskViews {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kiosk view %q", value)
}
