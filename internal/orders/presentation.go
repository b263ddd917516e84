package orders

import "github.com/pmcafe/kiosk/pkg/enums"

// StatusStyle is how a status is shown on the barista and admin screens.
type StatusStyle struct {
	Label string `json:"label"`
	Key   string `json:"key"`
	Tone  string `json:"tone"`
}

var statusStyles = map[enums.OrderStatus]StatusStyle{
	enums.OrderStatusPending:   {Label: "대기", Key: "pending", Tone: "yellow"},
	enums.OrderStatusMaking:    {Label: "제조중", Key: "making", Tone: "blue"},
	enums.OrderStatusCompleted: {Label: "완료", Key: "completed", Tone: "green"},
}

// StyleFor returns the presentation of status.
func StyleFor(status enums.OrderStatus) (StatusStyle, bool) {
	style, ok := statusStyles[status]
	return style, ok
}
