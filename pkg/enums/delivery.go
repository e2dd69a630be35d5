package enums

import "fmt"

// DeliveryStatus keeps the human-readable values the legacy system stored.
type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "Pending"
	DeliveryStatusInProgress DeliveryStatus = "In Progress"
	DeliveryStatusDelivered  DeliveryStatus = "Delivered"
	DeliveryStatusCancelled  DeliveryStatus = "Cancelled"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusInProgress,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
}

func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (d DeliveryStatus) IsTerminal() bool {
	return d == DeliveryStatusDelivered || d == DeliveryStatusCancelled
}

func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
