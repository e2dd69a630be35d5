package notifications

import (
	"time"

	"github.com/parceltrack/logistics-backend/pkg/db/models"
)

// Item is the transit shape of a notification. The legacy clients expect
// is_read as the strings "true"/"false" rather than a JSON boolean, so the
// field stays a string here.
type Item struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Message           string  `json:"message"`
	NotificationType  string  `json:"notification_type"`
	IsRead            string  `json:"is_read"`
	ActionURL         *string `json:"action_url,omitempty"`
	RelatedDeliveryID *string `json:"related_delivery_id,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// ItemFromModel converts a stored notification into its transit shape.
func ItemFromModel(n models.Notification) Item {
	item := Item{
		ID:               n.ID.String(),
		Title:            n.Title,
		Message:          n.Message,
		NotificationType: string(n.Type),
		IsRead:           "false",
		ActionURL:        n.ActionURL,
		CreatedAt:        n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if n.IsRead() {
		item.IsRead = "true"
	}
	if n.DeliveryID != nil {
		id := n.DeliveryID.String()
		item.RelatedDeliveryID = &id
	}
	return item
}

// ItemsFromModels maps a slice of stored notifications, never returning nil
// so the JSON encodes as an empty array.
func ItemsFromModels(rows []models.Notification) []Item {
	items := make([]Item, 0, len(rows))
	for _, n := range rows {
		items = append(items, ItemFromModel(n))
	}
	return items
}
