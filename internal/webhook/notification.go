package webhook

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoItems is returned for an envelope without notification items.
var ErrNoItems = errors.New("webhook: notification contains no items")

// Amount is the notification amount in minor units.
type Amount struct {
	Currency string `json:"currency"`
	Value    *int64 `json:"value"`
}

// NotificationItem is a single status update from the payment provider.
type NotificationItem struct {
	AdditionalData      map[string]string `json:"additionalData,omitempty"`
	Amount              *Amount           `json:"amount,omitempty"`
	EventCode           string            `json:"eventCode"`
	EventDate           string            `json:"eventDate,omitempty"`
	MerchantAccountCode string            `json:"merchantAccountCode"`
	MerchantReference   string            `json:"merchantReference"`
	OriginalReference   string            `json:"originalReference,omitempty"`
	PaymentMethod       string            `json:"paymentMethod,omitempty"`
	PSPReference        string            `json:"pspReference"`
	Reason              string            `json:"reason,omitempty"`
	Success             string            `json:"success"`
	Operations          []string          `json:"operations,omitempty"`
}

// Succeeded reports the success flag. The provider encodes it as a string.
func (n NotificationItem) Succeeded() bool {
	return strings.EqualFold(strings.TrimSpace(n.Success), "true")
}

// Signature returns the base64 HMAC carried in additionalData, if any.
func (n NotificationItem) Signature() string {
	if n.AdditionalData == nil {
		return ""
	}
	return strings.TrimSpace(n.AdditionalData["hmacSignature"])
}

type itemWrapper struct {
	Item NotificationItem `json:"NotificationRequestItem"`
}

// Notification is the envelope POSTed to the webhook endpoint.
type Notification struct {
	Live              string        `json:"live"`
	NotificationItems []itemWrapper `json:"notificationItems"`
}

// Items returns the notification items in delivery order.
func (n Notification) Items() []NotificationItem {
	out := make([]NotificationItem, 0, len(n.NotificationItems))
	for _, w := range n.NotificationItems {
		out = append(out, w.Item)
	}
	return out
}

// ParseNotification decodes an envelope and rejects one without items.
func ParseNotification(body []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return Notification{}, err
	}
	if len(n.NotificationItems) == 0 {
		return Notification{}, ErrNoItems
	}
	return n, nil
}

// NewNotification wraps items in an envelope.
func NewNotification(live bool, items ...NotificationItem) Notification {
	n := Notification{Live: "false"}
	if live {
		n.Live = "true"
	}
	for _, it := range items {
		n.NotificationItems = append(n.NotificationItems, itemWrapper{Item: it})
	}
	return n
}
