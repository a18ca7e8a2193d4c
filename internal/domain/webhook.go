package domain

import "time"

// Webhook topics this service registers for or understands
const (
	TopicOrdersCreate   = "orders/create"
	TopicAppUninstalled = "app/uninstalled"
)

// WebhookFormat is the delivery format requested from Shopify
const WebhookFormat = "json"

// WebhookEvent represents a received Shopify webhook delivery
type WebhookEvent struct {
	ID         string    `json:"id" bson:"eventId"`
	Topic      string    `json:"topic" bson:"topic"`
	Shop       string    `json:"shop" bson:"shop"`
	Payload    []byte    `json:"payload" bson:"payload"`
	Verified   bool      `json:"verified" bson:"verified"`
	ReceivedAt time.Time `json:"received_at" bson:"receivedAt"`
}

// WebhookSubscription is the result of registering a webhook with Shopify
type WebhookSubscription struct {
	ID      uint64 `json:"id"`
	Shop    string `json:"shop"`
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format"`
}
