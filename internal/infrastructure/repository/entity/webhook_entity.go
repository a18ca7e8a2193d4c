package entity

import (
	"time"

	"shopify-oauth-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoWebhookDoc represents a received webhook delivery in MongoDB
type MongoWebhookDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EventID    string             `bson:"eventId"`
	Topic      string             `bson:"topic"`
	Shop       string             `bson:"shop"`
	Payload    string             `bson:"payload"`
	Verified   bool               `bson:"verified"`
	ReceivedAt time.Time          `bson:"receivedAt"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// MongoWebhookDocFromDomain converts a webhook event to a MongoDB document.
// The payload is kept as text so the stored order stays readable in the shell.
func MongoWebhookDocFromDomain(event *domain.WebhookEvent) *MongoWebhookDoc {
	return &MongoWebhookDoc{
		EventID:    event.ID,
		Topic:      event.Topic,
		Shop:       event.Shop,
		Payload:    string(event.Payload),
		Verified:   event.Verified,
		ReceivedAt: event.ReceivedAt,
	}
}

// ToDomain converts the MongoDB document to a webhook event
func (d *MongoWebhookDoc) ToDomain() *domain.WebhookEvent {
	return &domain.WebhookEvent{
		ID:         d.EventID,
		Topic:      d.Topic,
		Shop:       d.Shop,
		Payload:    []byte(d.Payload),
		Verified:   d.Verified,
		ReceivedAt: d.ReceivedAt,
	}
}
