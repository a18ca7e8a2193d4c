package entity

import (
	"reflect"
	"testing"
	"time"

	"shopify-oauth-layer/internal/domain"
)

func TestShopDocConversion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	shop := &domain.Shop{
		Domain:      "xg-dev.myshopify.com",
		AccessToken: "sealed",
		Scopes:      []string{"read_products"},
		InstalledAt: now,
		UpdatedAt:   now,
	}
	if got := MongoShopDocFromDomain(shop).ToDomain(); !reflect.DeepEqual(got, shop) {
		t.Fatalf("round trip = %+v, want %+v", got, shop)
	}
}

func TestWebhookDocKeepsPayloadAsText(t *testing.T) {
	event := &domain.WebhookEvent{
		ID:      "evt-1",
		Topic:   domain.TopicOrdersCreate,
		Shop:    "xg-dev.myshopify.com",
		Payload: []byte(`{"id":1}`),
	}
	doc := MongoWebhookDocFromDomain(event)
	if doc.Payload != `{"id":1}` {
		t.Fatalf("payload = %q", doc.Payload)
	}
	if got := doc.ToDomain(); string(got.Payload) != `{"id":1}` || got.ID != "evt-1" {
		t.Fatalf("ToDomain = %+v", got)
	}
}
