package repository

import (
	"context"
	"errors"
	"testing"

	"shopify-oauth-layer/internal/domain"
)

func TestMemoryRepositoryShops(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.GetShop(ctx, "xg-dev.myshopify.com"); !errors.Is(err, domain.ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", err)
	}

	shop := &domain.Shop{Domain: "xg-dev.myshopify.com", AccessToken: "sealed-1", Scopes: []string{"read_products"}}
	if err := repo.SaveShop(ctx, shop); err != nil {
		t.Fatalf("save: %v", err)
	}
	first, err := repo.GetShop(ctx, "xg-dev.myshopify.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.AccessToken != "sealed-1" || first.InstalledAt.IsZero() {
		t.Fatalf("stored shop = %+v", first)
	}

	shop.AccessToken = "sealed-2"
	if err := repo.SaveShop(ctx, shop); err != nil {
		t.Fatalf("resave: %v", err)
	}
	second, _ := repo.GetShop(ctx, "xg-dev.myshopify.com")
	if second.AccessToken != "sealed-2" {
		t.Fatalf("token not updated: %+v", second)
	}
	if !second.InstalledAt.Equal(first.InstalledAt) {
		t.Fatalf("install time changed on reinstall: %v -> %v", first.InstalledAt, second.InstalledAt)
	}

	if err := repo.DeleteShop(ctx, "xg-dev.myshopify.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteShop(ctx, "xg-dev.myshopify.com"); !errors.Is(err, domain.ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound on second delete, got %v", err)
	}
}

func TestMemoryRepositoryLogWebhook(t *testing.T) {
	repo := NewMemoryRepository()
	payload := []byte(`{"id":1}`)
	if err := repo.LogWebhook(context.Background(), &domain.WebhookEvent{ID: "e1", Topic: domain.TopicOrdersCreate, Payload: payload}); err != nil {
		t.Fatalf("log: %v", err)
	}
	payload[0] = 'X'

	events := repo.Events()
	if len(events) != 1 || string(events[0].Payload) != `{"id":1}` {
		t.Fatalf("events = %+v", events)
	}
}
