package webhook_handlers

import (
	"context"
	"errors"
	"testing"

	"shopify-oauth-layer/internal/domain"

	"github.com/rs/zerolog"
)

type deletingShops struct {
	shops   map[string]bool
	deleted []string
	err     error
}

func (r *deletingShops) SaveShop(ctx context.Context, shop *domain.Shop) error {
	r.shops[shop.Domain] = true
	return nil
}

func (r *deletingShops) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	if !r.shops[shopDomain] {
		return nil, domain.ErrShopNotFound
	}
	return &domain.Shop{Domain: shopDomain}, nil
}

func (r *deletingShops) DeleteShop(ctx context.Context, shopDomain string) error {
	if r.err != nil {
		return r.err
	}
	if !r.shops[shopDomain] {
		return domain.ErrShopNotFound
	}
	delete(r.shops, shopDomain)
	r.deleted = append(r.deleted, shopDomain)
	return nil
}

func uninstallEvent(shop, payload string) *domain.WebhookEvent {
	return &domain.WebhookEvent{ID: "evt-2", Topic: domain.TopicAppUninstalled, Shop: shop, Payload: []byte(payload)}
}

func TestAppUninstalledHandlerCanHandle(t *testing.T) {
	h := NewAppUninstalledHandler(&deletingShops{}, zerolog.Nop())
	if !h.CanHandle("app/uninstalled") || h.CanHandle("orders/create") {
		t.Fatal("unexpected topic matching")
	}
}

func TestAppUninstalledHandlerDeletesShop(t *testing.T) {
	repo := &deletingShops{shops: map[string]bool{"xg-dev.myshopify.com": true}}
	h := NewAppUninstalledHandler(repo, zerolog.Nop())

	if err := h.Handle(context.Background(), uninstallEvent("xg-dev.myshopify.com", `{"id":1}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "xg-dev.myshopify.com" {
		t.Fatalf("deleted = %v", repo.deleted)
	}
}

func TestAppUninstalledHandlerShopFromPayload(t *testing.T) {
	repo := &deletingShops{shops: map[string]bool{"xg-dev.myshopify.com": true}}
	h := NewAppUninstalledHandler(repo, zerolog.Nop())

	if err := h.Handle(context.Background(), uninstallEvent("", `{"domain":"shop.example.com","myshopify_domain":"xg-dev.myshopify.com"}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("deleted = %v", repo.deleted)
	}
}

func TestAppUninstalledHandlerUnknownShop(t *testing.T) {
	h := NewAppUninstalledHandler(&deletingShops{shops: map[string]bool{}}, zerolog.Nop())
	if err := h.Handle(context.Background(), uninstallEvent("other.myshopify.com", `{}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestAppUninstalledHandlerStorageFailure(t *testing.T) {
	repo := &deletingShops{shops: map[string]bool{"xg-dev.myshopify.com": true}, err: errors.New("mongo down")}
	h := NewAppUninstalledHandler(repo, zerolog.Nop())
	if err := h.Handle(context.Background(), uninstallEvent("xg-dev.myshopify.com", `{}`)); err == nil {
		t.Fatal("expected error")
	}
}
