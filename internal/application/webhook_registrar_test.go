package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopify-oauth-layer/internal/domain"

	"github.com/rs/zerolog"
)

const registrarShop = "xg-dev.myshopify.com"

func newTestRegistrar(t *testing.T, client *fakeShopify, timeout time.Duration, onResult func(RegistrationResult)) *WebhookRegistrar {
	t.Helper()
	shops := newFakeShops()
	if err := shops.SaveShop(context.Background(), &domain.Shop{Domain: registrarShop, AccessToken: "sealed:shpat_1"}); err != nil {
		t.Fatalf("save shop: %v", err)
	}
	return NewWebhookRegistrar(client, shops, prefixSealer{}, timeout, zerolog.Nop(), onResult)
}

func TestRegistrarDetachedFromRequest(t *testing.T) {
	client := &fakeShopify{webhookBlock: make(chan struct{})}
	results := make(chan RegistrationResult, 1)
	registrar := newTestRegistrar(t, client, time.Second, func(r RegistrationResult) { results <- r })

	reqCtx, cancel := context.WithCancel(context.Background())
	registrar.Register(reqCtx, registrarShop, "orders/create", "https://app.example.com/webhook/order_placed")
	cancel()
	close(client.webhookBlock)

	result := <-results
	if result.Err != nil {
		t.Fatalf("registration failed after request ended: %v", result.Err)
	}
	if result.Subscription.ID != 42 || result.Subscription.Format != "json" {
		t.Fatalf("subscription = %+v", result.Subscription)
	}
	if len(client.webhookTokens) != 1 || client.webhookTokens[0] != "shpat_1" {
		t.Fatalf("tokens used = %v", client.webhookTokens)
	}
}

func TestRegistrarTimeout(t *testing.T) {
	client := &fakeShopify{webhookBlock: make(chan struct{})}
	results := make(chan RegistrationResult, 1)
	registrar := newTestRegistrar(t, client, 20*time.Millisecond, func(r RegistrationResult) { results <- r })

	registrar.Register(context.Background(), registrarShop, "orders/create", "https://app.example.com/hook")

	result := <-results
	if !errors.Is(result.Err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", result.Err)
	}
}

func TestRegistrarFailureReported(t *testing.T) {
	client := &fakeShopify{webhookErr: errors.New("status 422")}
	results := make(chan RegistrationResult, 1)
	registrar := newTestRegistrar(t, client, time.Second, func(r RegistrationResult) { results <- r })

	id := registrar.Register(context.Background(), registrarShop, "orders/create", "https://app.example.com/hook")
	result := <-results
	if result.Err == nil || result.TaskID != id {
		t.Fatalf("result = %+v", result)
	}
}

func TestRegistrarUnknownShop(t *testing.T) {
	client := &fakeShopify{}
	results := make(chan RegistrationResult, 1)
	registrar := newTestRegistrar(t, client, time.Second, func(r RegistrationResult) { results <- r })

	registrar.Register(context.Background(), "other.myshopify.com", "orders/create", "https://app.example.com/hook")
	result := <-results
	if !errors.Is(result.Err, domain.ErrShopNotFound) {
		t.Fatalf("err = %v, want ErrShopNotFound", result.Err)
	}
	if len(client.webhookCalls) != 0 {
		t.Fatalf("webhook created without a stored token: %v", client.webhookCalls)
	}
}

func TestRegistrarWait(t *testing.T) {
	client := &fakeShopify{webhookBlock: make(chan struct{})}
	registrar := newTestRegistrar(t, client, time.Minute, nil)
	registrar.Register(context.Background(), registrarShop, "orders/create", "https://app.example.com/hook")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := registrar.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait with pending task = %v", err)
	}

	close(client.webhookBlock)
	if err := registrar.Wait(context.Background()); err != nil {
		t.Fatalf("Wait = %v", err)
	}
	if len(client.webhookCalls) != 1 {
		t.Fatalf("webhook calls = %v", client.webhookCalls)
	}
}
