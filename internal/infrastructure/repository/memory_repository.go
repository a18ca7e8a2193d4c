package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"
)

// MemoryRepository keeps shops and webhook events in process memory.
// Used when no MongoDB is configured and in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	shops  map[string]domain.Shop
	events []domain.WebhookEvent
}

var (
	_ ports.ShopRepository  = (*MemoryRepository)(nil)
	_ ports.WebhookEventLog = (*MemoryRepository)(nil)
)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{shops: make(map[string]domain.Shop)}
}

func (r *MemoryRepository) SaveShop(ctx context.Context, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *shop
	stored.Scopes = append([]string(nil), shop.Scopes...)
	stored.UpdatedAt = time.Now()
	if existing, ok := r.shops[shop.Domain]; ok && stored.InstalledAt.IsZero() {
		stored.InstalledAt = existing.InstalledAt
	}
	if stored.InstalledAt.IsZero() {
		stored.InstalledAt = stored.UpdatedAt
	}
	r.shops[shop.Domain] = stored
	return nil
}

func (r *MemoryRepository) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shop, ok := r.shops[shopDomain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	return &shop, nil
}

func (r *MemoryRepository) DeleteShop(ctx context.Context, shopDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shops[shopDomain]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	delete(r.shops, shopDomain)
	return nil
}

func (r *MemoryRepository) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *event
	stored.Payload = append([]byte(nil), event.Payload...)
	r.events = append(r.events, stored)
	return nil
}

// Events returns a copy of the logged webhook events
func (r *MemoryRepository) Events() []domain.WebhookEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.WebhookEvent(nil), r.events...)
}
