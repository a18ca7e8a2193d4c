package ports

import (
	"context"

	"shopify-oauth-layer/internal/domain"
)

// SessionStore persists OAuth state between the install redirect and the callback
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	// Consume returns the session and removes it, so each state is accepted once.
	// Unknown states yield domain.ErrSessionNotFound.
	Consume(ctx context.Context, state string) (*domain.Session, error)
}

// ShopRepository persists installed shops and their sealed access tokens
type ShopRepository interface {
	SaveShop(ctx context.Context, shop *domain.Shop) error
	// GetShop yields domain.ErrShopNotFound for unknown shops.
	GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error)
	DeleteShop(ctx context.Context, shopDomain string) error
}

// WebhookEventLog records received webhook deliveries
type WebhookEventLog interface {
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
}

// EncryptionService seals secrets before they reach storage
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// OrderPublisher forwards received orders to downstream consumers
type OrderPublisher interface {
	PublishOrder(ctx context.Context, shop string, order *domain.OrderPayload) error
}

// TokenSealer seals access tokens for storage and opens them again
type TokenSealer interface {
	EncryptToken(token string) (string, error)
	DecryptToken(sealed string) (string, error)
}
