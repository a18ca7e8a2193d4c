package webhook_handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler removes a shop and its stored token when the app is uninstalled
type AppUninstalledHandler struct {
	shops  ports.ShopRepository
	logger zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(shops ports.ShopRepository, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		shops:  shops,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle deletes the uninstalled shop. A shop that was never stored is not an error.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shop := event.Shop
	if shop == "" {
		// The payload is the shop resource
		var shopData struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &shopData); err == nil {
			shop = shopData.MyshopifyDomain
			if shop == "" {
				shop = shopData.Domain
			}
		}
	}

	shopDomain, err := domain.NormalizeShop(shop)
	if err != nil {
		h.logger.Warn().Err(err).Str("eventId", event.ID).Msg("App uninstalled webhook without a usable shop")
		return nil
	}

	if err := h.shops.DeleteShop(ctx, shopDomain); err != nil {
		if errors.Is(err, domain.ErrShopNotFound) {
			h.logger.Info().Str("shop", shopDomain).Msg("App uninstalled for unknown shop")
			return nil
		}
		return fmt.Errorf("failed to delete shop %s: %w", shopDomain, err)
	}

	h.logger.Info().Str("shop", shopDomain).Msg("App uninstalled - shop and token removed")
	return nil
}
