package webhook_handlers

import (
	"context"
	"fmt"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// OrderHandler handles order creation webhook events
type OrderHandler struct {
	publisher ports.OrderPublisher
	logger    zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(publisher ports.OrderPublisher, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == domain.TopicOrdersCreate
}

// Handle parses an order webhook payload, logs it and publishes it downstream
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	order, err := domain.ParseOrderPayload(event.Payload)
	if err != nil {
		h.logger.Warn().Err(err).Str("eventId", event.ID).Str("shop", event.Shop).Msg("Failed to parse order webhook payload")
		return err
	}

	if len(order.Skipped) > 0 {
		h.logger.Warn().Str("eventId", event.ID).Strs("fields", order.Skipped).Msg("Order webhook fields ignored")
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("orderId", order.ID).
		Interface("lineItems", order.LineItems).
		Interface("customer", order.Customer).
		Msg("New order created")

	if err := h.publisher.PublishOrder(ctx, event.Shop, order); err != nil {
		return fmt.Errorf("failed to publish order %s: %w", order.ID, err)
	}
	return nil
}
