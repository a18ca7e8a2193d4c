package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	shopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistrationResult is the outcome of one webhook registration task
type RegistrationResult struct {
	TaskID       string
	Subscription domain.WebhookSubscription
	Duration     time.Duration
	Err          error
}

// WebhookRegistrar creates webhook subscriptions in the background.
// Tasks run on a context detached from the request that started them and
// are bounded by their own timeout. Each task reads the shop's sealed token
// from storage. Nothing retries a failed task.
type WebhookRegistrar struct {
	client   ports.ShopifyClient
	shops    ports.ShopRepository
	tokens   ports.TokenSealer
	timeout  time.Duration
	logger   zerolog.Logger
	onResult func(RegistrationResult)
	wg       sync.WaitGroup
}

// NewWebhookRegistrar creates a registrar. onResult may be nil.
func NewWebhookRegistrar(
	client ports.ShopifyClient,
	shops ports.ShopRepository,
	tokens ports.TokenSealer,
	timeout time.Duration,
	logger zerolog.Logger,
	onResult func(RegistrationResult),
) *WebhookRegistrar {
	return &WebhookRegistrar{
		client:   client,
		shops:    shops,
		tokens:   tokens,
		timeout:  timeout,
		logger:   logger,
		onResult: onResult,
	}
}

// Register starts a registration task for an installed shop and returns its id without waiting
func (r *WebhookRegistrar) Register(ctx context.Context, shop, topic, address string) string {
	taskID := uuid.NewString()
	subscription := domain.WebhookSubscription{
		Shop:    shop,
		Topic:   topic,
		Address: address,
		Format:  domain.WebhookFormat,
	}

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		r.run(taskCtx, taskID, subscription)
	}()

	r.logger.Debug().Str("taskId", taskID).Str("shop", shop).Str("topic", topic).Msg("Webhook registration scheduled")
	return taskID
}

func (r *WebhookRegistrar) run(ctx context.Context, taskID string, subscription domain.WebhookSubscription) {
	started := time.Now()
	result := RegistrationResult{TaskID: taskID, Subscription: subscription}

	var webhook *shopify.Webhook
	accessToken, err := r.accessToken(ctx, subscription.Shop)
	if err == nil {
		webhook, err = r.client.CreateWebhook(ctx, subscription.Shop, accessToken, subscription.Topic, subscription.Address)
	}
	result.Duration = time.Since(started)
	if err != nil {
		result.Err = err
		r.logger.Error().
			Err(err).
			Str("taskId", taskID).
			Str("shop", subscription.Shop).
			Str("topic", subscription.Topic).
			Dur("duration", result.Duration).
			Msg("Failed to register webhook")
	} else {
		result.Subscription.ID = webhook.Id
		r.logger.Info().
			Str("taskId", taskID).
			Str("shop", subscription.Shop).
			Str("topic", subscription.Topic).
			Uint64("webhookId", webhook.Id).
			Dur("duration", result.Duration).
			Msg("Webhook registered")
	}

	if r.onResult != nil {
		r.onResult(result)
	}
}

// accessToken opens the token stored for shop at install time
func (r *WebhookRegistrar) accessToken(ctx context.Context, shop string) (string, error) {
	stored, err := r.shops.GetShop(ctx, shop)
	if err != nil {
		return "", err
	}
	token, err := r.tokens.DecryptToken(stored.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to open access token: %w", err)
	}
	return token, nil
}

// Wait blocks until every started task has finished or ctx is done
func (r *WebhookRegistrar) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
