package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// stateBytes is the size of the random OAuth state before hex encoding
const stateBytes = 16

// InstallSettings are the fixed parameters of the install flow
type InstallSettings struct {
	Scopes         []string
	RedirectURI    string
	DefaultShop    string
	StateTTL       time.Duration
	WebhookTopic   string
	WebhookAddress string
}

// CallbackParams carries the query of an OAuth callback request
type CallbackParams struct {
	Code  string
	Shop  string
	State string
	Query url.Values
}

// InstallResult summarizes a completed installation
type InstallResult struct {
	Shop            string
	ProductCount    int
	ReviewCount     int
	ReviewsFetched  bool
	RegistrationJob string
}

// ShopifyService implements the install and webhook ingestion flows
// It depends on ports (interfaces) not concrete implementations
type ShopifyService struct {
	client    ports.ShopifyClient
	sessions  ports.SessionStore
	shops     ports.ShopRepository
	eventLog  ports.WebhookEventLog
	tokens    ports.TokenSealer
	registrar *WebhookRegistrar
	settings  InstallSettings
	logger    zerolog.Logger
	now       func() time.Time
}

// NewShopifyService creates a new Shopify application service
func NewShopifyService(
	client ports.ShopifyClient,
	sessions ports.SessionStore,
	shops ports.ShopRepository,
	eventLog ports.WebhookEventLog,
	tokens ports.TokenSealer,
	registrar *WebhookRegistrar,
	settings InstallSettings,
	logger zerolog.Logger,
) *ShopifyService {
	if settings.WebhookTopic == "" {
		settings.WebhookTopic = domain.TopicOrdersCreate
	}
	return &ShopifyService{
		client:    client,
		sessions:  sessions,
		shops:     shops,
		eventLog:  eventLog,
		tokens:    tokens,
		registrar: registrar,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
	}
}

// BeginInstall stores a fresh OAuth state for shop and returns the authorize URL.
// An empty shop falls back to the configured default shop.
func (s *ShopifyService) BeginInstall(ctx context.Context, shop string) (string, error) {
	if strings.TrimSpace(shop) == "" {
		shop = s.settings.DefaultShop
	}
	shopDomain, err := domain.NormalizeShop(shop)
	if err != nil {
		return "", err
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}

	now := s.now()
	session := &domain.Session{
		State:     state,
		Shop:      shopDomain,
		Scopes:    s.settings.Scopes,
		CreatedAt: now,
		ExpiresAt: now.Add(s.settings.StateTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to save OAuth session")
		return "", fmt.Errorf("failed to save oauth session: %w", err)
	}

	return s.client.AuthorizeURL(shopDomain, s.settings.Scopes, s.settings.RedirectURI, state), nil
}

// CompleteInstall handles the OAuth callback: it verifies the request, exchanges
// the code, stores the token, reads products and schedules webhook registration.
func (s *ShopifyService) CompleteInstall(ctx context.Context, params CallbackParams) (*InstallResult, error) {
	if params.Code == "" || params.Shop == "" {
		return nil, fmt.Errorf("%w: code and shop are required", domain.ErrParameterMissing)
	}
	shopDomain, err := domain.NormalizeShop(params.Shop)
	if err != nil {
		return nil, err
	}

	ok, err := s.client.VerifyCallback(params.Query)
	if err != nil || !ok {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("OAuth callback signature verification failed")
		return nil, fmt.Errorf("%w: oauth callback", domain.ErrInvalidSignature)
	}

	if err := s.consumeState(ctx, params.State, shopDomain); err != nil {
		return nil, err
	}

	token, err := s.client.ExchangeToken(ctx, shopDomain, params.Code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to exchange token")
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamAuth, err)
	}
	s.logger.Info().Str("shop", shopDomain).Str("granted_scopes", token.Scope).Msg("Access token obtained")

	if err := s.saveShop(ctx, shopDomain, token); err != nil {
		return nil, err
	}

	products, err := s.client.ListProducts(ctx, shopDomain, token.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to get products")
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	result := &InstallResult{Shop: shopDomain, ProductCount: len(products)}
	s.logger.Info().Str("shop", shopDomain).Int("products", len(products)).Msg("Fetched products")

	if len(products) > 0 {
		productID := products[0].Id
		reviews, err := s.client.ListProductReviews(ctx, shopDomain, token.AccessToken, productID)
		if err != nil {
			s.logger.Warn().Err(err).Str("shop", shopDomain).Uint64("productId", productID).Msg("Failed to fetch product reviews")
		} else {
			result.ReviewsFetched = true
			result.ReviewCount = len(reviews)
			s.logger.Info().Str("shop", shopDomain).Uint64("productId", productID).Int("reviews", len(reviews)).Msg("Fetched product reviews")
		}
	}

	result.RegistrationJob = s.registrar.Register(ctx, shopDomain, s.settings.WebhookTopic, s.settings.WebhookAddress)

	return result, nil
}

func (s *ShopifyService) consumeState(ctx context.Context, state string, shopDomain string) error {
	if state == "" {
		return fmt.Errorf("%w: state is missing", domain.ErrInvalidState)
	}
	session, err := s.sessions.Consume(ctx, state)
	if errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.Warn().Str("shop", shopDomain).Msg("Unknown or reused OAuth state")
		return fmt.Errorf("%w: unknown state", domain.ErrInvalidState)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to get OAuth session")
		return fmt.Errorf("failed to get oauth session: %w", err)
	}
	if session.Expired(s.now()) {
		return fmt.Errorf("%w: state expired", domain.ErrInvalidState)
	}
	if session.Shop != shopDomain {
		s.logger.Warn().Str("shop", shopDomain).Str("session_shop", session.Shop).Msg("OAuth state issued for another shop")
		return fmt.Errorf("%w: shop mismatch", domain.ErrInvalidState)
	}
	return nil
}

func (s *ShopifyService) saveShop(ctx context.Context, shopDomain string, token *ports.TokenResponse) error {
	sealed, err := s.tokens.EncryptToken(token.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to encrypt access token")
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	now := s.now()
	shop := &domain.Shop{
		Domain:      shopDomain,
		AccessToken: sealed,
		Scopes:      splitScopes(token.Scope),
		InstalledAt: now,
		UpdatedAt:   now,
	}
	if err := s.shops.SaveShop(ctx, shop); err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to save shop")
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

// ProcessWebhook records a received webhook and returns the event to dispatch.
// Failing to record is logged and does not stop processing.
func (s *ShopifyService) ProcessWebhook(ctx context.Context, topic string, shop string, payload []byte, verified bool) *domain.WebhookEvent {
	event := &domain.WebhookEvent{
		ID:         uuid.NewString(),
		Topic:      topic,
		Shop:       shop,
		Payload:    payload,
		Verified:   verified,
		ReceivedAt: s.now(),
	}

	if err := s.eventLog.LogWebhook(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Str("shop", shop).Msg("Failed to log webhook")
	}

	s.logger.Info().Str("eventId", event.ID).Str("topic", topic).Str("shop", shop).Bool("verified", verified).Msg("Webhook received")
	return event
}

func randomState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func splitScopes(scope string) []string {
	var scopes []string
	for _, s := range strings.Split(scope, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
