package application

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	shopify "github.com/bold-commerce/go-shopify/v4"
)

type fakeShopify struct {
	mu sync.Mutex

	callbackValid bool
	tokenErr      error
	products      []shopify.Product
	productsErr   error
	reviewsErr    error
	webhookErr    error
	webhookBlock  chan struct{}

	exchangeCalls int
	productCalls  int
	reviewCalls   []uint64
	webhookCalls  []string
	webhookTokens []string
	webhookCtxErr error
}

var _ ports.ShopifyClient = (*fakeShopify)(nil)

func (f *fakeShopify) AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string {
	q := url.Values{}
	q.Set("client_id", "api-key")
	q.Set("scope", strings.Join(scopes, ","))
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return "https://" + shop + "/admin/oauth/authorize?" + q.Encode()
}

func (f *fakeShopify) ExchangeToken(ctx context.Context, shop string, code string) (*ports.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &ports.TokenResponse{AccessToken: "shpat_" + code, Scope: "read_products,read_orders"}, nil
}

func (f *fakeShopify) VerifyCallback(query url.Values) (bool, error) {
	return f.callbackValid, nil
}

func (f *fakeShopify) VerifyWebhook(r *http.Request) (bool, error) {
	return true, nil
}

func (f *fakeShopify) ListProducts(ctx context.Context, shop string, accessToken string) ([]shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	return f.products, f.productsErr
}

func (f *fakeShopify) ListProductReviews(ctx context.Context, shop string, accessToken string, productID uint64) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewCalls = append(f.reviewCalls, productID)
	if f.reviewsErr != nil {
		return nil, f.reviewsErr
	}
	return []map[string]any{{"rating": 5}}, nil
}

func (f *fakeShopify) CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) (*shopify.Webhook, error) {
	if f.webhookBlock != nil {
		select {
		case <-f.webhookBlock:
		case <-ctx.Done():
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.webhookCalls = append(f.webhookCalls, shop+" "+topic+" "+address)
	f.webhookTokens = append(f.webhookTokens, accessToken)
	f.webhookCtxErr = ctx.Err()
	if f.webhookCtxErr != nil {
		return nil, f.webhookCtxErr
	}
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	return &shopify.Webhook{Id: 42, Topic: topic, Address: address, Format: domain.WebhookFormat}, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	saveErr  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]domain.Session)}
}

func (s *fakeSessions) Save(ctx context.Context, session *domain.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.State] = *session
	return nil
}

func (s *fakeSessions) Consume(ctx context.Context, state string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[state]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(s.sessions, state)
	return &session, nil
}

type fakeShops struct {
	mu      sync.Mutex
	shops   map[string]domain.Shop
	events  []domain.WebhookEvent
	saveErr error
	logErr  error
}

func newFakeShops() *fakeShops {
	return &fakeShops{shops: make(map[string]domain.Shop)}
}

func (r *fakeShops) SaveShop(ctx context.Context, shop *domain.Shop) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops[shop.Domain] = *shop
	return nil
}

func (r *fakeShops) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.shops[shopDomain]
	if !ok {
		return nil, domain.ErrShopNotFound
	}
	return &shop, nil
}

func (r *fakeShops) DeleteShop(ctx context.Context, shopDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.shops, shopDomain)
	return nil
}

func (r *fakeShops) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	if r.logErr != nil {
		return r.logErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// prefixSealer marks tokens instead of encrypting them
type prefixSealer struct{}

func (prefixSealer) EncryptToken(token string) (string, error) {
	return "sealed:" + token, nil
}

func (prefixSealer) DecryptToken(sealed string) (string, error) {
	token, ok := strings.CutPrefix(sealed, "sealed:")
	if !ok {
		return "", errors.New("not sealed")
	}
	return token, nil
}
