package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopify-oauth-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// maxErrorBody caps how much of an upstream error body ends up in error messages
const maxErrorBody = 4 << 10

type client struct {
	apiKey     string
	apiSecret  string
	apiVersion string
	app        goshopify.App
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPClient returns the outbound client used for every Shopify call
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewClient creates a new Shopify client adapter
func NewClient(apiKey, apiSecret string) ports.ShopifyClient {
	return NewClientWithOptions(apiKey, apiSecret, "", NewHTTPClient(10*time.Second), zerolog.Nop())
}

// NewClientWithOptions creates a client pinned to an API version and HTTP client
func NewClientWithOptions(
	apiKey, apiSecret string,
	apiVersion string,
	httpClient *http.Client,
	logger zerolog.Logger,
) ports.ShopifyClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(10 * time.Second)
	}
	return &client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		apiVersion: apiVersion,
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		httpClient: httpClient,
		logger:     logger,
	}
}

// createClient is a helper to create a goshopify client
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	opts := []goshopify.Option{goshopify.WithHTTPClient(c.httpClient)}
	if c.apiVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.apiVersion))
	}
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

func (c *client) AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string {
	// Shopify expects scopes to be comma-separated (no spaces)
	scopesStr := strings.Join(scopes, ",")

	query := url.Values{}
	query.Set("client_id", c.apiKey)
	query.Set("scope", scopesStr)
	query.Set("redirect_uri", redirectURI)
	query.Set("state", state)

	authURL := url.URL{
		Scheme:   "https",
		Host:     shop,
		Path:     "/admin/oauth/authorize",
		RawQuery: query.Encode(),
	}

	c.logger.Info().
		Str("shop", shop).
		Strs("scopes", scopes).
		Int("scope_count", len(scopes)).
		Msg("Generated OAuth authorization URL")

	return authURL.String()
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (*ports.TokenResponse, error) {
	// Shopify's token endpoint takes a form-encoded body
	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)

	values := url.Values{}
	values.Set("client_id", c.apiKey)
	values.Set("client_secret", c.apiSecret)
	values.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("failed to exchange token: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var tokenResponse ports.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	return &tokenResponse, nil
}

// VerifyCallback checks the hmac parameter Shopify appends to the OAuth redirect
func (c *client) VerifyCallback(query url.Values) (bool, error) {
	if query.Get("hmac") == "" {
		return false, nil
	}
	u := &url.URL{RawQuery: query.Encode()}
	ok, err := c.app.VerifyAuthorizationURL(u)
	if err != nil {
		return false, fmt.Errorf("failed to verify callback: %w", err)
	}
	return ok, nil
}

// VerifyWebhook checks X-Shopify-Hmac-Sha256 against the request body.
// The body stays readable afterwards.
func (c *client) VerifyWebhook(r *http.Request) (bool, error) {
	ok, err := c.app.VerifyWebhookRequestVerbose(r)
	if err != nil {
		return false, fmt.Errorf("failed to verify webhook: %w", err)
	}
	return ok, nil
}

// Product API

func (c *client) ListProducts(ctx context.Context, shopDomain string, accessToken string) ([]goshopify.Product, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	products, err := client.Product.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (c *client) ListProductReviews(ctx context.Context, shopDomain string, accessToken string, productID uint64) ([]map[string]any, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	var resource struct {
		Reviews []map[string]any `json:"reviews"`
	}
	path := fmt.Sprintf("products/%d/reviews.json", productID)
	if err := client.Get(ctx, path, &resource, nil); err != nil {
		return nil, fmt.Errorf("failed to list product reviews: %w", err)
	}
	return resource.Reviews, nil
}

// Webhook API

func (c *client) CreateWebhook(ctx context.Context, shopDomain string, accessToken string, topic string, address string) (*goshopify.Webhook, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	webhook := goshopify.Webhook{
		Topic:   topic,
		Address: address,
		Format:  "json",
	}
	created, err := client.Webhook.Create(ctx, webhook)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return created, nil
}
