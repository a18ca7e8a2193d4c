package ports

import (
	"context"
	"net/http"
	"net/url"

	shopify "github.com/bold-commerce/go-shopify/v4"
)

// TokenResponse is what Shopify's token endpoint returns for an authorization code
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ShopifyClient defines the Shopify operations used by the install and webhook flows
type ShopifyClient interface {
	// Authentication
	AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string
	ExchangeToken(ctx context.Context, shop string, code string) (*TokenResponse, error)
	VerifyCallback(query url.Values) (bool, error)
	VerifyWebhook(r *http.Request) (bool, error)

	// Product API
	ListProducts(ctx context.Context, shop string, accessToken string) ([]shopify.Product, error)
	ListProductReviews(ctx context.Context, shop string, accessToken string, productID uint64) ([]map[string]any, error)

	// Webhook API
	CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) (*shopify.Webhook, error)
}
