package domain

import "errors"

// Error kinds surfaced by the install and webhook flows.
// Callers match them with errors.Is; the HTTP layer maps each to a status code.
var (
	ErrParameterMissing = errors.New("required parameter missing")
	ErrInvalidShop      = errors.New("invalid shop domain")
	ErrInvalidState     = errors.New("invalid oauth state")
	ErrInvalidSignature = errors.New("invalid hmac signature")
	ErrUpstreamAuth     = errors.New("shopify token exchange failed")
	ErrUpstreamFetch    = errors.New("shopify fetch failed")
	ErrPayloadParse     = errors.New("invalid webhook payload")
	ErrShopNotFound     = errors.New("shop not found")
	ErrSessionNotFound  = errors.New("oauth session not found")
)
