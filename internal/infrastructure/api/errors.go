package api

import (
	"errors"
	"net/http"

	"shopify-oauth-layer/internal/domain"

	"github.com/rs/zerolog"
)

// errorResponse maps a domain error kind to a status code and a plain-text message
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrParameterMissing):
		return http.StatusBadRequest, "Missing code or shop parameter"
	case errors.Is(err, domain.ErrInvalidShop):
		return http.StatusBadRequest, "Invalid shop parameter"
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid HMAC signature"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusForbidden, "Invalid OAuth state"
	case errors.Is(err, domain.ErrUpstreamAuth):
		return http.StatusBadGateway, "Failed to exchange access token"
	case errors.Is(err, domain.ErrUpstreamFetch):
		return http.StatusBadGateway, "Failed to fetch products"
	case errors.Is(err, domain.ErrPayloadParse):
		return http.StatusBadRequest, "Invalid webhook payload"
	case errors.Is(err, domain.ErrShopNotFound):
		return http.StatusNotFound, "Shop not installed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError writes the response for err and returns the status used
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) int {
	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}
	http.Error(w, message, status)
	return status
}
