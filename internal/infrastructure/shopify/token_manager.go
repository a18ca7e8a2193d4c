package shopify

import (
	"fmt"

	"shopify-oauth-layer/internal/ports"

	"github.com/rs/zerolog"
)

// TokenManager seals Shopify access tokens before storage and opens them on read
type TokenManager struct {
	encryptionSvc ports.EncryptionService
	logger        zerolog.Logger
}

var _ ports.TokenSealer = (*TokenManager)(nil)

// NewTokenManager creates a new token manager
func NewTokenManager(encryptionSvc ports.EncryptionService, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		encryptionSvc: encryptionSvc,
		logger:        logger,
	}
}

// EncryptToken encrypts an access token before storage
func (tm *TokenManager) EncryptToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	sealed, err := tm.encryptionSvc.Encrypt(token)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return sealed, nil
}

// DecryptToken decrypts an access token after retrieval
func (tm *TokenManager) DecryptToken(encryptedToken string) (string, error) {
	if encryptedToken == "" {
		return "", fmt.Errorf("encrypted token cannot be empty")
	}
	token, err := tm.encryptionSvc.Decrypt(encryptedToken)
	if err != nil {
		tm.logger.Warn().Err(err).Msg("Stored access token could not be decrypted")
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return token, nil
}
