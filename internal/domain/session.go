package domain

import "time"

// Session represents a pending OAuth installation, keyed by its state nonce
type Session struct {
	State     string    `json:"state" bson:"state"`
	Shop      string    `json:"shop" bson:"shop"`
	Scopes    []string  `json:"scopes" bson:"scopes"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the session can no longer complete an install
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
