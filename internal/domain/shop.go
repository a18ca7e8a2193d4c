package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ShopDomainSuffix is appended to a shop name to form its admin host
const ShopDomainSuffix = ".myshopify.com"

var shopNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Shop is an installed shop and the credential issued for it
type Shop struct {
	Domain      string    `json:"domain" bson:"domain"`
	AccessToken string    `json:"-" bson:"accessToken"` // sealed at rest
	Scopes      []string  `json:"scopes" bson:"scopes"`
	InstalledAt time.Time `json:"installed_at" bson:"installedAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updatedAt"`
}

// NormalizeShop turns "name" or "name.myshopify.com" into the full shop domain.
func NormalizeShop(shop string) (string, error) {
	name := ShopName(shop)
	if !shopNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidShop, shop)
	}
	return name + ShopDomainSuffix, nil
}

// ShopName strips the myshopify suffix from a shop domain.
func ShopName(shop string) string {
	s := strings.ToLower(strings.TrimSpace(shop))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ShopDomainSuffix)
}
