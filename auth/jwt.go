package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ValidateToken validates a JWT against the auth provider's JWKS endpoint and
// returns the claims. baseURL is the provider base URL (e.g. from AUTH_BASE_URL).
func ValidateToken(baseURL, tokenString string) (jwt.MapClaims, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("AUTH_BASE_URL is not set")
	}
	jwksURL := baseURL + "/.well-known/jwks.json"

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	expectedIssuer := u.Scheme + "://" + u.Host

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, jwks.Keyfunc,
		jwt.WithIssuer(expectedIssuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// NameFromClaims returns the trimmed "name" claim, or a fallback.
func NameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "Player"
	}
	return trimmed
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

// Verifier resolves a session tier from a bearer token. With no base URL
// configured there is nothing to validate against and every client is
// treated as free tier, so an unconfigured server never hands out untimed
// sessions.
type Verifier struct {
	BaseURL string
}

// Tier returns "premium" only for a token that validates against the
// provider and whose claims mark a paying account; anything else, including
// a missing or forged token, is "free".
func (v *Verifier) Tier(tokenString string) string {
	if v == nil || v.BaseURL == "" || tokenString == "" {
		return "free"
	}
	claims, err := ValidateToken(v.BaseURL, tokenString)
	if err != nil {
		return "free"
	}
	if IsFreeTier(claims) {
		return "free"
	}
	return "premium"
}

// IsFreeTier reports whether the claims mark the account as free tier, in
// which case sessions run against a countdown.
func IsFreeTier(claims jwt.MapClaims) bool {
	if tier, ok := claims["tier"].(string); ok {
		return strings.EqualFold(tier, "free")
	}
	if premium, ok := claims["premium"].(bool); ok {
		return !premium
	}
	return false
}
