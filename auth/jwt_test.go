package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestNameFromClaims(t *testing.T) {
	if got := NameFromClaims(jwt.MapClaims{"name": "  Ana Souza  "}); got != "Ana Souza" {
		t.Errorf("got %q", got)
	}
	if got := NameFromClaims(jwt.MapClaims{}); got != "Player" {
		t.Errorf("fallback: got %q", got)
	}
}

func TestUserIDFromClaims(t *testing.T) {
	if got := UserIDFromClaims(jwt.MapClaims{"sub": "u-1"}); got != "u-1" {
		t.Errorf("sub: got %q", got)
	}
	if got := UserIDFromClaims(jwt.MapClaims{"id": "u-2"}); got != "u-2" {
		t.Errorf("id: got %q", got)
	}
	if got := UserIDFromClaims(jwt.MapClaims{}); got != "" {
		t.Errorf("empty: got %q", got)
	}
}

func TestVerifierTierWithoutProvider(t *testing.T) {
	var nilVerifier *Verifier
	if got := nilVerifier.Tier("whatever"); got != "free" {
		t.Errorf("nil verifier: got %q", got)
	}
	v := &Verifier{}
	if got := v.Tier("whatever"); got != "free" {
		t.Errorf("unconfigured verifier: got %q", got)
	}
	v = &Verifier{BaseURL: "https://auth.example.com"}
	if got := v.Tier(""); got != "free" {
		t.Errorf("empty token: got %q", got)
	}
}

func TestIsFreeTier(t *testing.T) {
	cases := []struct {
		claims jwt.MapClaims
		want   bool
	}{
		{jwt.MapClaims{"tier": "free"}, true},
		{jwt.MapClaims{"tier": "Free"}, true},
		{jwt.MapClaims{"tier": "pro"}, false},
		{jwt.MapClaims{"premium": false}, true},
		{jwt.MapClaims{"premium": true}, false},
		{jwt.MapClaims{}, false},
	}
	for i, tc := range cases {
		if got := IsFreeTier(tc.claims); got != tc.want {
			t.Errorf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}
