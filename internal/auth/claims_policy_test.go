package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func storefrontPolicy() ClaimsPolicy {
	return ClaimsPolicy{
		Issuer:    "tokokriya-id",
		Audience:  "tokokriya-storefront",
		ClockSkew: time.Second,
		Algorithm: jwa.HS256,
	}
}

func sessionToken(t *testing.T, issuer string, issued, notBefore, expires time.Time) jwt.Token {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{"tokokriya-storefront"}).
		Subject("user-17").
		IssuedAt(issued).
		NotBefore(notBefore).
		Expiration(expires).
		Build()
	require.NoError(t, err)
	return tok
}

func TestClaimsPolicyAcceptsValidSession(t *testing.T) {
	now := time.Now()
	tok := sessionToken(t, "tokokriya-id", now, now, now.Add(15*time.Minute))
	require.NoError(t, storefrontPolicy().Check(tok, jwa.HS256, now))
}

func TestClaimsPolicyRejectsForeignIssuer(t *testing.T) {
	now := time.Now()
	tok := sessionToken(t, "some-other-idp", now, now, now.Add(15*time.Minute))
	require.Error(t, storefrontPolicy().Check(tok, jwa.HS256, now))
}

func TestClaimsPolicyRejectsExpiredSession(t *testing.T) {
	now := time.Now()
	tok := sessionToken(t, "tokokriya-id", now.Add(-2*time.Hour), now.Add(-2*time.Hour), now.Add(-time.Minute))
	require.Error(t, storefrontPolicy().Check(tok, jwa.HS256, now))
}

func TestClaimsPolicyRejectsNotYetValidSession(t *testing.T) {
	now := time.Now()
	tok := sessionToken(t, "tokokriya-id", now, now.Add(5*time.Minute), now.Add(10*time.Minute))
	require.Error(t, storefrontPolicy().Check(tok, jwa.HS256, now))
}

func TestClaimsPolicyRejectsWrongAlgorithm(t *testing.T) {
	now := time.Now()
	tok := sessionToken(t, "tokokriya-id", now, now, now.Add(15*time.Minute))
	require.Error(t, storefrontPolicy().Check(tok, jwa.RS256, now))
	require.Error(t, storefrontPolicy().Check(tok, "", now))
}

func TestClaimsPolicyRejectsNilToken(t *testing.T) {
	require.Error(t, storefrontPolicy().Check(nil, jwa.HS256, time.Now()))
}
