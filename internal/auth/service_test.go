package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: "test-secret", AccessTokenTTL: time.Minute})
	require.NoError(t, err)
	return svc
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	token, _, err := svc.SignAccessToken(Profile{UserID: "u1"})
	require.NoError(t, err)

	subject, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "u1", subject)
}

func TestParseProfileClaims(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	token, _, err := svc.SignAccessToken(Profile{
		UserID: "u1",
		Name:   "Ayu Lestari",
		Email:  "ayu@example.com",
		Phone:  "081234567890",
	})
	require.NoError(t, err)

	profile, err := svc.ParseProfile(token)
	require.NoError(t, err)
	require.Equal(t, "Ayu Lestari", profile.Name)
	require.Equal(t, "ayu@example.com", profile.Email)
	require.Equal(t, "081234567890", profile.Phone)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	svc.nowFn = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.SignAccessToken(Profile{UserID: "u1"})
	require.NoError(t, err)

	svc.nowFn = time.Now
	_, err = svc.ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	token, _, err := svc.SignAccessToken(Profile{UserID: "u1"})
	require.NoError(t, err)

	other, err := NewService(Config{Secret: "different-secret"})
	require.NoError(t, err)
	_, err = other.ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	_, err := svc.ParseAccessToken("")
	require.Error(t, err)
	_, err = svc.ParseAccessToken("not.a.token")
	require.Error(t, err)
}
