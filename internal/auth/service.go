package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/tokokriya/storefront/internal/common"
)

const defaultAccessTTL = 15 * time.Minute

// Service verifies access tokens issued by the identity provider. The
// storefront never issues credentials itself; it only gates checkout behind
// a valid session and reads profile claims for address prefill.
type Service struct {
	secret    []byte
	signer    jwa.SignatureAlgorithm
	policy    ClaimsPolicy
	accessTTL time.Duration
	issuer    string
	audience  string
	clockSkew time.Duration
	nowFn     func() time.Time
}

// Config configures the auth service.
type Config struct {
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// Profile is the claim subset used to prefill the checkout address form.
type Profile struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "tokokriya-id"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "tokokriya-storefront"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		secret:    []byte(secret),
		signer:    jwa.HS256,
		accessTTL: accessTTL,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		policy: ClaimsPolicy{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		nowFn: time.Now,
	}, nil
}

func (s *Service) now() time.Time {
	if s.nowFn == nil {
		return time.Now()
	}
	return s.nowFn()
}

// ParseAccessToken validates an access token and returns the subject (user ID).
func (s *Service) ParseAccessToken(token string) (string, error) {
	parsed, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return parsed.Subject(), nil
}

// ParseProfile validates an access token and extracts the prefill claims.
// Missing profile claims are not an error; prefill is best-effort.
func (s *Service) ParseProfile(token string) (Profile, error) {
	parsed, err := s.parse(token)
	if err != nil {
		return Profile{}, err
	}
	profile := Profile{UserID: parsed.Subject()}
	if v, ok := parsed.Get("name"); ok {
		profile.Name, _ = v.(string)
	}
	if v, ok := parsed.Get("email"); ok {
		profile.Email, _ = v.(string)
	}
	if v, ok := parsed.Get("phone"); ok {
		profile.Phone, _ = v.(string)
	}
	return profile, nil
}

func (s *Service) parse(token string) (jwt.Token, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return nil, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.policy.Algorithm != "" && algorithm != s.policy.Algorithm {
		return nil, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return nil, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.policy.Check(parsed, algorithm, s.now()); err != nil {
		return nil, common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

// SignAccessToken mints a short-lived token. Only development tooling and
// tests use this; production tokens come from the identity provider.
func (s *Service) SignAccessToken(profile Profile) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(profile.UserID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	if profile.Name != "" {
		builder = builder.Claim("name", profile.Name)
	}
	if profile.Email != "" {
		builder = builder.Claim("email", profile.Email)
	}
	if profile.Phone != "" {
		builder = builder.Claim("phone", profile.Phone)
	}
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}
