package sessiontoken_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdeck/weatherdeck/internal/sessiontoken"
)

func newService(key string) *sessiontoken.Service {
	return sessiontoken.NewService(sessiontoken.Config{
		SigningKey: key,
		Issuer:     "weatherdeck",
		Audience:   "weatherdeck-web",
		TTL:        time.Hour,
	})
}

func TestService_IssueAndValidate(t *testing.T) {
	svc := newService("test-secret-key-for-testing-only")

	token, expiresAt, err := svc.Issue("3f0c2c5e-8f5b-4a57-9d35-0b7a1c6f2e11")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "3f0c2c5e-8f5b-4a57-9d35-0b7a1c6f2e11", id)
}

func TestService_InvalidToken(t *testing.T) {
	svc := newService("test-secret-key-for-testing-only")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
		})
	}
}

func TestService_WrongSigningKey(t *testing.T) {
	token, _, err := newService("key-one").Issue("session-1")
	require.NoError(t, err)

	_, err = newService("key-two").Validate(token)
	assert.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
}

func TestService_WrongAudience(t *testing.T) {
	token, _, err := newService("key").Issue("session-1")
	require.NoError(t, err)

	other := sessiontoken.NewService(sessiontoken.Config{
		SigningKey: "key",
		Issuer:     "weatherdeck",
		Audience:   "someone-else",
	})
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
}

func TestService_Expired(t *testing.T) {
	svc := sessiontoken.NewService(sessiontoken.Config{
		SigningKey: "key",
		Issuer:     "weatherdeck",
		Audience:   "weatherdeck-web",
		TTL:        -time.Minute,
	})

	token, _, err := svc.Issue("session-1")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, sessiontoken.ErrTokenExpired)
}

func TestService_RejectsNoneAlgorithm(t *testing.T) {
	claims := sessiontoken.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "weatherdeck",
			Subject:   "session-1",
			Audience:  jwt.ClaimStrings{"weatherdeck-web"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		SessionID: "session-1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newService("key").Validate(token)
	assert.ErrorIs(t, err, sessiontoken.ErrInvalidToken)
}

func TestService_DefaultTTL(t *testing.T) {
	svc := sessiontoken.NewService(sessiontoken.Config{SigningKey: "key"})
	assert.Equal(t, sessiontoken.DefaultTTL, svc.TTL())
}

func TestService_UsesClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := sessiontoken.NewService(sessiontoken.Config{
		SigningKey: "key",
		Issuer:     "weatherdeck",
		Audience:   "weatherdeck-web",
		TTL:        30 * time.Minute,
		Now:        func() time.Time { return now },
	})

	token, expiresAt, err := svc.Issue("session-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), expiresAt)

	now = now.Add(29 * time.Minute)
	_, err = svc.Validate(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, sessiontoken.ErrTokenExpired)
}
