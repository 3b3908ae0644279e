package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractdesk/pkg/domain"
	dErrors "contractdesk/pkg/domain-errors"
)

const testKey = "test-signing-key-0123456789"

var principal = domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleUser}

func TestIssueAndValidate(t *testing.T) {
	svc := NewJWTService(testKey, "contractdesk")

	token, err := svc.IssueToken(principal, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, principal.UserID.String(), claims.Subject)
	assert.Equal(t, "user", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	got, err := NewGate(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestValidateTokenFailures(t *testing.T) {
	svc := NewJWTService(testKey, "contractdesk")

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTService(testKey, "contractdesk", WithClock(func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}))
		token, err := past.IssueToken(principal, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.Equal(t, "token has expired", err.Error())
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTService("another-signing-key-987654", "contractdesk")
		token, err := other.IssueToken(principal, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(testKey, "someone-else")
		token, err := other.IssueToken(principal, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestClaimsPrincipal(t *testing.T) {
	t.Run("unknown role", func(t *testing.T) {
		c := &Claims{Role: "root", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}
		_, err := c.Principal()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("subject not a uuid", func(t *testing.T) {
		c := &Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}
		_, err := c.Principal()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestIssueTokenRejectsBadPrincipal(t *testing.T) {
	svc := NewJWTService(testKey, "contractdesk")
	_, err := svc.IssueToken(domain.Principal{}, time.Hour)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.IssueToken(domain.Principal{UserID: principal.UserID, Role: "root"}, time.Hour)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
