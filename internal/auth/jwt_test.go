package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := identity.NewID()
	workspaceID := identity.NewID()

	signed, err := GenerateAccessToken(userID, workspaceID, "ada@example.com", models.RoleAdmin, testSecret, 15*time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(signed, testSecret)
	require.NoError(t, err)

	gotUserID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, gotUserID)
	assert.Equal(t, workspaceID, claims.WorkspaceID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, string(models.RoleAdmin), claims.Role)
	assert.Equal(t, "galynx", claims.Issuer)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	signed, err := GenerateAccessToken(identity.NewID(), identity.NewID(), "a@b.c", models.RoleMember, testSecret, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, "other-secret")
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	// Expired beyond the 30s leeway.
	signed, err := GenerateAccessToken(identity.NewID(), identity.NewID(), "a@b.c", models.RoleMember, testSecret, -2*time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, testSecret)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsNonAccessType(t *testing.T) {
	claims := Claims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.NewID().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "galynx",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, testSecret)
	assert.ErrorContains(t, err, "token type")
}
