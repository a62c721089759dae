package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	ConfigureJWT("unit-test-secret", time.Hour)
	restaurantID := uint(7)

	token, err := GenerateToken(42, "admin", &restaurantID)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	require.NotNil(t, claims.RestaurantID)
	assert.Equal(t, uint(7), *claims.RestaurantID)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestBlacklistedTokenIsRejected(t *testing.T) {
	ConfigureJWT("unit-test-secret", time.Hour)
	token, err := GenerateToken(1, "customer", nil)
	require.NoError(t, err)

	BlacklistToken(token, time.Now().Add(time.Hour))
	_, err = ParseToken(token)
	assert.Error(t, err)

	BlacklistToken(token, time.Now().Add(-time.Second))
	assert.False(t, IsTokenBlacklisted(token))
}
