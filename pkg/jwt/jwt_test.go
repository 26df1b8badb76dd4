package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewManager(t *testing.T) {
	secret := "test-secret-key-for-testing-purposes"
	accessExpiry := 24 * time.Hour

	manager := NewManager(secret, accessExpiry)

	assert.NotNil(t, manager)
	assert.Equal(t, secret, manager.secretKey)
	assert.Equal(t, accessExpiry, manager.accessTokenDuration)
}

func TestGenerateAccessToken(t *testing.T) {
	manager := NewManager("test-secret", 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "alice")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestValidateToken_ValidToken(t *testing.T) {
	manager := NewManager("test-secret", 24*time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "alice")
	assert.NoError(t, err)

	claims, err := manager.ValidateToken(token)

	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "chatx-auth", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager := NewManager("test-secret", 24*time.Hour)
	other := NewManager("other-secret", 24*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "alice")
	assert.NoError(t, err)

	claims, err := other.ValidateToken(token)

	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateToken_Expired(t *testing.T) {
	manager := NewManager("test-secret", -time.Minute)

	token, err := manager.GenerateAccessToken(uuid.New(), "alice")
	assert.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)

	assert.True(t, IsTokenExpired(token))
}

func TestValidateToken_Garbage(t *testing.T) {
	manager := NewManager("test-secret", 24*time.Hour)

	claims, err := manager.ValidateToken("not-a-token")

	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.True(t, IsTokenExpired("not-a-token"))
}
