package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/config"
	"github.com/craftedby/marketplace/internal/model"
)

func newManager(secret string, ttl time.Duration) *auth.TokenManager {
	return auth.NewTokenManager(config.Auth{JWTSecret: secret, TokenTTL: ttl})
}

func TestTokenManager(t *testing.T) {
	user := model.User{ID: uuid.New(), Email: "ada@example.com", Role: model.RoleArtisan}

	t.Run("Should round-trip a token", func(t *testing.T) {
		m := newManager("secret", time.Hour)

		token, err := m.Issue(user)
		require.NoError(t, err)

		principal, err := m.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.UserID)
		assert.Equal(t, model.RoleArtisan, principal.Role)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		token, err := newManager("secret-a", time.Hour).Issue(user)
		require.NoError(t, err)

		_, err = newManager("secret-b", time.Hour).Verify(token)
		assert.Error(t, err)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		m := newManager("secret", -time.Minute)

		token, err := m.Issue(user)
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.Error(t, err)
	})

	t.Run("Should reject garbage input", func(t *testing.T) {
		_, err := newManager("secret", time.Hour).Verify("not.a.jwt")
		assert.Error(t, err)
	})
}

func TestCanAccessOrder(t *testing.T) {
	owner := auth.Principal{UserID: uuid.New(), Role: model.RoleBuyer}
	order := model.Order{ID: uuid.New(), UserID: owner.UserID}

	assert.True(t, auth.CanAccessOrder(owner, order))
	assert.True(t, auth.CanAccessOrder(auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}, order))
	assert.False(t, auth.CanAccessOrder(auth.Principal{UserID: uuid.New(), Role: model.RoleBuyer}, order))
	assert.False(t, auth.CanAccessOrder(auth.Principal{UserID: uuid.New(), Role: model.RoleArtisan}, order))
}

func TestCanFilterByArtisan(t *testing.T) {
	artisan := auth.Principal{UserID: uuid.New(), Role: model.RoleArtisan}

	assert.True(t, auth.CanFilterByArtisan(artisan, artisan.UserID))
	assert.False(t, auth.CanFilterByArtisan(artisan, uuid.New()))
	assert.True(t, auth.CanFilterByArtisan(auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}, uuid.New()))
}
