package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/config"
	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/service"
	"github.com/craftedby/marketplace/pkg/zerror"
)

func newAuthTestService(userRepo *fakeUserRepo) (service.AuthService, *auth.TokenManager) {
	cfg := config.Auth{
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: 4,
	}
	tokens := auth.NewTokenManager(cfg)
	return service.NewAuthService(userRepo, tokens, auth.NewPasswordHasher(cfg.BcryptCost)), tokens
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Should register a buyer by default", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		svc, _ := newAuthTestService(userRepo)

		user, err := svc.Register(ctx, service.RegisterParams{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "s3cret-pass",
		})
		require.NoError(t, err)

		assert.Equal(t, model.RoleBuyer, user.Role)
		assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

		stored, err := userRepo.GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("Should keep an explicit artisan role", func(t *testing.T) {
		svc, _ := newAuthTestService(newFakeUserRepo())

		user, err := svc.Register(ctx, service.RegisterParams{
			Name:     "Bea",
			Email:    "bea@example.com",
			Password: "s3cret-pass",
			Role:     model.RoleArtisan,
		})
		require.NoError(t, err)
		assert.Equal(t, model.RoleArtisan, user.Role)
	})

	t.Run("Should reject duplicate emails", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		svc, _ := newAuthTestService(userRepo)

		_, err := svc.Register(ctx, service.RegisterParams{
			Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass",
		})
		require.NoError(t, err)

		_, err = svc.Register(ctx, service.RegisterParams{
			Name: "Imposter", Email: "ada@example.com", Password: "other-pass",
		})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.EmailTakenCode, zErr.Code())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Should issue a verifiable token", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		svc, tokens := newAuthTestService(userRepo)

		registered, err := svc.Register(ctx, service.RegisterParams{
			Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass", Role: model.RoleArtisan,
		})
		require.NoError(t, err)

		result, err := svc.Login(ctx, service.LoginParams{Email: "ada@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		require.NotEmpty(t, result.Token)

		principal, err := tokens.Verify(result.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, principal.UserID)
		assert.Equal(t, model.RoleArtisan, principal.Role)
	})

	t.Run("Should reject a wrong password", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		svc, _ := newAuthTestService(userRepo)

		_, err := svc.Register(ctx, service.RegisterParams{
			Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass",
		})
		require.NoError(t, err)

		_, err = svc.Login(ctx, service.LoginParams{Email: "ada@example.com", Password: "wrong"})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.InvalidCredentialsCode, zErr.Code())
	})

	t.Run("Should reject an unknown email", func(t *testing.T) {
		svc, _ := newAuthTestService(newFakeUserRepo())

		_, err := svc.Login(ctx, service.LoginParams{Email: "ghost@example.com", Password: "whatever"})

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, apperr.InvalidCredentialsCode, zErr.Code())
	})
}
