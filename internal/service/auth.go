package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/craftedby/marketplace/internal/apperr"
	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/repository"
)

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token string
	User  model.User
}

type AuthService interface {
	Register(ctx context.Context, params RegisterParams) (model.User, error)
	Login(ctx context.Context, params LoginParams) (LoginResult, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
	}
}

func (s *authService) Register(ctx context.Context, params RegisterParams) (model.User, error) {
	if _, err := s.userRepo.GetUserByEmail(ctx, params.Email); err == nil {
		return model.User{}, apperr.EmailTakenErr
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, fmt.Errorf("user repository get user by email: %w", err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.RoleBuyer
	}

	now := time.Now()
	user := model.User{
		ID:           id,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("user repository create user: %w", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, params LoginParams) (LoginResult, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, apperr.InvalidCredentialsErr
		}
		return LoginResult{}, fmt.Errorf("user repository get user by email: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, params.Password) {
		return LoginResult{}, apperr.InvalidCredentialsErr
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return LoginResult{Token: token, User: user}, nil
}
