package service

import (
	"context"
	"errors"
	"strings"

	"github.com/BuzzLyutic/taskboard-api/internal/auth"
	"github.com/BuzzLyutic/taskboard-api/internal/model"
	"github.com/BuzzLyutic/taskboard-api/internal/repo"
	"github.com/BuzzLyutic/taskboard-api/internal/validation"
)

type AuthService struct {
	users      repo.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

func NewAuthService(users repo.UserRepository, tokens *auth.TokenManager, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Register создает аккаунт и сразу выпускает токен. Роль всегда user -
// админов назначают руками в БД.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (model.User, string, error) {
	if errs := validation.Register(name, email, password); len(errs) > 0 {
		return model.User{}, "", &ValidationError{Fields: errs}
	}

	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, repo.ErrorNotFound) {
		return model.User{}, "", err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, "", err
	}

	user, err := s.users.Create(ctx, model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		// Гонка двух регистраций решается уникальным индексом в БД.
		if errors.Is(err, repo.ErrorConflict) {
			return model.User{}, "", ErrEmailTaken
		}
		return model.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, string, error) {
	if errs := validation.Login(email, password); len(errs) > 0 {
		return model.User{}, "", &ValidationError{Fields: errs}
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			return model.User{}, "", ErrUnknownAccount
		}
		return model.User{}, "", err
	}

	if !user.IsActive {
		return model.User{}, "", ErrAccountDisabled
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return model.User{}, "", ErrWrongPassword
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

func (s *AuthService) Profile(ctx context.Context, id int64) (model.User, error) {
	return s.users.GetByID(ctx, id)
}
