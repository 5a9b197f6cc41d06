// Package auth covers account registration, credential login and the
// JWT token pair lifecycle.
package auth

import (
	"context"
	"net/mail"
	"strings"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
	"moneypal/internal/log"
	"moneypal/internal/storage"
)

type Service struct {
	store  *storage.Store
	tokens *TokenProvider
	logger *log.Logger
}

func NewService(store *storage.Store, tokens *TokenProvider, logger *log.Logger) *Service {
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Register creates the account, seeds the default category set and
// signs the user straight in.
func (s *Service) Register(ctx context.Context, email, password string) (core.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, TokenPair{}, apperr.Validation(apperr.FieldError{
			Field:   "email",
			Message: "must be a valid email address",
		})
	}
	if err := ValidatePassword(password); err != nil {
		return core.User{}, TokenPair{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, TokenPair{}, err
	}
	user, err := s.store.CreateUser(ctx, email, hash, core.DefaultCurrencySymbol)
	if err != nil {
		return core.User{}, TokenPair{}, err
	}
	if err := s.store.SeedSystemCategories(ctx, user.ID); err != nil {
		return core.User{}, TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return core.User{}, TokenPair{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, pair, nil
}

// Login verifies credentials. The same Unauthorized message covers an
// unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return core.User{}, TokenPair{}, apperr.Unauthorized("invalid email or password")
		}
		return core.User{}, TokenPair{}, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return core.User{}, TokenPair{}, apperr.Unauthorized("invalid email or password")
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return core.User{}, TokenPair{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, pair, nil
}

// User loads the profile for the authenticated id.
func (s *Service) User(ctx context.Context, userID int64) (core.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateCurrency changes the display currency symbol and returns the
// updated profile.
func (s *Service) UpdateCurrency(ctx context.Context, userID int64, symbol string) (core.User, error) {
	if err := s.store.UpdateUserCurrency(ctx, userID, symbol); err != nil {
		return core.User{}, err
	}
	return s.store.GetUserByID(ctx, userID)
}

// Refresh exchanges a valid refresh token for a fresh pair, checking
// the account still exists.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return TokenPair{}, apperr.Unauthorized("invalid or expired token")
		}
		return TokenPair{}, err
	}
	return s.tokens.IssuePair(userID)
}
