package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"customerhub/internal/auth"
	"customerhub/internal/cache"
	apperrors "customerhub/internal/errors"
	"customerhub/internal/model"
	"customerhub/internal/repository"
)

const (
	msgCustomerNotFound = "Customer not found"
	msgInvalidPassword  = "Invalid password"
	msgNotActivated     = "You need to activate your account."
	msgEmailExists      = "Email already exists"
	msgAlreadyActive    = "Account already active"
	msgWrongCode        = "Wrong activation code"
)

// TokenPair is returned by login and refresh. TTL is the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TTL          int64  `json:"ttl"`
}

// AuthService handles signup, activation and token operations.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*model.CustomerView, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyAccount(ctx context.Context, email, password, code string) (*model.CustomerView, error)
	GetUserInfo(ctx context.Context, claims *auth.Claims) (*model.CustomerInfoView, error)
}

type authService struct {
	customers repository.CustomerRepository
	hasher    auth.PasswordHasher
	tokens    *auth.TokenCodec
	notifier  ActivationNotifier
	cache     *cache.Client
	logger    *slog.Logger

	newCode func() (string, error)
	now     func() time.Time
}

// NewAuthService creates a new authentication service. cache may be nil.
func NewAuthService(
	customers repository.CustomerRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenCodec,
	notifier ActivationNotifier,
	cache *cache.Client,
	logger *slog.Logger,
) AuthService {
	return &authService{
		customers: customers,
		hasher:    hasher,
		tokens:    tokens,
		notifier:  notifier,
		cache:     cache,
		logger:    logger,
		newCode:   generateActivationCode,
		now:       time.Now,
	}
}

// SignUp creates an unactivated customer and hands its activation code to the notifier.
func (s *authService) SignUp(ctx context.Context, email, password string) (*model.CustomerView, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate activation code: %w", err)
	}

	customer := &model.Customer{
		Email:    email,
		Password: hashed,
		Role:     model.RoleCustomer,
		Active:   code,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Conflict(msgEmailExists)
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.notifier.NotifyActivationCode(ctx, customer.Email, code)

	view := customer.View()
	return &view, nil
}

// Login checks existence, then password, then activation, in that order.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	customer, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, customer.Password) {
		return nil, apperrors.Unauthorized(msgInvalidPassword)
	}

	if !customer.IsActive() {
		return nil, apperrors.Forbidden(msgNotActivated)
	}

	id := customer.ID.String()
	access, err := s.tokens.SignAccess(id, customer.Role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.tokens.SignRefresh(id, customer.Role)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return s.tokenPair(access, refresh), nil
}

// RefreshToken mints a new access token. The refresh token is returned unchanged.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthenticated()
	}
	if auth.Expired(claims, s.now()) {
		return nil, apperrors.Unauthenticated()
	}

	id, err := uuid.Parse(claims.CustomerID)
	if err != nil {
		return nil, apperrors.Unauthenticated()
	}
	if _, err := s.customers.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A deleted customer's refresh token is just an invalid token.
			return nil, apperrors.Unauthenticated()
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	access, err := s.tokens.SignAccess(claims.CustomerID, claims.Role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return s.tokenPair(access, refreshToken), nil
}

// VerifyAccount activates an account. Every rejection is reported as not found.
func (s *authService) VerifyAccount(ctx context.Context, email, password, code string) (*model.CustomerView, error) {
	customer, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, customer.Password) {
		return nil, apperrors.NotFound(msgInvalidPassword)
	}

	if customer.IsActive() {
		return nil, apperrors.NotFound(msgAlreadyActive)
	}

	if customer.Active != code {
		return nil, apperrors.NotFound(msgWrongCode)
	}

	customer.Active = model.ActiveTrue
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("activate customer: %w", err)
	}
	s.cache.Delete(ctx, cache.CustomerInfoKey(customer.ID))

	s.logger.InfoContext(ctx, "customer activated", slog.String("customer_id", customer.ID.String()))

	view := customer.View()
	return &view, nil
}

// GetUserInfo returns the caller's own record, read through the cache.
func (s *authService) GetUserInfo(ctx context.Context, claims *auth.Claims) (*model.CustomerInfoView, error) {
	if claims == nil {
		return nil, apperrors.Unauthenticated()
	}

	id, err := uuid.Parse(claims.CustomerID)
	if err != nil {
		return nil, apperrors.NotFound(msgCustomerNotFound)
	}

	key := cache.CustomerInfoKey(id)
	var cached model.CustomerInfoView
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgCustomerNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	info := customer.InfoView()
	s.cache.SetJSON(ctx, key, info)
	return &info, nil
}

func (s *authService) findByEmail(ctx context.Context, email string) (*model.Customer, error) {
	customer, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgCustomerNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return customer, nil
}

func (s *authService) tokenPair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TTL:          int64(s.tokens.AccessTTL() / time.Second),
	}
}

// generateActivationCode returns a uniformly random code in [1000, 9999].
func generateActivationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
