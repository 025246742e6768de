package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/segyhp/khaata-engine/internal/domain"
	"github.com/segyhp/khaata-engine/internal/repository"
	customError "github.com/segyhp/khaata-engine/pkg/errors"
)

const tokenIssuer = "khaata-engine"

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService registers shop owners and issues the bearer tokens that scope
// every other request.
type AuthService struct {
	base
	users    repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users repository.UserRepository, secret string, tokenTTL time.Duration, opts Options) *AuthService {
	return &AuthService{
		base:     newBase(opts),
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, request *domain.RegisterRequest) (*domain.AuthResponse, error) {
	name := strings.TrimSpace(request.Name)
	email := normalizeEmail(request.Email)
	if name == "" || email == "" {
		return nil, customError.NewValidationError("name and email are required")
	}
	if len(request.Password) < 8 {
		return nil, customError.NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, customError.NewValidationError("password cannot be used")
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, customError.NewConflictError("email is already registered")
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, request *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(request.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.NewUnauthorizedError("invalid email or password")
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		return nil, customError.NewUnauthorizedError("invalid email or password")
	}

	return s.issue(user)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storageError("user", userID, err)
	}
	return user, nil
}

// ParseToken validates a bearer token and returns the owner ID it carries.
func (s *AuthService) ParseToken(token string) (uuid.UUID, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, customError.NewUnauthorizedError("invalid or expired token")
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, customError.NewUnauthorizedError("invalid token subject")
	}
	return ownerID, nil
}

func (s *AuthService) issue(user *domain.User) (*domain.AuthResponse, error) {
	now := s.now()
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.AuthResponse{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
