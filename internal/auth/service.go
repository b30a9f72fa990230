package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/macroscoach/backend/internal/config"
	"github.com/macroscoach/backend/internal/storage"
	"github.com/macroscoach/backend/internal/userctx"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Demo account credentials, created lazily on first demo sign-in.
const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo1234"
)

// Service issues and verifies access tokens and manages accounts.
type Service struct {
	config *config.Config
	users  storage.UsersStorage
}

func NewService(cfg *config.Config, users storage.UsersStorage) *Service {
	return &Service{
		config: cfg,
		users:  users,
	}
}

// Register creates a new account and returns an access token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &storage.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Timezone:     strings.TrimSpace(req.Timezone),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issueToken(user)
}

// Login verifies credentials and returns an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrInvalidRequest
	}

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// SignInDemo returns a token for the shared demo account, creating it on
// first use. Losing a concurrent-create race falls back to a re-read.
func (s *Service) SignInDemo(ctx context.Context) (*AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, demoEmail)
	if errors.Is(err, storage.ErrNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, fmt.Errorf("hash demo password: %w", hashErr)
		}
		user = &storage.User{
			ID:           uuid.New(),
			Email:        demoEmail,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}
		if createErr := s.users.CreateUser(ctx, user); createErr != nil {
			if !errors.Is(createErr, storage.ErrDuplicate) {
				return nil, createErr
			}
			user, err = s.users.GetUserByEmail(ctx, demoEmail)
			if err != nil {
				return nil, err
			}
		}
	} else if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Me returns the account of the authenticated user.
func (s *Service) Me(ctx context.Context) (*MeResponse, error) {
	userID := UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &MeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Timezone:  user.Timezone,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *Service) issueToken(user *storage.User) (*AuthResponse, error) {
	ttl := time.Duration(s.config.JWTTTLMinutes) * time.Minute
	accessToken, err := s.generateJWT(user.ID.String(), ttl)
	if err != nil {
		return nil, fmt.Errorf("generate JWT: %w", err)
	}

	return &AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      user.ID,
	}, nil
}

func (s *Service) generateJWT(sub string, ttl time.Duration) (string, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub": sub,
		"iss": s.config.JWTIssuer,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT validates a token and returns its subject.
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok {
			return "", ErrInvalidToken
		}
		return sub, nil
	}

	return "", ErrInvalidToken
}

// UserIDFromContext returns the authenticated user's id, or uuid.Nil when
// the request carries no valid identity.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}
