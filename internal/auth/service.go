package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/inamate/layout-go/internal/typeid"
)

const (
	DefaultTokenTTL   = 24 * time.Hour
	DefaultBcryptCost = 12
	MinPasswordLength = 8
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrDisplayNameMissing = errors.New("display name is required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password too short")
)

// Account is a stored user with its bcrypt password hash.
type Account struct {
	User
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts. CreateUser fails with ErrEmailTaken when the
// email is already registered; UserByEmail fails with ErrUserNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, a *Account) error
	UserByEmail(ctx context.Context, email string) (*Account, error)
}

type Service struct {
	users     UserStore
	jwtSecret []byte
	ttl       time.Duration
	cost      int
	now       func() time.Time
}

func NewService(users UserStore, jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		cost:      DefaultBcryptCost,
		now:       time.Now,
	}
}

type AuthResult struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName"`
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrDisplayNameMissing
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		User:         User{ID: typeid.NewUserID(), Email: email, DisplayName: displayName},
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.result(account.User)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.result(account.User)
}

// IssueToken creates a throwaway identity for displayName and signs a token
// for it. It backs the development token endpoint only.
func (s *Service) IssueToken(displayName string) (*AuthResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrDisplayNameMissing
	}
	return s.result(User{ID: typeid.NewUserID(), DisplayName: displayName})
}

func (s *Service) ValidateToken(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if err := typeid.Validate(userID, typeid.PrefixUser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return &User{ID: userID, Email: email, DisplayName: name}, nil
}

func (s *Service) result(user User) (*AuthResult, error) {
	token, expires, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user, ExpiresAt: expires}, nil
}

func (s *Service) issueToken(user User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.DisplayName,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expires, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
