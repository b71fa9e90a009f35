package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/fernandovmc/ai-workspaces/internal/model"
	"github.com/fernandovmc/ai-workspaces/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const minPasswordLen = 6

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// AuthService registers users and issues HS256 access tokens whose
// subject is the user id.
type AuthService struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	log    *slog.Logger
}

func NewAuthService(users UserStore, secret string, ttl time.Duration, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		log:    log.With("component", "auth"),
	}
}

// Register creates the user and logs them in.
func (s *AuthService) Register(ctx context.Context, c model.Credentials) (*model.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(c.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, email, string(hash))
	if errors.Is(err, store.ErrConflict) {
		s.log.Warn("registration for existing email", "email", email)
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user", u.ID)
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, c model.Credentials) (*model.TokenResponse, error) {
	u, err := s.users.GetUserByEmail(ctx, c.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)); err != nil {
		s.log.Debug("password mismatch", "user", u.ID)
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *model.User) (*model.TokenResponse, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(u.ID, 10)).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Claim("email", u.Email).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), s.secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &model.TokenResponse{AccessToken: string(signed)}, nil
}

// Verify checks the signature and expiry of an access token and returns
// its user id.
func (s *AuthService) Verify(token string) (int64, error) {
	tok, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.HS256(), s.secret))
	if err != nil {
		return 0, ErrInvalidToken
	}
	sub, ok := tok.Subject()
	if !ok {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return u, err
}
