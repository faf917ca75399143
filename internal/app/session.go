package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const (
	defaultSessionTTL = 12 * time.Hour
	sessionIssuer     = "matchday"
	sessionSubject    = "admin"
)

// Session is an issued admin token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// authenticator checks the shared admin password and signs session tokens.
type authenticator struct {
	password string
	hash     []byte
	cost     int
	secret   []byte
	ttl      time.Duration
	clk      clockwork.Clock
	setupErr error
}

func newAuthenticator() *authenticator {
	return &authenticator{
		cost: bcrypt.DefaultCost,
		ttl:  defaultSessionTTL,
		clk:  clockwork.NewRealClock(),
	}
}

// WithAdminPassword sets the plain shared password. It is hashed at construction.
func WithAdminPassword(password string) Option {
	return func(s *Service) {
		s.auth.password = password
	}
}

// WithAdminPasswordHash sets a bcrypt hash of the shared password. It wins over WithAdminPassword.
func WithAdminPasswordHash(hash string) Option {
	return func(s *Service) {
		if hash != "" {
			s.auth.hash = []byte(hash)
		}
	}
}

// WithBcryptCost sets the cost used when hashing a plain password.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.auth.cost = cost
		}
	}
}

// WithSessionSecret sets the HMAC key for session tokens.
func WithSessionSecret(secret string) Option {
	return func(s *Service) {
		if secret != "" {
			s.auth.secret = []byte(secret)
		}
	}
}

// WithSessionTTL sets how long an admin session lasts.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.auth.ttl = ttl
		}
	}
}

// prepare hashes the plain password once so every check costs the same.
func (a *authenticator) prepare() {
	if len(a.secret) == 0 {
		a.secret = []byte(uuid.NewString())
	}
	if len(a.hash) > 0 {
		if _, err := bcrypt.Cost(a.hash); err != nil {
			a.setupErr = fmt.Errorf("admin password hash: %w", err)
		}
		return
	}
	if a.password == "" {
		a.setupErr = errors.New("admin password is empty")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.password), a.cost)
	if err != nil {
		a.setupErr = fmt.Errorf("hash admin password: %w", err)
		return
	}
	a.hash = hash
	a.password = ""
}

func (a *authenticator) check(password string) error {
	if a.setupErr != nil || len(a.hash) == 0 {
		return ErrAuthSetup
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return ErrIncorrectPassword
	}
	return nil
}

func (a *authenticator) issue() (Session, error) {
	now := a.clk.Now()
	expires := now.Add(a.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sessionSubject,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expires.UTC().Truncate(time.Second)}, nil
}

func (a *authenticator) verify(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithTimeFunc(a.clk.Now),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithSubject(sessionSubject),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// Authenticate checks the shared admin password and issues a session token.
// A wrong password is reported as ErrIncorrectPassword.
func (s *Service) Authenticate(ctx context.Context, password string) (Session, error) {
	if err := s.auth.check(password); err != nil {
		metrics.RecordLoginAttempt(false)
		s.logger.Warn(ctx, "admin login rejected", logger.Error(err))
		return Session{}, err
	}
	session, err := s.auth.issue()
	if err != nil {
		metrics.RecordLoginAttempt(false)
		return Session{}, err
	}
	metrics.RecordLoginAttempt(true)

	_, _ = s.apply(ctx, "authenticate", func(st model.State) (model.State, error) {
		return st.Authenticate(), nil
	})
	s.logger.Info(ctx, "admin logged in")
	return session, nil
}

// CheckPassword verifies the admin password without issuing a session.
// Used to confirm destructive actions such as starting a new game.
func (s *Service) CheckPassword(ctx context.Context, password string) error {
	if err := s.auth.check(password); err != nil {
		metrics.RecordLoginAttempt(false)
		s.logger.Warn(ctx, "admin password confirmation rejected")
		return err
	}
	return nil
}

// VerifySession validates an admin session token.
func (s *Service) VerifySession(_ context.Context, token string) error {
	return s.auth.verify(token)
}
