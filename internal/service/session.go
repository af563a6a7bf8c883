package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/englishhub/englishhub/internal/auth"
	"github.com/englishhub/englishhub/internal/metrics"
)

const issuer = "englishhub"

// DefaultSessionTTL is the lifetime of an admin session token.
const DefaultSessionTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials is returned by Login for any unknown username or
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidSession is returned for tokens that are malformed, forged,
	// expired or revoked.
	ErrInvalidSession = errors.New("invalid session")

	// ErrSessionExpired is the expired case of ErrInvalidSession.
	ErrSessionExpired = fmt.Errorf("%w: expired", ErrInvalidSession)
)

// Session is an authenticated admin session.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionConfig configures a SessionService.
type SessionConfig struct {
	Secret  []byte
	TTL     time.Duration
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Now overrides the clock; used by tests.
	Now func() time.Time
}

// SessionService is the admin session facade. Login exchanges a password for
// a signed, expiring token; privileged calls present the token and
// Authenticate checks it on every request.
type SessionService struct {
	creds   *auth.Credentials
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	revoked map[string]time.Time // session id -> token expiry
}

// NewSessionService creates a SessionService. The secret must not be empty.
func NewSessionService(creds *auth.Credentials, cfg SessionConfig) (*SessionService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret must not be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &SessionService{
		creds:   creds,
		secret:  cfg.Secret,
		ttl:     cfg.TTL,
		now:     cfg.Now,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		revoked: make(map[string]time.Time),
	}, nil
}

// Login verifies the credentials and issues a session token.
func (s *SessionService) Login(ctx context.Context, username, password string) (string, *Session, error) {
	ok, err := s.creds.Verify(ctx, username, password)
	if err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return "", nil, err
	}
	if !ok {
		s.metrics.ObserveLogin(metrics.ResultFailure)
		s.logger.InfoContext(ctx, "admin login rejected")
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.Username,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			Issuer:    issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	s.metrics.ObserveLogin(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "admin logged in", "username", username, "session_id", sess.ID)
	return token, sess, nil
}

// Authenticate validates a session token and returns its session.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*Session, error) {
	sess, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[sess.ID]
	s.mu.Unlock()
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidSession)
	}
	return sess, nil
}

// IsAdmin reports whether token grants admin access. Any failure, including
// an absent token, is "no".
func (s *SessionService) IsAdmin(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, err := s.Authenticate(ctx, token)
	return err == nil
}

// Logout revokes the session behind token. Logging out with a token that is
// already invalid is a no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	sess, err := s.parse(token)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sess.ID] = sess.ExpiresAt
	s.pruneLocked()

	s.logger.InfoContext(ctx, "admin logged out", "username", sess.Username, "session_id", sess.ID)
	return nil
}

// ChangePassword rotates the password of the session's admin after
// re-verifying current. It returns (false, nil) for a wrong current
// password.
func (s *SessionService) ChangePassword(ctx context.Context, sess *Session, current, next string) (bool, error) {
	ok, err := s.creds.ChangePassword(ctx, sess.Username, current, next)
	switch {
	case err != nil:
		s.metrics.ObservePasswordChange(metrics.ResultError)
	case !ok:
		s.metrics.ObservePasswordChange(metrics.ResultFailure)
	default:
		s.metrics.ObservePasswordChange(metrics.ResultSuccess)
	}
	return ok, err
}

func (s *SessionService) parse(token string) (*Session, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	sess := &Session{
		ID:        claims.ID,
		Username:  claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	return sess, nil
}

// pruneLocked drops revocations whose tokens have expired anyway. Callers
// hold mu.
func (s *SessionService) pruneLocked() {
	now := s.now()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
}

type jwtClaims struct {
	jwt.RegisteredClaims
}
