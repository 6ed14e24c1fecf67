package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(storedHash, password string) error

// AuthService handles login, logout, and bearer token validation. Tokens are
// signed JWTs backed by a persisted session row, so a logout invalidates the
// token before its expiry.
type AuthService struct {
	users          persistence.UserRepository
	sessions       persistence.SessionRepository
	auditor        *Auditor
	verifyPassword PasswordVerifier
	secret         []byte
	sessionTTL     time.Duration
	idGenerator    func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(
	users persistence.UserRepository,
	sessions persistence.SessionRepository,
	auditor *Auditor,
	secret []byte,
	sessionTTL time.Duration,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		auditor:        auditor,
		verifyPassword: VerifyPassword,
		secret:         secret,
		sessionTTL:     sessionTTL,
		idGenerator:    idGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate validates credentials and issues a signed session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.UserID).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	user, lookupErr := s.users.GetUserByEmail(ctx, email)
	if lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = lookupErr
		return
	}

	if user.Disabled {
		err = ErrAccountDisabled
		return
	}

	if verifyErr := s.verifyPassword(user.PasswordHash, params.Password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	sessionID := s.idGenerator()

	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, signErr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if signErr != nil {
		err = signErr
		return
	}

	if s.sessions != nil {
		if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return
		}
		_, err = s.sessions.CreateSession(ctx, persistence.Session{
			ID:        sessionID,
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		})
		if err != nil {
			return
		}
	}

	s.auditor.Record(ctx, user.ID, "auth.login", "user", user.ID, "")

	result = AuthenticateResult{
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	return
}

// ValidateToken verifies signature and expiry of a bearer token, then checks
// the backing session row so revoked tokens are refused, and resolves the
// acting principal.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (actor Actor, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateToken", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "token validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	claims := &sessionClaims{}
	parsed, parseErr := jwt.ParseWithClaims(trimmed, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if parseErr != nil {
		if errors.Is(parseErr, jwt.ErrTokenExpired) {
			err = ErrSessionExpired
			return
		}
		err = ErrUnauthorized
		return
	}
	if !parsed.Valid || claims.Subject == "" {
		err = ErrUnauthorized
		return
	}

	if s.sessions != nil {
		session, sessionErr := s.sessions.GetSessionByToken(ctx, trimmed)
		if sessionErr != nil {
			if errors.Is(sessionErr, persistence.ErrNotFound) {
				err = ErrUnauthorized
				return
			}
			err = sessionErr
			return
		}
		if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
			err = ErrSessionRevoked
			return
		}
		if !session.ExpiresAt.After(s.now()) {
			err = ErrSessionExpired
			return
		}
	}

	user, userErr := s.users.GetUser(ctx, claims.Subject)
	if userErr != nil {
		if errors.Is(userErr, persistence.ErrNotFound) {
			err = ErrUnauthorized
			return
		}
		err = userErr
		return
	}
	if user.Disabled {
		err = ErrAccountDisabled
		return
	}

	actor = Actor{ID: user.ID, Role: user.Role}
	return
}

// RevokeToken invalidates an issued token before its natural expiry.
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "RevokeToken")

	now := s.now()
	if err := s.sessions.RevokeSession(ctx, trimmed, now); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
			return ErrUnauthorized
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", err)
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}
