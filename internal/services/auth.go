package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quillpress/server/internal/security"
	"github.com/quillpress/server/internal/store"
	"github.com/quillpress/server/types"
)

// Sentinel errors for authentication outcomes. Handlers decide how much of
// this taxonomy to reveal to clients; the service keeps the outcomes
// distinct so they can be logged distinctly.
var (
	// ErrUnknownEmail is returned by Login when no user has the given email.
	ErrUnknownEmail = errors.New("unknown email")

	// ErrBadPassword is returned by Login when the password does not match.
	ErrBadPassword = errors.New("bad password")

	// ErrEmailTaken is returned by Register when the email is already in use.
	ErrEmailTaken = errors.New("email already taken")

	// ErrMalformedCredential is returned when a stored password hash is
	// corrupt. This is an operational alarm, not a routine auth failure.
	ErrMalformedCredential = errors.New("malformed credential record")
)

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Get(ctx context.Context, id string) (types.Session, error)
	Create(ctx context.Context, session types.Session) (types.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthService establishes, resolves, and tears down sessions.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	hasher   *security.Hasher
	signer   *security.TokenSigner
	ttl      time.Duration
	log      *slog.Logger
}

func NewAuthService(
	users UserRepository,
	sessions SessionRepository,
	hasher *security.Hasher,
	signer *security.TokenSigner,
	ttl time.Duration,
	log *slog.Logger,
) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		signer:   signer,
		ttl:      ttl,
		log:      log,
	}
}

// Login verifies the credentials and establishes a new session. It returns
// ErrUnknownEmail when no such user exists and ErrBadPassword on a
// password mismatch; callers rendering these to end users should present
// them identically to avoid account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, types.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", types.User{}, ErrUnknownEmail
		}
		return "", types.User{}, err
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, security.ErrMismatch) {
			return "", types.User{}, ErrBadPassword
		}
		// A hash that bcrypt cannot parse means the stored record is
		// corrupt. Log loudly and fail without telling the client more.
		s.log.ErrorContext(ctx, "corrupt password hash for user", "user_id", user.ID)
		return "", types.User{}, ErrMalformedCredential
	}

	token, err := s.establishSession(ctx, user.ID)
	if err != nil {
		return "", types.User{}, err
	}
	return token, user, nil
}

// Register creates a new user and immediately establishes a session for it.
// Duplicate emails are excluded by the store's unique constraint and
// surface as ErrEmailTaken, including under concurrent registration.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (string, types.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", types.User{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return "", types.User{}, ErrEmailTaken
		}
		return "", types.User{}, err
	}

	token, err := s.establishSession(ctx, user.ID)
	if err != nil {
		return "", types.User{}, err
	}
	return token, user, nil
}

// Resolve maps a request token to the user it is bound to. An absent,
// malformed, expired, or revoked token, and a session whose user no longer
// exists, all resolve to the anonymous result (ok == false). Resolve never
// returns an error to the request path; store failures also degrade to
// anonymous after being logged.
func (s *AuthService) Resolve(ctx context.Context, token string) (types.User, bool) {
	if token == "" {
		return types.User{}, false
	}

	sessionID, err := s.signer.Parse(token)
	if err != nil {
		return types.User{}, false
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WarnContext(ctx, "session lookup failed", "error", err)
		}
		return types.User{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		return types.User{}, false
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		// A dangling session (user gone) degrades to anonymous.
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WarnContext(ctx, "user lookup failed", "error", err)
		}
		return types.User{}, false
	}

	return user, true
}

// Logout unconditionally invalidates the session behind the token. It is
// idempotent: an invalid token or an already-removed session is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sessionID, err := s.signer.Parse(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *AuthService) establishSession(ctx context.Context, userID int) (string, error) {
	now := time.Now()
	session, err := s.sessions.Create(ctx, types.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return "", err
	}
	return s.signer.Sign(session.ID, session.ExpiresAt)
}
