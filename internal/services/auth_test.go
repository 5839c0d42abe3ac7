package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/quillpress/server/internal/security"
	"github.com/quillpress/server/internal/store"
	"github.com/quillpress/server/types"
)

type fakeUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

type fakeSessionRepo struct {
	sessions map[string]types.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]types.Session{}}
}

func (r *fakeSessionRepo) Get(_ context.Context, id string) (types.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) Create(_ context.Context, session types.Session) (types.Session, error) {
	r.sessions[session.ID] = session
	return session, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func newTestAuthService(ttl time.Duration) (*AuthService, *fakeUserRepo, *fakeSessionRepo) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	svc := NewAuthService(
		users,
		sessions,
		security.NewHasher(bcrypt.MinCost),
		security.NewTokenSigner("test-secret"),
		ttl,
		nil,
	)
	return svc, users, sessions
}

func TestAuthService_RegisterAndResolve(t *testing.T) {
	svc, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "alice@example.com", "Alice", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Fatal("Register returned empty token")
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password stored in plaintext")
	}

	resolved, ok := svc.Resolve(ctx, token)
	if !ok {
		t.Fatal("Resolve after register: want authenticated")
	}
	if resolved.ID != user.ID || resolved.Email != "alice@example.com" {
		t.Fatalf("Resolve returned wrong user: %+v", resolved)
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, users, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice@example.com", "Alice", "secret123"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "alice@example.com", "Other Alice", "different"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("second Register: want ErrEmailTaken, got %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("want exactly one stored user, got %d", len(users.users))
	}
}

func TestAuthService_LoginOutcomes(t *testing.T) {
	svc, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice@example.com", "Alice", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "nouser@example.com", "anything"); !errors.Is(err, ErrUnknownEmail) {
		t.Fatalf("unknown email: want ErrUnknownEmail, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("wrong password: want ErrBadPassword, got %v", err)
	}

	token, user, err := svc.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	resolved, ok := svc.Resolve(ctx, token)
	if !ok || resolved.ID != user.ID {
		t.Fatalf("Resolve after login: ok=%v user=%+v", ok, resolved)
	}
}

func TestAuthService_LoginEmailIsExactMatch(t *testing.T) {
	svc, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice@example.com", "Alice", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Login(ctx, "Alice@Example.com", "secret123"); !errors.Is(err, ErrUnknownEmail) {
		t.Fatalf("case-variant email: want ErrUnknownEmail, got %v", err)
	}
}

func TestAuthService_LoginCorruptHash(t *testing.T) {
	svc, users, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	users.users[1] = types.User{ID: 1, Email: "bob@example.com", Name: "Bob", PasswordHash: "garbage"}
	if _, _, err := svc.Login(ctx, "bob@example.com", "anything"); !errors.Is(err, ErrMalformedCredential) {
		t.Fatalf("corrupt hash: want ErrMalformedCredential, got %v", err)
	}
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newTestAuthService(time.Hour)
	ctx := context.Background()

	token, _, err := svc.Register(ctx, "alice@example.com", "Alice", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := svc.Resolve(ctx, token); ok {
		t.Fatal("Resolve after logout: want anonymous")
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if err := svc.Logout(ctx, "not-a-token"); err != nil {
		t.Fatalf("Logout with garbage token: %v", err)
	}
}

func TestAuthService_ResolveAnonymousCases(t *testing.T) {
	svc, users, sessions := newTestAuthService(time.Hour)
	ctx := context.Background()

	if _, ok := svc.Resolve(ctx, ""); ok {
		t.Fatal("empty token should resolve to anonymous")
	}
	if _, ok := svc.Resolve(ctx, "garbage"); ok {
		t.Fatal("malformed token should resolve to anonymous")
	}

	token, user, err := svc.Register(ctx, "alice@example.com", "Alice", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Dangling session: the bound user is gone.
	delete(users.users, user.ID)
	if _, ok := svc.Resolve(ctx, token); ok {
		t.Fatal("dangling session should resolve to anonymous")
	}

	// Expired session.
	users.users[user.ID] = user
	for id, session := range sessions.sessions {
		session.ExpiresAt = time.Now().Add(-time.Minute)
		sessions.sessions[id] = session
	}
	if _, ok := svc.Resolve(ctx, token); ok {
		t.Fatal("expired session should resolve to anonymous")
	}
}
