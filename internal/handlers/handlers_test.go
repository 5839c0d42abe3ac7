package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillpress/server/internal/security"
	"github.com/quillpress/server/internal/services"
	"github.com/quillpress/server/internal/store"
	"github.com/quillpress/server/types"
)

// In-memory repositories backing the handler tests.

type memUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
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

type memSessionRepo struct {
	sessions  map[string]types.Session
	deleteErr error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]types.Session{}}
}

func (r *memSessionRepo) Get(_ context.Context, id string) (types.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (r *memSessionRepo) Create(_ context.Context, session types.Session) (types.Session, error) {
	r.sessions[session.ID] = session
	return session, nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.sessions, id)
	return nil
}

type memPostRepo struct {
	nextID int
	posts  map[int]types.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{nextID: 1, posts: map[int]types.Post{}}
}

func (r *memPostRepo) List(_ context.Context, offset, limit int) ([]types.Post, int, error) {
	var posts []types.Post
	for _, post := range r.posts {
		posts = append(posts, post)
	}
	return posts, len(r.posts), nil
}

func (r *memPostRepo) Get(_ context.Context, id int) (types.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (r *memPostRepo) Create(_ context.Context, post types.Post) (types.Post, error) {
	for _, existing := range r.posts {
		if existing.Title == post.Title {
			return types.Post{}, store.ErrDuplicateTitle
		}
	}
	post.ID = r.nextID
	r.nextID++
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = post
	return post, nil
}

func (r *memPostRepo) Update(_ context.Context, post types.Post) (types.Post, error) {
	if _, ok := r.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	for id, existing := range r.posts {
		if id != post.ID && existing.Title == post.Title {
			return types.Post{}, store.ErrDuplicateTitle
		}
	}
	post.UpdatedAt = time.Now()
	r.posts[post.ID] = post
	return post, nil
}

func (r *memPostRepo) SetImageKey(_ context.Context, id int, key string) error {
	post, ok := r.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	post.ImageKey = key
	r.posts[id] = post
	return nil
}

func (r *memPostRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

type memCommentRepo struct {
	nextID   int
	users    *memUserRepo
	comments map[int]types.Comment
}

func newMemCommentRepo(users *memUserRepo) *memCommentRepo {
	return &memCommentRepo{nextID: 1, users: users, comments: map[int]types.Comment{}}
}

func (r *memCommentRepo) ListByPost(_ context.Context, postID int) ([]store.CommentRow, error) {
	var rows []store.CommentRow
	for _, comment := range r.comments {
		if comment.PostID != postID {
			continue
		}
		row := store.CommentRow{Comment: comment}
		if author, ok := r.users.users[comment.AuthorID]; ok {
			row.Comment.AuthorName = author.Name
			row.AuthorEmail = author.Email
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *memCommentRepo) Create(_ context.Context, comment types.Comment) (types.Comment, error) {
	comment.ID = r.nextID
	r.nextID++
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = comment
	return comment, nil
}

// testEnv bundles the wired router and repositories for a handler test.
type testEnv struct {
	router   *chi.Mux
	auth     *services.AuthService
	users    *memUserRepo
	sessions *memSessionRepo
	posts    *memPostRepo
	comments *memCommentRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	posts := newMemPostRepo()
	comments := newMemCommentRepo(users)

	authService := services.NewAuthService(
		users,
		sessions,
		security.NewHasher(bcrypt.MinCost),
		security.NewTokenSigner("test-secret"),
		time.Hour,
		nil,
	)
	postService := services.NewPostService(posts)
	commentService := services.NewCommentService(comments, nil, nil)

	authHandler := NewAuthHandler(authService, nil)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, nil)
	})
	router.Route("/posts", func(r chi.Router) {
		r.Use(authHandler.ResolveUser)
		PostRouter(r, postService, commentService, nil, authHandler.RequireAuth, nil)
	})

	return &testEnv{
		router:   router,
		auth:     authService,
		users:    users,
		sessions: sessions,
		posts:    posts,
		comments: comments,
	}
}

func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doWithCookie(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, name, password string) string {
	t.Helper()

	token, _, err := e.auth.Register(context.Background(), email, name, password)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	if err := json.NewDecoder(rec.Body).Decode(&value); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return value
}
