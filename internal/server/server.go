package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillpress/server/config"
	"github.com/quillpress/server/internal/db"
	"github.com/quillpress/server/internal/handlers"
	"github.com/quillpress/server/internal/mq"
	"github.com/quillpress/server/internal/security"
	"github.com/quillpress/server/internal/services"
	"github.com/quillpress/server/internal/storage"
	"github.com/quillpress/server/internal/store"
)

// Server wraps the HTTP server and its owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.Broker
}

// New constructs a Server with all services wired from config.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	images, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if images != nil {
		if err := images.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ensure image bucket: %w", err)
		}
	}

	broker, err := mq.FromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	sessionRepo := store.NewSessionRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)
	commentRepo := store.NewCommentRepository(dbConn)
	contactRepo := store.NewContactRepository(dbConn)

	var events services.EventPublisher
	if broker != nil {
		events = broker
	}

	authService := services.NewAuthService(
		userRepo,
		sessionRepo,
		security.NewHasher(bcrypt.DefaultCost),
		security.NewTokenSigner(cfg.Session.Secret),
		cfg.Session.TTL,
		log,
	)
	postService := services.NewPostService(postRepo)
	commentService := services.NewCommentService(commentRepo, events, log)
	contactService := services.NewContactService(contactRepo, events, log)

	authHandler := handlers.NewAuthHandler(authService, log)
	postHandler := handlers.NewPostHandler(postService, commentService, images, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, log)
	})
	router.Route("/posts", func(r chi.Router) {
		r.Use(authHandler.ResolveUser)
		handlers.PostRouter(r, postService, commentService, images, authHandler.RequireAuth, log)
	})
	router.Route("/contact", func(r chi.Router) {
		handlers.ContactRouter(r, contactService)
	})
	router.Get("/images/*", postHandler.ServeImage)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
