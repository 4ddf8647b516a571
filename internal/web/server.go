package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"recipebox/internal/auth"
	"recipebox/internal/linkmeta"
	"recipebox/internal/metrics"
	"recipebox/internal/recipe"
	"recipebox/internal/shopping"
	"recipebox/internal/user"
)

// UserStore creates and refreshes accounts on sign-in and resolves the
// account behind a session.
type UserStore interface {
	Get(ctx context.Context, id string) (*user.User, error)
	Upsert(ctx context.Context, identity user.Identity) (*user.User, error)
}

// LinkFetcher scrapes recipe links for the autofill endpoint.
type LinkFetcher interface {
	Fetch(ctx context.Context, link string) (linkmeta.Metadata, error)
}

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Recipes  *recipe.Service
	Shopping *shopping.Service
	Users    UserStore
	Links    LinkFetcher
	Provider auth.IdentityProvider
	Sessions *auth.Sessions
	Health   *metrics.Collector
	Logger   *zap.Logger
}

// Server serves the recipebox HTTP API.
type Server struct {
	recipes  *recipe.Service
	shopping *shopping.Service
	users    UserStore
	links    LinkFetcher
	provider auth.IdentityProvider
	sessions *auth.Sessions
	health   *metrics.Collector
	logger   *zap.Logger
}

// NewServer creates a new Server.
func NewServer(d Deps) *Server {
	return &Server{
		recipes:  d.Recipes,
		shopping: d.Shopping,
		users:    d.Users,
		links:    d.Links,
		provider: d.Provider,
		sessions: d.Sessions,
		health:   d.Health,
		logger:   d.Logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.loadSession)

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/google", s.handleSignIn)
		r.Get("/auth/callback/google", s.handleCallback)
		r.Post("/auth/sign-out", s.handleSignOut)
		r.Get("/autofill", s.handleAutofill)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", s.handleListRecipes)
		r.Post("/new", s.handleCreateRecipe)
		r.Get("/{recipeId}/edit", s.handleGetRecipe)
		r.Post("/{recipeId}/edit", s.handleUpdateRecipe)
		r.Post("/{recipeId}/destroy", s.handleDeleteRecipe)

		r.Get("/shopping-list", s.handleShoppingList)
		r.Post("/shopping-list/update/{recipeId}", s.handleToggleShoppingList)
		r.Post("/shopping-list/clear", s.handleClearShoppingList)
	})

	return r
}

// NewHTTPServer wraps the router with the timeouts used in production.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFrom(r.Context()); ok {
		http.Redirect(w, r, "/recipes", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Welcome to recipebox. Sign in with Google to start collecting recipes.",
		"signIn":  "/api/auth/google",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.health.GetSysHealth(r.Context())
	status := http.StatusOK
	if !h.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}
