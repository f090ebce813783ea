package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/newslynx/recipes/internal/web/auth"
	"github.com/newslynx/recipes/internal/web/middleware"
	"github.com/newslynx/recipes/internal/web/response"
)

// RouterConfig configures NewRouter
type RouterConfig struct {
	// Prefix mounts the API below a path such as /api/v1
	Prefix string
	// Auth enables bearer-token authentication. Nil serves every request as
	// DefaultOrgID.
	Auth   *auth.Service
	Logger *zap.Logger
}

// NewRouter builds the HTTP handler for the API
func NewRouter(a *API, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Chain(
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Compression(),
		middleware.Recovery(log),
	))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderErrorWithCode(w, http.StatusMethodNotAllowed, "method_not_allowed",
			r.Method+" is not supported on "+r.URL.Path)
	})
	r.Get("/healthz", a.Health)

	routes := func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(middleware.Auth(cfg.Auth))
		}

		r.Route("/sous-chefs", func(r chi.Router) {
			r.Get("/", a.ListSousChefs)
			r.Post("/", a.CreateSousChef)
			r.Get("/{slug}", a.GetSousChef)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", a.ListRecipes)
			r.Post("/", a.CreateRecipe)
			r.Post("/validate", a.ValidateRecipe)
			r.Get("/{id}", a.GetRecipe)
			r.Put("/{id}", a.UpdateRecipe)
			r.Delete("/{id}", a.DeleteRecipe)
		})
	}

	if cfg.Prefix == "" || cfg.Prefix == "/" {
		r.Group(routes)
	} else {
		r.Route(cfg.Prefix, routes)
	}

	return r
}
