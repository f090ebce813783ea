// Package api exposes sous chefs and recipes over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/newslynx/recipes/internal/cache"
	"github.com/newslynx/recipes/internal/schema"
	"github.com/newslynx/recipes/internal/store"
	"github.com/newslynx/recipes/internal/validation"
	"github.com/newslynx/recipes/internal/web/response"
	"github.com/newslynx/recipes/internal/web/webctx"
)

// DefaultOrgID is used for every request when authentication is disabled
const DefaultOrgID int64 = 1

const maxBodyBytes = 1 << 20

// API holds the handlers' dependencies
type API struct {
	store     *store.Store
	sousChefs *cache.SousChefs
	engine    *validation.Engine
	log       *zap.Logger
}

// New creates the API handlers
func New(st *store.Store, sousChefs *cache.SousChefs, engine *validation.Engine, log *zap.Logger) *API {
	if engine == nil {
		engine = validation.NewEngine()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &API{store: st, sousChefs: sousChefs, engine: engine, log: log.Named("api")}
}

func orgID(ctx context.Context) int64 {
	if id, ok := webctx.GetOrgID(ctx); ok {
		return id
	}
	return DefaultOrgID
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func recipeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recipe id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// sousChefSlug pulls the target sous chef out of a recipe payload
func sousChefSlug(body schema.Record) (string, error) {
	for _, key := range []string{"sous_chef", "sous_chef_slug"} {
		if slug, ok := body[key].(string); ok && slug != "" {
			return slug, nil
		}
	}
	return "", errors.New("a recipe payload must name its 'sous_chef'")
}

func sousChefJSON(sc *store.SousChef) map[string]any {
	m := sc.Spec.ToMap()
	m["id"] = sc.ID
	m["created"] = sc.Created
	m["updated"] = sc.Updated
	return m
}

func recipeJSON(r *store.Recipe) any {
	return store.Serializable(r.ToRecord())
}

// ListSousChefs handles GET /sous-chefs
func (a *API) ListSousChefs(w http.ResponseWriter, r *http.Request) {
	scs, err := a.store.ListSousChefs(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(scs))
	for _, sc := range scs {
		out = append(out, sousChefJSON(sc))
	}
	response.JSON(w, http.StatusOK, out)
}

// CreateSousChef handles POST /sous-chefs
func (a *API) CreateSousChef(w http.ResponseWriter, r *http.Request) {
	var spec schema.SousChef
	if err := decodeBody(r, &spec); err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	sc, err := a.store.CreateSousChef(r.Context(), &spec)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.sousChefs.Invalidate(r.Context(), spec.Slug); err != nil {
		a.log.Warn("cache invalidation failed", zap.String("slug", spec.Slug), zap.Error(err))
	}
	response.JSON(w, http.StatusCreated, sousChefJSON(sc))
}

// GetSousChef handles GET /sous-chefs/{slug}
func (a *API) GetSousChef(w http.ResponseWriter, r *http.Request) {
	sc, err := a.store.GetSousChef(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, sousChefJSON(sc))
}

// ListRecipes handles GET /recipes?status=&scheduled=
func (a *API) ListRecipes(w http.ResponseWriter, r *http.Request) {
	filter := store.RecipeFilter{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("scheduled"); raw != "" {
		scheduled, err := strconv.ParseBool(raw)
		if err != nil {
			response.RenderBadRequest(w, "scheduled must be true or false")
			return
		}
		filter.Scheduled = &scheduled
	}

	recipes, err := a.store.ListRecipes(r.Context(), orgID(r.Context()), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]any, 0, len(recipes))
	for _, rec := range recipes {
		out = append(out, recipeJSON(rec))
	}
	response.JSON(w, http.StatusOK, out)
}

// CreateRecipe handles POST /recipes
func (a *API) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var body schema.Record
	if err := decodeBody(r, &body); err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	slug, err := sousChefSlug(body)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	sc, err := a.store.GetSousChef(r.Context(), slug)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	validated, err := a.engine.Validate(body, sc.Spec)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	created, err := a.store.CreateRecipe(r.Context(), orgID(r.Context()), sc, validated)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, recipeJSON(created))
}

// GetRecipe handles GET /recipes/{id}
func (a *API) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	rec, err := a.store.GetRecipe(r.Context(), orgID(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, recipeJSON(rec))
}

// UpdateRecipe handles PUT /recipes/{id}. The body is a partial recipe merged over
// the stored one and re-validated.
func (a *API) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	var partial schema.Record
	if err := decodeBody(r, &partial); err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	existing, err := a.store.GetRecipe(r.Context(), orgID(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sc, err := a.sousChefs.Get(r.Context(), existing.SousChefSlug)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	validated, err := a.engine.Update(existing, partial, sc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := a.store.UpdateRecipe(r.Context(), existing, validated)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, recipeJSON(updated))
}

// DeleteRecipe handles DELETE /recipes/{id}
func (a *API) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	if err := a.store.DeleteRecipe(r.Context(), orgID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateRecipe handles POST /recipes/validate: it returns the validated recipe
// without storing it
func (a *API) ValidateRecipe(w http.ResponseWriter, r *http.Request) {
	var body schema.Record
	if err := decodeBody(r, &body); err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	slug, err := sousChefSlug(body)
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}
	sc, err := a.sousChefs.Get(r.Context(), slug)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	validated, err := a.engine.Validate(body, sc)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, store.Serializable(validated))
}

// Health handles GET /healthz
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		response.RenderErrorWithCode(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !validation.IsSchemaError(err) && !store.IsNotFound(err) && !store.IsSlugConflict(err) {
		a.log.Error("request failed",
			zap.String("request_id", webctx.GetRequestID(r.Context())),
			zap.String("subject", webctx.GetSubject(r.Context())),
			zap.Error(err),
		)
	}
	response.RenderError(w, err)
}
