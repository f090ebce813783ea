package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/newslynx/recipes/internal/cli/config"
	"github.com/newslynx/recipes/internal/cli/input"
	"github.com/newslynx/recipes/internal/logger"
	"github.com/newslynx/recipes/internal/schema"
	"github.com/newslynx/recipes/internal/store"
)

type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

type storeError struct{ err error }

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

type sousChefNotFoundError struct {
	slug  string
	known []string
}

func (e *sousChefNotFoundError) Error() string {
	return fmt.Sprintf("sous chef '%s' not found", e.slug)
}

func (e *sousChefNotFoundError) Unwrap() error { return store.ErrNotFound }

// loadConfig reads the configuration. Commands other than serve log at warn
// unless --log-level says otherwise.
func (o *globalOptions) loadConfig(quiet bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, &configError{err}
	}
	switch {
	case o.logLevel != "":
		cfg.Log.Level = o.logLevel
	case quiet:
		cfg.Log.Level = "warn"
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, nil, &configError{err}
	}
	return cfg, log, nil
}

// openStore opens the configured database
func (o *globalOptions) openStore() (*store.Store, *config.Config, *zap.Logger, error) {
	cfg, log, err := o.loadConfig(true)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.Open(cfg.Database.Driver, cfg.DatabaseURL(), log)
	if err != nil {
		return nil, nil, nil, &storeError{err}
	}
	return st, cfg, log, nil
}

// resolveSousChef finds a sous chef by slug, or loads a specification from inline
// JSON or a file and stores it when the slug is new
func resolveSousChef(ctx context.Context, st *store.Store, ref string) (*store.SousChef, error) {
	if !input.IsDataSource(ref) {
		sc, err := st.GetSousChef(ctx, ref)
		if store.IsNotFound(err) {
			return nil, notFound(ctx, st, ref)
		}
		if err != nil {
			return nil, &storeError{err}
		}
		return sc, nil
	}

	spec, err := input.LoadSousChef(ref)
	if err != nil {
		return nil, err
	}
	sc, err := st.GetSousChef(ctx, spec.Slug)
	if err == nil {
		return sc, nil
	}
	if !store.IsNotFound(err) {
		return nil, &storeError{err}
	}
	sc, err = st.CreateSousChef(ctx, spec)
	if err != nil {
		return nil, &storeError{err}
	}
	return sc, nil
}

func notFound(ctx context.Context, st *store.Store, slug string) error {
	e := &sousChefNotFoundError{slug: slug}
	if all, err := st.ListSousChefs(ctx); err == nil {
		for _, sc := range all {
			e.known = append(e.known, sc.Spec.Slug)
		}
	}
	return e
}

// readRecipe loads --data and overlays the runtime option arguments
func readRecipe(data string, args []string) (schema.Record, error) {
	rec, err := input.LoadData(data)
	if err != nil {
		return nil, err
	}
	extra, err := input.ParseRuntimeArgs(args)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		rec[k] = v
	}
	return rec, nil
}

// writeRecord prints a record as indented JSON or as YAML
func writeRecord(w io.Writer, v any, format string) error {
	plain := store.Serializable(v)
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plain)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.New("output must be 'json' or 'yaml'")
}
