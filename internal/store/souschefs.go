package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newslynx/recipes/internal/schema"
)

// SousChef is a stored sous chef specification
type SousChef struct {
	ID      int64
	Spec    *schema.SousChef
	Created time.Time
	Updated time.Time
}

const sousChefColumns = "id, slug, name, description, options, created, updated"

// CreateSousChef validates and stores a sous chef specification
func (s *Store) CreateSousChef(ctx context.Context, spec *schema.SousChef) (*SousChef, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	opts, err := json.Marshal(spec.ToMap()[schema.OptionsKey])
	if err != nil {
		return nil, fmt.Errorf("failed to encode sous chef options: %w", err)
	}

	now := s.now()
	sc := &SousChef{Spec: spec, Created: now, Updated: now}
	err = s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO sous_chefs (slug, name, description, options, created, updated)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		spec.Slug, spec.Name, spec.Description, string(opts), now, now,
	).Scan(&sc.ID)
	if err != nil {
		return nil, ConvertDBError(err)
	}

	s.log.Debug("created sous chef", zap.String("slug", spec.Slug), zap.Int64("id", sc.ID))
	return sc, nil
}

// GetSousChef loads a sous chef by slug
func (s *Store) GetSousChef(ctx context.Context, slug string) (*SousChef, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+sousChefColumns+" FROM sous_chefs WHERE slug = ?"), slug)
	return scanSousChef(row)
}

// LoadSousChef returns only the specification of the sous chef named by slug. It
// satisfies cache.Loader.
func (s *Store) LoadSousChef(ctx context.Context, slug string) (*schema.SousChef, error) {
	sc, err := s.GetSousChef(ctx, slug)
	if err != nil {
		return nil, err
	}
	return sc.Spec, nil
}

// ListSousChefs returns every sous chef ordered by slug
func (s *Store) ListSousChefs(ctx context.Context) ([]*SousChef, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sousChefColumns+" FROM sous_chefs ORDER BY slug")
	if err != nil {
		return nil, ConvertDBError(err)
	}
	defer rows.Close()

	var out []*SousChef
	for rows.Next() {
		sc, err := scanSousChef(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, ConvertDBError(err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSousChef(row scanner) (*SousChef, error) {
	var (
		sc   SousChef
		spec schema.SousChef
		opts string
	)
	if err := row.Scan(&sc.ID, &spec.Slug, &spec.Name, &spec.Description, &opts, &sc.Created, &sc.Updated); err != nil {
		return nil, ConvertDBError(err)
	}

	var rawOpts map[string]any
	if err := json.Unmarshal([]byte(opts), &rawOpts); err != nil {
		return nil, fmt.Errorf("sous chef '%s' has corrupt options: %w", spec.Slug, err)
	}
	parsed, err := schema.ParseSousChef(map[string]any{
		"slug":            spec.Slug,
		"name":            spec.Name,
		"description":     spec.Description,
		schema.OptionsKey: rawOpts,
	})
	if err != nil {
		return nil, err
	}
	sc.Spec = parsed
	return &sc, nil
}
