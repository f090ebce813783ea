package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/newslynx/recipes/internal/schema"
)

// Recipe is a stored, validated recipe
type Recipe struct {
	ID           int64
	OrgID        int64
	SousChefID   int64
	SousChefSlug string
	Name         string
	Slug         string
	Description  *string
	ScheduleBy   string
	Crontab      *string
	TimeOfDay    *string
	Minutes      *float64
	Status       string
	Traceback    *string
	Scheduled    bool
	Options      map[string]any
	OptionsHash  string
	Created      time.Time
	Updated      time.Time
}

// RecipeFilter narrows ListRecipes
type RecipeFilter struct {
	Status    string
	Scheduled *bool
}

// ToRecord projects the stored recipe into the plain record form accepted by
// validation.Update
func (r *Recipe) ToRecord() schema.Record {
	opts := make(map[string]any, len(r.Options))
	for k, v := range r.Options {
		opts[k] = v
	}

	var minutes any
	if r.Minutes != nil {
		if m := *r.Minutes; m == math.Trunc(m) {
			minutes = int64(m)
		} else {
			minutes = m
		}
	}

	return schema.Record{
		"id":                r.ID,
		"org_id":            r.OrgID,
		"sous_chef_id":      r.SousChefID,
		"sous_chef_slug":    r.SousChefSlug,
		"name":              emptyAsNil(r.Name),
		"slug":              r.Slug,
		"description":       derefString(r.Description),
		"schedule_by":       r.ScheduleBy,
		"crontab":           derefString(r.Crontab),
		"time_of_day":       derefString(r.TimeOfDay),
		"minutes":           minutes,
		"status":            r.Status,
		"traceback":         derefString(r.Traceback),
		schema.ScheduledKey: r.Scheduled,
		schema.OptionsKey:   opts,
		"options_hash":      r.OptionsHash,
		"created":           r.Created,
		"updated":           r.Updated,
	}
}

// apply copies a validated record onto the recipe's columns
func (r *Recipe) apply(rec schema.Record) error {
	r.Name = stringOf(rec["name"])
	r.Slug = Slugify(stringOf(rec["slug"]))
	if r.Slug == "" {
		r.Slug = Slugify(r.Name)
	}
	r.Description = stringPtr(rec["description"])
	r.ScheduleBy = stringOf(rec["schedule_by"])
	r.Crontab = stringPtr(rec["crontab"])
	r.TimeOfDay = stringPtr(rec["time_of_day"])
	r.Status = stringOf(rec["status"])
	r.Traceback = stringPtr(rec["traceback"])
	r.Scheduled, _ = rec[schema.ScheduledKey].(bool)

	r.Minutes = nil
	if m := rec["minutes"]; m != nil {
		f, ok := toFloat(m)
		if !ok {
			return fmt.Errorf("recipe minutes must be numeric, got %T", m)
		}
		r.Minutes = &f
	}

	opts, _ := rec[schema.OptionsKey].(map[string]any)
	if opts == nil {
		opts = map[string]any{}
	}
	hash, err := OptionsHash(opts)
	if err != nil {
		return err
	}
	// keep the stored form so reads and writes agree
	encoded, err := encodeOptions(opts)
	if err != nil {
		return err
	}
	if r.Options, err = decodeOptions(encoded); err != nil {
		return err
	}
	r.OptionsHash = hash

	if r.Slug == "" {
		return fmt.Errorf("recipe slug is required")
	}
	return nil
}

const recipeColumns = `r.id, r.org_id, r.sous_chef_id, sc.slug, r.name, r.slug, r.description,
r.schedule_by, r.crontab, r.time_of_day, r.minutes, r.status, r.traceback, r.scheduled,
r.options, r.options_hash, r.created, r.updated`

const recipeFrom = ` FROM recipes r JOIN sous_chefs sc ON sc.id = r.sous_chef_id`

// CreateRecipe stores a validated recipe for an organization
func (s *Store) CreateRecipe(ctx context.Context, orgID int64, sc *SousChef, rec schema.Record) (*Recipe, error) {
	r := &Recipe{
		OrgID:        orgID,
		SousChefID:   sc.ID,
		SousChefSlug: sc.Spec.Slug,
	}
	if err := r.apply(rec); err != nil {
		return nil, err
	}
	opts, err := encodeOptions(r.Options)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r.Created, r.Updated = now, now
	err = s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO recipes (
	org_id, sous_chef_id, name, slug, description, schedule_by, crontab, time_of_day,
	minutes, status, traceback, scheduled, options, options_hash, created, updated
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		r.OrgID, r.SousChefID, nullString(r.Name), r.Slug, r.Description, r.ScheduleBy,
		r.Crontab, r.TimeOfDay, r.Minutes, r.Status, r.Traceback, r.Scheduled,
		string(opts), r.OptionsHash, r.Created, r.Updated,
	).Scan(&r.ID)
	if err != nil {
		return nil, ConvertDBError(err)
	}

	s.log.Debug("created recipe",
		zap.Int64("org_id", orgID),
		zap.Int64("id", r.ID),
		zap.String("slug", r.Slug),
	)
	return r, nil
}

// GetRecipe loads one of an organization's recipes
func (s *Store) GetRecipe(ctx context.Context, orgID, id int64) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+recipeColumns+recipeFrom+" WHERE r.org_id = ? AND r.id = ?"), orgID, id)
	return scanRecipe(row)
}

// ListRecipes returns an organization's recipes ordered by id
func (s *Store) ListRecipes(ctx context.Context, orgID int64, filter RecipeFilter) ([]*Recipe, error) {
	query := "SELECT " + recipeColumns + recipeFrom + " WHERE r.org_id = ?"
	args := []any{orgID}
	if filter.Status != "" {
		query += " AND r.status = ?"
		args = append(args, filter.Status)
	}
	if filter.Scheduled != nil {
		query += " AND r.scheduled = ?"
		args = append(args, *filter.Scheduled)
	}
	query += " ORDER BY r.id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	defer rows.Close()

	var out []*Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ConvertDBError(err)
	}
	return out, nil
}

// UpdateRecipe overwrites a stored recipe with a re-validated record and returns the
// new row. The passed recipe is not modified.
func (s *Store) UpdateRecipe(ctx context.Context, existing *Recipe, rec schema.Record) (*Recipe, error) {
	r := *existing
	if err := r.apply(rec); err != nil {
		return nil, err
	}
	opts, err := encodeOptions(r.Options)
	if err != nil {
		return nil, err
	}
	r.Updated = s.now()

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE recipes SET
	name = ?, slug = ?, description = ?, schedule_by = ?, crontab = ?, time_of_day = ?,
	minutes = ?, status = ?, traceback = ?, scheduled = ?, options = ?, options_hash = ?, updated = ?
WHERE org_id = ? AND id = ?`),
		nullString(r.Name), r.Slug, r.Description, r.ScheduleBy, r.Crontab, r.TimeOfDay,
		r.Minutes, r.Status, r.Traceback, r.Scheduled, string(opts), r.OptionsHash, r.Updated,
		r.OrgID, r.ID,
	)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	s.log.Debug("updated recipe", zap.Int64("org_id", r.OrgID), zap.Int64("id", r.ID))
	return &r, nil
}

// DeleteRecipe removes one of an organization's recipes
func (s *Store) DeleteRecipe(ctx context.Context, orgID, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM recipes WHERE org_id = ? AND id = ?"), orgID, id)
	if err != nil {
		return ConvertDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecipe(row scanner) (*Recipe, error) {
	var (
		r                                       Recipe
		name, desc, crontab, timeOfDay, traceBk sql.NullString
		minutes                                 sql.NullFloat64
		opts                                    string
	)
	err := row.Scan(
		&r.ID, &r.OrgID, &r.SousChefID, &r.SousChefSlug, &name, &r.Slug, &desc,
		&r.ScheduleBy, &crontab, &timeOfDay, &minutes, &r.Status, &traceBk, &r.Scheduled,
		&opts, &r.OptionsHash, &r.Created, &r.Updated,
	)
	if err != nil {
		return nil, ConvertDBError(err)
	}

	r.Name = name.String
	r.Description = fromNull(desc)
	r.Crontab = fromNull(crontab)
	r.TimeOfDay = fromNull(timeOfDay)
	r.Traceback = fromNull(traceBk)
	if minutes.Valid {
		m := minutes.Float64
		r.Minutes = &m
	}
	if r.Options, err = decodeOptions([]byte(opts)); err != nil {
		return nil, err
	}
	return &r, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringOf(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func stringPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := stringOf(v)
	return &s
}

func toFloat(v any) (float64, bool) {
	switch v.(type) {
	case string, []byte, bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}
