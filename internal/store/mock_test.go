package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newslynx/recipes/internal/schema"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, DriverPostgres, nil)
	s.setClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) })
	return s, mock
}

func TestMock_CreateSousChefUsesPostgresPlaceholders(t *testing.T) {
	s, mock := setupMockStore(t)
	now := s.now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO sous_chefs (slug, name, description, options, created, updated)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)).
		WithArgs("rss-scraper", "RSS Scraper", "", sqlmock.AnyArg(), now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	sc, err := s.CreateSousChef(context.Background(), rssScraper())
	require.NoError(t, err)
	assert.Equal(t, int64(7), sc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_CreateSousChefConflict(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery("INSERT INTO sous_chefs").
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (slug)=(rss-scraper) already exists."})

	_, err := s.CreateSousChef(context.Background(), rssScraper())
	assert.True(t, IsSlugConflict(err))
	assert.Contains(t, err.Error(), "already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_GetRecipe(t *testing.T) {
	s, mock := setupMockStore(t)
	created := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "org_id", "sous_chef_id", "slug", "name", "slug", "description",
		"schedule_by", "crontab", "time_of_day", "minutes", "status", "traceback", "scheduled",
		"options", "options_hash", "created", "updated",
	}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.org_id = $1 AND r.id = $2")).
		WithArgs(int64(3), int64(11)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			11, 3, 7, "rss-scraper", "Feed", "feed", nil,
			"unscheduled", nil, "09:30", nil, "stable", nil, true,
			`{"url":"http://example.com/rss","limit":20}`, "abc", created, created,
		))

	r, err := s.GetRecipe(context.Background(), 3, 11)
	require.NoError(t, err)
	assert.Equal(t, "feed", r.Slug)
	assert.Nil(t, r.Description)
	require.NotNil(t, r.TimeOfDay)
	assert.Equal(t, "09:30", *r.TimeOfDay)
	assert.Nil(t, r.Minutes)
	assert.Equal(t, float64(20), r.Options["limit"])

	rec := r.ToRecord()
	assert.Equal(t, "rss-scraper", rec["sous_chef_slug"])
	assert.Nil(t, rec["description"])
	assert.Nil(t, rec["minutes"])
	assert.Equal(t, true, rec[schema.ScheduledKey])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_GetRecipeNotFound(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery("FROM recipes r JOIN sous_chefs").WillReturnError(sql.ErrNoRows)

	_, err := s.GetRecipe(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_ListRecipesFilter(t *testing.T) {
	s, mock := setupMockStore(t)
	scheduled := false

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.org_id = $1 AND r.status = $2 AND r.scheduled = $3 ORDER BY r.id")).
		WithArgs(int64(1), "stable", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := s.ListRecipes(context.Background(), 1, RecipeFilter{Status: "stable", Scheduled: &scheduled})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_DeleteRecipe(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes WHERE org_id = $1 AND id = $2")).
		WithArgs(int64(1), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM recipes").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeleteRecipe(context.Background(), 1, 5))
	assert.ErrorIs(t, s.DeleteRecipe(context.Background(), 1, 5), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMock_MigrateRollsBackOnFailure(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sous_chefs").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	n, err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "create_sous_chefs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"pg unique", &pgconn.PgError{Code: "23505"}, ErrSlugConflict},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, ErrForeignKeyViolation},
		{"pg not null", &pgconn.PgError{Code: "23502", ColumnName: "slug"}, ErrNotNullViolation},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrSlugConflict},
		{"sqlite foreign key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, ErrForeignKeyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ConvertDBError(tt.err), tt.want)
		})
	}

	assert.NoError(t, ConvertDBError(nil))
	other := errors.New("boom")
	assert.Equal(t, other, ConvertDBError(other))
}
