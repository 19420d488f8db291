package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	page, err := c.Get(ctx, "https://acme.test")
	require.NoError(t, err)
	assert.Nil(t, page)

	require.NoError(t, c.Set(ctx, "https://acme.test", "page text", time.Minute))

	page, err = c.Get(ctx, "https://acme.test")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "page text", page.Text)
	assert.Equal(t, "https://acme.test", page.URL)

	require.NoError(t, c.Delete(ctx, "https://acme.test"))
	page, err = c.Get(ctx, "https://acme.test")
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "u", "text", time.Minute))

	now = now.Add(30 * time.Second)
	page, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.NotNil(t, page)

	now = now.Add(time.Minute)
	page, err = c.Get(ctx, "u")
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Empty(t, c.data)
}

func newMockPostgres(t *testing.T) (*PostgresCache, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresCacheFromDB(db), mock
}

func TestPostgresCache_GetHit(t *testing.T) {
	c, mock := newMockPostgres(t)
	created := time.Now().Add(-time.Minute)
	expires := time.Now().Add(time.Minute)

	rows := sqlmock.NewRows([]string{"url", "text", "created_at", "expires_at"}).
		AddRow("https://acme.test", "cached text", created, expires)
	mock.ExpectQuery("FROM page_cache").
		WithArgs("https://acme.test").
		WillReturnRows(rows)

	page, err := c.Get(context.Background(), "https://acme.test")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "cached text", page.Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_GetMiss(t *testing.T) {
	c, mock := newMockPostgres(t)
	mock.ExpectQuery("FROM page_cache").
		WithArgs("https://missing.test").
		WillReturnError(sql.ErrNoRows)

	page, err := c.Get(context.Background(), "https://missing.test")
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_SetAndDelete(t *testing.T) {
	c, mock := newMockPostgres(t)
	mock.ExpectExec("INSERT INTO page_cache").
		WithArgs("https://acme.test", "text", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM page_cache WHERE url").
		WithArgs("https://acme.test").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, c.Set(context.Background(), "https://acme.test", "text", time.Hour))
	require.NoError(t, c.Delete(context.Background(), "https://acme.test"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_CleanExpired(t *testing.T) {
	c, mock := newMockPostgres(t)
	mock.ExpectExec("DELETE FROM page_cache WHERE expires_at").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := c.CleanExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_EnsureSchema(t *testing.T) {
	c, mock := newMockPostgres(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS page_cache").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, c.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
