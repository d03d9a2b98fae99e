package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := &PostgresStore{db: mock}
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS blobs")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blobs")).
		WithArgs("locationAppCache", []byte(`{"images":{}}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectBlob)).
		WithArgs("locationAppCache").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"images":{}}`)))
	mock.ExpectQuery(regexp.QuoteMeta(selectBlob)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Save(ctx, "locationAppCache", []byte(`{"images":{}}`)))

	data, err := store.Load(ctx, "locationAppCache")
	require.NoError(t, err)
	assert.JSONEq(t, `{"images":{}}`, string(data))

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
