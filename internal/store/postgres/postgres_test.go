package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/pgdialect"

	"paper-review-rag/internal/config"
)

func TestConnectDB(t *testing.T) {
	t.Run("dsn required", func(t *testing.T) {
		_, err := ConnectDB(&config.DatabaseConfig{Driver: "pgdriver"})
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := ConnectDB(&config.DatabaseConfig{Driver: "mysql", DSN: "postgres://localhost/db"})
		assert.Error(t, err)
	})

	for _, driver := range []string{"pgdriver", "pq"} {
		t.Run(driver, func(t *testing.T) {
			// opening is lazy; no server is contacted
			sqldb, err := ConnectDB(&config.DatabaseConfig{Driver: driver, DSN: "postgres://rag@localhost:5432/rag?sslmode=disable"})
			require.NoError(t, err)
			defer sqldb.Close()

			db := NewDB(sqldb, false)
			assert.IsType(t, pgdialect.New(), db.Dialect())
		})
	}
}

func TestCreateTableQuery(t *testing.T) {
	sqldb, err := ConnectDB(&config.DatabaseConfig{DSN: "postgres://rag@localhost:5432/rag?sslmode=disable"})
	require.NoError(t, err)
	defer sqldb.Close()
	db := NewDB(sqldb, false)

	query := db.NewCreateTable().Model((*Blob)(nil)).IfNotExists().String()
	assert.Contains(t, query, `"index_blobs"`)
	assert.Contains(t, query, `"key"`)
	assert.Contains(t, query, "bytea")
}

func TestDeleteQuery(t *testing.T) {
	sqldb, err := ConnectDB(&config.DatabaseConfig{DSN: "postgres://rag@localhost:5432/rag?sslmode=disable"})
	require.NoError(t, err)
	defer sqldb.Close()
	s := &Store{db: NewDB(sqldb, false)}

	query := s.deleteQuery("1706.03762_paper_pdf").String()
	assert.Contains(t, query, `DELETE FROM "index_blobs"`)
	assert.Contains(t, query, `'1706.03762_paper_pdf'`)
}
