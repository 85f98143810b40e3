package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Check(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		status := NewHealthChecker(db).Check(context.Background())
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, StatusHealthy, status.Dependencies["database"].Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))

		status := NewHealthChecker(db).Check(context.Background())
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Contains(t, status.Dependencies["database"].Message, "connection refused")
	})

	t.Run("no database", func(t *testing.T) {
		status := NewHealthChecker(nil).Check(context.Background())
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Empty(t, status.Dependencies)
	})
}
