package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethanbaker/integrations/pkg/integration"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newMockStore creates a Store backed by sqlmock
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { sqlDB.Close() })

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	return NewStoreFromDB(db), mock
}

var integrationColumns = []string{"id", "created_at", "updated_at", "user_id", "name", "connected", "options", "field_mappings"}

func TestStore_GetIntegration(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		now := time.Now()

		rows := sqlmock.NewRows(integrationColumns).
			AddRow("id-1", now, now, "user-1", "CRM", true, []byte(`{"apiKey":"abc"}`), []byte(`{"full_name":"firstName"}`))
		mock.ExpectQuery("SELECT \\* FROM `user_integrations` WHERE user_id = \\? AND name = \\?").WillReturnRows(rows)

		got, err := store.GetIntegration(ctx, "user-1", "CRM")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "CRM", got.Name)
		assert.True(t, got.Connected)
		assert.Equal(t, integration.Options{"apiKey": "abc"}, got.Options)
		assert.Equal(t, integration.FieldMapping{"full_name": "firstName"}, got.FieldMappings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT \\* FROM `user_integrations`").WillReturnRows(sqlmock.NewRows(integrationColumns))

		_, err := store.GetIntegration(ctx, "user-1", "CRM")
		assert.ErrorIs(t, err, integration.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database failure is not a not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT \\* FROM `user_integrations`").WillReturnError(errors.New("connection reset"))

		_, err := store.GetIntegration(ctx, "user-1", "CRM")
		require.Error(t, err)
		assert.NotErrorIs(t, err, integration.ErrNotFound)
	})
}

func TestStore_InsertIntegration(t *testing.T) {
	ctx := context.Background()
	in := &integration.UserIntegration{
		UserID:    "user-1",
		Name:      "CRM",
		Connected: true,
		Options:   integration.Options{"apiKey": "abc"},
	}

	t.Run("inserted", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO `user_integrations`").WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, store.InsertIntegration(ctx, in))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate key is a conflict", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO `user_integrations`").
			WillReturnError(&mysqldriver.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"})

		err := store.InsertIntegration(ctx, in)
		assert.ErrorIs(t, err, integration.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user id never reaches the database", func(t *testing.T) {
		store, mock := newMockStore(t)

		err := store.InsertIntegration(ctx, &integration.UserIntegration{Name: "CRM"})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_DeleteIntegration(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("DELETE FROM `user_integrations` WHERE user_id = \\? AND name = \\?").
			WithArgs("user-1", "CRM").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.DeleteIntegration(ctx, "user-1", "CRM"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing deleted is not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("DELETE FROM `user_integrations`").WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.DeleteIntegration(ctx, "user-1", "CRM")
		assert.ErrorIs(t, err, integration.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Definitions(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "created_at", "updated_at", "name", "options", "supports_field_mapping", "external_fields"}

	t.Run("list", func(t *testing.T) {
		store, mock := newMockStore(t)
		now := time.Now()

		rows := sqlmock.NewRows(columns).
			AddRow("id-1", now, now, "CRM", []byte(`{"apiKey":""}`), true, []byte(`["full_name","email_address"]`)).
			AddRow("id-2", now, now, "Calendar", []byte(`{"url":""}`), false, []byte(`[]`))
		mock.ExpectQuery("SELECT \\* FROM `integration_definitions` ORDER BY name").WillReturnRows(rows)

		defs, err := store.ListDefinitions(ctx)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, "CRM", defs[0].Name)
		assert.True(t, defs[0].SupportsFieldMapping)
		assert.Equal(t, []string{"full_name", "email_address"}, defs[0].ExternalFields)
		assert.Equal(t, integration.Options{"url": ""}, defs[1].Options)
	})

	t.Run("get unknown", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT \\* FROM `integration_definitions`").WillReturnRows(sqlmock.NewRows(columns))

		_, err := store.GetDefinition(ctx, "missing")
		assert.ErrorIs(t, err, integration.ErrNotFound)
	})

	t.Run("insert duplicate", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO `integration_definitions`").
			WillReturnError(&mysqldriver.MySQLError{Number: mysqlDuplicateEntry})

		err := store.InsertDefinition(ctx, newCRM())
		assert.ErrorIs(t, err, integration.ErrConflict)
	})
}
