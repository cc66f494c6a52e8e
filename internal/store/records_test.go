package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "records.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func insertRecord(t *testing.T, st *Store, nop, program, status string) {
	t.Helper()
	err := st.Exec(context.Background(), `INSERT INTO records_current ("NOP", "PROGRAM", "STATUS", row_hash) VALUES (?, ?, ?, ?)`,
		nop, program, status, "hash-"+nop)
	require.NoError(t, err)
}

func TestListRecords_PreservesInsertOrderAndNulls(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	insertRecord(t, st, "NOP-PALU", "PROG-A", "SUBMITTED")
	insertRecord(t, st, "NOP-MKS", "PROG-B", "PENDING")

	rows, err := st.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "NOP-PALU", rows[0][model.ColNOP])
	require.Equal(t, "NOP-MKS", rows[1][model.ColNOP])
	require.Nil(t, rows[0][model.ColBudget])
	require.Contains(t, rows[0], model.ColApprovedBy)
}

func TestColumns_FollowsSchemaOrder(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	cols, err := st.Columns(context.Background(), model.TableCurrent)
	require.NoError(t, err)
	require.Equal(t, model.DesiredOrder, cols[:len(model.DesiredOrder)])
	require.Equal(t, model.InternalColumns, cols[len(model.DesiredOrder):])
}

func TestSetStatus_ReportsAffectedRows(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	insertRecord(t, st, "NOP-PALU", "PROG-A", "SUBMITTED")

	n, err := st.SetStatus(ctx, "NOP-PALU", model.StatusApproved, "admin")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	row, err := st.FindByNOP(ctx, "NOP-PALU")
	require.NoError(t, err)
	require.Equal(t, "APPROVED", row[model.ColStatus])
	require.Equal(t, "admin", row[model.ColApprovedBy])

	n, err = st.SetStatus(ctx, "NOP-UNKNOWN", model.StatusRejected, "admin")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestFindByNOP_NotFound(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	_, err := st.FindByNOP(context.Background(), "NOP-NONE")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	ok, err := st.RecordExists(context.Background(), "NOP-NONE")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListRecords_QueryFailureIsStoreError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(`SELECT \* FROM "records_current"`).WillReturnError(errors.New("disk I/O error"))

	st := NewWithDB(sqlx.NewDb(db, "sqlite3"))
	_, err = st.ListRecords(context.Background())
	require.Error(t, err)
	require.True(t, apperr.IsStoreError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus_ExecFailureIsStoreError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec(`UPDATE "records_current" SET "STATUS" = \?, "APPROVED BY" = \? WHERE "NOP" = \?`).
		WithArgs("REJECTED", "admin", "NOP-PALU").
		WillReturnError(errors.New("database is locked"))

	st := NewWithDB(sqlx.NewDb(db, "sqlite3"))
	_, err = st.SetStatus(context.Background(), "NOP-PALU", model.StatusRejected, "admin")

	var se *apperr.StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "update_status", se.Operation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDSN_AppendsParamsToPathsAndURIs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, dsn, file string
	}{
		{"data/app.sqlite", "data/app.sqlite?" + dsnParams, "data/app.sqlite"},
		{"file:data/app.sqlite?mode=rwc", "file:data/app.sqlite?mode=rwc&" + dsnParams, "data/app.sqlite"},
		{"file:data/app.sqlite?", "file:data/app.sqlite?" + dsnParams, "data/app.sqlite"},
	}
	for _, tc := range cases {
		dsn, file := buildDSN(tc.in)
		require.Equal(t, tc.dsn, dsn, tc.in)
		require.Equal(t, tc.file, file, tc.in)
	}
}

func TestNew_AcceptsFileURIWithQuery(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "uri.sqlite")
	st, err := New("file:" + path + "?mode=rwc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	insertRecord(t, st, "NOP-PALU", "PROG-A", "SUBMITTED")
	ok, err := st.RecordExists(context.Background(), "NOP-PALU")
	require.NoError(t, err)
	require.True(t, ok)
	require.FileExists(t, path)
}
