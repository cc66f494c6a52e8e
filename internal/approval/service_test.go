package approval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/model"
	"proposaldesk/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "approval.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	err = st.Exec(context.Background(),
		`INSERT INTO records_current ("NOP", "PROGRAM", "STATUS") VALUES (?, ?, ?)`,
		"NOP-PALU", "PROG-A", "SUBMITTED")
	require.NoError(t, err)
	return st
}

func TestApprove_ExistingRecord(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	svc := NewService(st, nil)
	ctx := context.Background()

	res, err := svc.Approve(ctx, "NOP-PALU", "admin")
	require.NoError(t, err)
	require.Equal(t, "Proposal NOP-PALU telah disetujui oleh admin.", res.Message)
	require.EqualValues(t, 1, res.RowsAffected)

	row, err := st.FindByNOP(ctx, "NOP-PALU")
	require.NoError(t, err)
	require.Equal(t, "APPROVED", row[model.ColStatus])
	require.Equal(t, "admin", row[model.ColApprovedBy])

	// 再次批准覆盖审批人
	_, err = svc.Approve(ctx, "NOP-PALU", "NOP-MKS")
	require.NoError(t, err)
	row, err = st.FindByNOP(ctx, "NOP-PALU")
	require.NoError(t, err)
	require.Equal(t, "NOP-MKS", row[model.ColApprovedBy])
}

func TestApprove_MissingRecordIsNotFound(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	svc := NewService(st, nil)
	ctx := context.Background()

	res, err := svc.Approve(ctx, "NOP-GHOST", "admin")
	require.Nil(t, res)
	require.True(t, errors.Is(err, apperr.ErrNotFound))

	rows, err := st.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "SUBMITTED", rows[0][model.ColStatus])
	require.Nil(t, rows[0][model.ColApprovedBy])
}

func TestReject_MissingRecordStillSucceeds(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(st, zap.New(core))
	ctx := context.Background()

	res, err := svc.Reject(ctx, "NOP-GHOST", "admin")
	require.NoError(t, err)
	require.Equal(t, "Proposal NOP-GHOST telah ditolak oleh admin.", res.Message)
	require.EqualValues(t, 0, res.RowsAffected)
	require.Equal(t, 1, logs.Len())

	row, err := st.FindByNOP(ctx, "NOP-PALU")
	require.NoError(t, err)
	require.Equal(t, "SUBMITTED", row[model.ColStatus])
}

func TestReject_ExistingRecord(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	svc := NewService(st, nil)
	ctx := context.Background()

	_, err := svc.Reject(ctx, "NOP-PALU", "NOP-MANADO")
	require.NoError(t, err)

	row, err := st.FindByNOP(ctx, "NOP-PALU")
	require.NoError(t, err)
	require.Equal(t, "REJECTED", row[model.ColStatus])
	require.Equal(t, "NOP-MANADO", row[model.ColApprovedBy])
}

type failingStore struct{ err error }

func (f failingStore) RecordExists(context.Context, string) (bool, error) { return false, f.err }
func (f failingStore) SetStatus(context.Context, string, model.Status, string) (int64, error) {
	return 0, f.err
}

func TestService_PropagatesStoreErrors(t *testing.T) {
	t.Parallel()
	boom := apperr.NewStoreError("update_status", errors.New("database is locked"))
	svc := NewService(failingStore{err: boom}, nil)

	_, err := svc.Approve(context.Background(), "NOP-PALU", "admin")
	require.True(t, apperr.IsStoreError(err))
	_, err = svc.Reject(context.Background(), "NOP-PALU", "admin")
	require.True(t, apperr.IsStoreError(err))
}
