package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/model"
)

func syncRow(nop, program, budget, hash string) model.Row {
	return model.Row{
		model.ColNOP:     nop,
		model.ColProgram: program,
		model.ColBudget:  budget,
		model.ColRowHash: hash,
	}
}

func TestEnsureColumns_AddsMissingOnce(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	added, err := st.EnsureColumns(ctx, model.TableCurrent, []string{model.ColNOP, "REVENUE INCREMENTAL 1"})
	require.NoError(t, err)
	require.Equal(t, []string{"REVENUE INCREMENTAL 1"}, added)

	added, err = st.EnsureColumns(ctx, model.TableCurrent, []string{"REVENUE INCREMENTAL 1"})
	require.NoError(t, err)
	require.Empty(t, added)

	cols, err := st.Columns(ctx, model.TableCurrent)
	require.NoError(t, err)
	require.Contains(t, cols, "REVENUE INCREMENTAL 1")
}

func TestSyncRecords_InsertUpdateUnchangedAndRollback(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	cols := []string{model.ColNOP, model.ColProgram, model.ColBudget}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := st.SyncRecords(ctx, SyncInput{
		Columns:    cols,
		Rows:       []model.Row{syncRow("NOP-PALU", "PROG-A", "10", "h1"), syncRow("NOP-MKS", "PROG-B", "20", "h2")},
		SourceFile: "first.xlsx",
		Now:        now,
	})
	require.NoError(t, err)
	require.Equal(t, 2, first.NewRecords)
	require.Empty(t, first.Errors)

	second, err := st.SyncRecords(ctx, SyncInput{
		Columns: cols,
		Rows: []model.Row{
			syncRow("NOP-PALU", "PROG-A", "15", "h1b"),
			syncRow("NOP-MKS", "PROG-B", "20", "h2"),
			{model.ColProgram: "NO KEY", model.ColRowHash: "x"},
		},
		SourceFile: "second.xlsx",
		Now:        now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, 0, second.NewRecords)
	require.Equal(t, 1, second.UpdatedRecords)
	require.Equal(t, 1, second.UnchangedRecords)
	require.Equal(t, 1, second.SkippedRecords)
	require.Equal(t, []Modification{{NOP: "NOP-PALU", Field: model.ColBudget, Old: "10", New: "15"}}, second.Modifications)

	row, err := st.FindByNOP(ctx, "NOP-PALU")
	require.NoError(t, err)
	require.Equal(t, "15", row[model.ColBudget])
	require.Equal(t, "h1b", row[model.ColRowHash])
	require.Equal(t, "first.xlsx", row[model.ColSourceFile])

	require.NoError(t, st.Rollback(ctx, "NOP-PALU"))
	row, err = st.FindByNOP(ctx, "NOP-PALU")
	require.NoError(t, err)
	require.Equal(t, "10", row[model.ColBudget])
	require.Equal(t, "h1", row[model.ColRowHash])
}

func TestRollback_WithoutHistoryIsNotFound(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	err := st.Rollback(context.Background(), "NOP-PALU")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
