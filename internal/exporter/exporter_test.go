package exporter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"proposaldesk/internal/model"
	"proposaldesk/internal/store"
	"proposaldesk/internal/table"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "export.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	_, err = st.EnsureColumns(ctx, model.TableCurrent, []string{model.ColRevenueIncremental1})
	require.NoError(t, err)
	insert := `INSERT INTO records_current ("NOP", "PROGRAM", "BUDGET", "STATUS", "REVENUE INCREMENTAL 1", row_hash) VALUES (?, ?, ?, ?, ?, ?)`
	require.NoError(t, st.Exec(ctx, insert, "NOP-PALU", "A", "100", "APPROVED", "7", "h1"))
	require.NoError(t, st.Exec(ctx, insert, "NOP-MKS", "B", "20", "APPROVED", nil, "h2"))
	require.NoError(t, st.Exec(ctx, insert, "NOP-MANADO", "C", "n/a", "REJECTED", nil, "h3"))
	return st
}

func TestExport_WritesDataAndMetadata(t *testing.T) {
	t.Parallel()
	st := seedStore(t)

	var stages []Stage
	path := filepath.Join(t.TempDir(), "snapshot.xlsx")
	snap, err := NewExporter(st, nil).ExportFile(context.Background(), ExportOptions{
		User:     "admin",
		Query:    table.Query{Tab: table.TabApproved, SortColumn: model.ColBudget},
		Now:      time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Progress: func(e ProgressEvent) { stages = append(stages, e.Stage) },
	}, path)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Rows)
	require.Equal(t, model.DesiredOrder, snap.Columns)
	require.Equal(t, []Stage{StageRead, StageData, StageMetadata, StageDone}, stages)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetData, SheetMetadata}, f.GetSheetList())

	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, model.DesiredOrder, rows[0])
	require.Equal(t, "NOP-MKS", rows[1][0])
	require.Equal(t, "NOP-PALU", rows[2][0])

	v, err := f.GetCellValue(SheetData, "F2")
	require.NoError(t, err)
	require.Equal(t, "20", v)
	// INCREMENTAL 1 由 REVENUE INCREMENTAL 1 补齐
	v, err = f.GetCellValue(SheetData, "J3")
	require.NoError(t, err)
	require.Equal(t, "7", v)

	meta, err := f.GetRows(SheetMetadata)
	require.NoError(t, err)
	got := map[string]string{}
	for _, r := range meta[1:] {
		if len(r) == 2 {
			got[r[0]] = r[1]
		}
	}
	require.Equal(t, "admin", got[model.ColExportUser])
	require.Equal(t, "2", got["TotalRows"])
	require.Equal(t, "approved", got["Tab"])
	require.Equal(t, "BUDGET asc", got["Sort"])
	require.Equal(t, "2026-10-18T09:00:00Z", got[model.ColExportTimestamp])
}

func TestExport_EmptyStoreStillHasHeader(t *testing.T) {
	t.Parallel()
	st, err := store.New(filepath.Join(t.TempDir(), "empty.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	snap, err := NewExporter(st, nil).Export(context.Background(), ExportOptions{User: "admin"})
	require.NoError(t, err)
	defer snap.File.Close()

	require.Equal(t, 0, snap.Rows)
	rows, err := snap.File.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, model.DesiredOrder, rows[0])
}
