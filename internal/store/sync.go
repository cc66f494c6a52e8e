package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/model"
)

// SyncInput 一批待同步的记录
type SyncInput struct {
	Columns    []string    // 文件中的列（已规范化，决定写入列顺序）
	Rows       []model.Row // 每行须已包含 row_hash
	SourceFile string
	Now        time.Time
}

// Modification 字段级变更
type Modification struct {
	NOP   string `json:"nop"`
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// SyncSummary 同步结果汇总
type SyncSummary struct {
	NewRecords       int            `json:"newRecords"`
	UpdatedRecords   int            `json:"updatedRecords"`
	UnchangedRecords int            `json:"unchangedRecords"`
	SkippedRecords   int            `json:"skippedRecords"`
	Modifications    []Modification `json:"modifications"`
	Errors           []string       `json:"errors"`
}

// EnsureColumns 为表追加缺失的 TEXT 列，返回新增的列
func (s *Store) EnsureColumns(ctx context.Context, table string, columns []string) ([]string, error) {
	existing, err := s.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}

	var added []string
	for _, col := range columns {
		if have[col] {
			continue
		}
		q := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", quoteIdent(table), quoteIdent(col))
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return added, apperr.NewStoreError("add_column", fmt.Errorf("%s.%s: %w", table, col, err))
		}
		have[col] = true
		added = append(added, col)
	}
	return added, nil
}

// SyncRecords 按 NOP 写入记录：新记录插入；哈希相同跳过；字段有变化时先写历史再更新
// 整批在一个事务内完成，单行失败记入 Errors 不中断
func (s *Store) SyncRecords(ctx context.Context, in SyncInput) (*SyncSummary, error) {
	currentCols, err := s.Columns(ctx, model.TableCurrent)
	if err != nil {
		return nil, err
	}
	historyCols, err := s.Columns(ctx, model.TableHistory)
	if err != nil {
		return nil, err
	}
	inCurrent := toSet(currentCols)
	inHistory := toSet(historyCols)

	existingRows, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]model.Row, len(existingRows))
	for _, r := range existingRows {
		if nop, ok := model.StringValue(r, model.ColNOP); ok {
			existing[nop] = r
		}
	}

	internal := toSet(model.InternalColumns)
	var dataCols, compareCols, updateCols, historyDataCols []string
	for _, c := range in.Columns {
		if !inCurrent[c] || internal[c] {
			continue
		}
		dataCols = append(dataCols, c)
		if c != model.ColNOP {
			compareCols = append(compareCols, c)
			updateCols = append(updateCols, c)
		}
		if inHistory[c] {
			historyDataCols = append(historyDataCols, c)
		}
	}
	updateCols = append(updateCols, model.ColRowHash)
	if inHistory[model.ColRowHash] {
		historyDataCols = append(historyDataCols, model.ColRowHash)
	}

	ts := in.Now.UTC().Format(time.RFC3339Nano)
	summary := &SyncSummary{Modifications: []Modification{}, Errors: []string{}}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.NewStoreError("begin_transaction", err)
	}
	defer tx.Rollback()

	insertCols := append(append([]string{}, dataCols...), model.ColRowHash, model.ColIngestTimestamp, model.ColSourceFile)
	insertSQL := buildInsert(model.TableCurrent, insertCols)
	historyCols2 := append(append([]string{}, historyDataCols...), model.ColChangeType, model.ColChangedTimestamp, model.ColSourceFile)
	historySQL := buildInsert(model.TableHistory, historyCols2)
	updateSQL := buildUpdate(model.TableCurrent, updateCols)

	for _, row := range in.Rows {
		nop, ok := model.StringValue(row, model.ColNOP)
		if !ok || strings.TrimSpace(nop) == "" {
			summary.SkippedRecords++
			continue
		}

		old, found := existing[nop]
		if !found {
			args := make([]any, 0, len(insertCols))
			for _, c := range dataCols {
				args = append(args, row[c])
			}
			args = append(args, row[model.ColRowHash], ts, in.SourceFile)
			if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("Error inserting %s: %v", nop, err))
				continue
			}
			summary.NewRecords++
			existing[nop] = row
			continue
		}

		if displayString(old[model.ColRowHash]) == displayString(row[model.ColRowHash]) {
			summary.UnchangedRecords++
			continue
		}

		var changes []Modification
		for _, c := range compareCols {
			oldNorm := strings.TrimSpace(displayString(old[c]))
			newNorm := strings.TrimSpace(displayString(row[c]))
			if oldNorm != newNorm {
				changes = append(changes, Modification{NOP: nop, Field: c, Old: oldNorm, New: newNorm})
			}
		}
		if len(changes) == 0 {
			summary.UnchangedRecords++
			continue
		}

		histArgs := make([]any, 0, len(historyCols2))
		for _, c := range historyDataCols {
			histArgs = append(histArgs, old[c])
		}
		histArgs = append(histArgs, model.ChangeTypeSyncUpdateOld, ts, in.SourceFile)
		if _, err := tx.ExecContext(ctx, historySQL, histArgs...); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Error updating %s: %v", nop, err))
			continue
		}

		updArgs := make([]any, 0, len(updateCols)+1)
		for _, c := range updateCols {
			updArgs = append(updArgs, row[c])
		}
		updArgs = append(updArgs, nop)
		if _, err := tx.ExecContext(ctx, updateSQL, updArgs...); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Error updating %s: %v", nop, err))
			continue
		}

		summary.UpdatedRecords++
		summary.Modifications = append(summary.Modifications, changes...)
		merged := make(model.Row, len(old))
		for k, v := range old {
			merged[k] = v
		}
		for _, c := range updateCols {
			merged[c] = row[c]
		}
		existing[nop] = merged
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.NewStoreError("commit_transaction", err)
	}
	return summary, nil
}

// Rollback 用最近一次 sync_update_old 历史恢复记录
func (s *Store) Rollback(ctx context.Context, nop string) error {
	hist, err := s.listRows(ctx,
		"SELECT * FROM "+quoteIdent(model.TableHistory)+
			" WHERE "+quoteIdent(model.ColNOP)+" = ? AND "+quoteIdent(model.ColChangeType)+" = ?"+
			" ORDER BY id DESC LIMIT 1",
		nop, model.ChangeTypeSyncUpdateOld)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		return fmt.Errorf("no rollback data for nop %q: %w", nop, apperr.ErrNotFound)
	}
	record := hist[0]

	historyCols, err := s.Columns(ctx, model.TableHistory)
	if err != nil {
		return err
	}
	currentCols, err := s.Columns(ctx, model.TableCurrent)
	if err != nil {
		return err
	}
	inCurrent := toSet(currentCols)
	skip := toSet([]string{model.ColHistoryID, model.ColChangeType, model.ColChangedTimestamp, model.ColNOP})

	var restoreCols []string
	for _, c := range historyCols {
		if inCurrent[c] && !skip[c] {
			restoreCols = append(restoreCols, c)
		}
	}
	if len(restoreCols) == 0 {
		return nil
	}

	args := make([]any, 0, len(restoreCols)+1)
	for _, c := range restoreCols {
		args = append(args, record[c])
	}
	args = append(args, nop)
	if _, err := s.db.ExecContext(ctx, buildUpdate(model.TableCurrent, restoreCols), args...); err != nil {
		return apperr.NewStoreError("rollback_record", err)
	}
	return nil
}

func buildInsert(table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(quoted, ", "), placeholders)
}

func buildUpdate(table string, cols []string) string {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quoteIdent(c) + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", quoteIdent(table), strings.Join(sets, ", "), quoteIdent(model.ColNOP))
}

func displayString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
