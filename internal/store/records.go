package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/model"
)

// columnInfo PRAGMA table_info 返回的一行
type columnInfo struct {
	CID       int            `db:"cid"`
	Name      string         `db:"name"`
	Type      string         `db:"type"`
	NotNull   int            `db:"notnull"`
	DfltValue sql.NullString `db:"dflt_value"`
	PK        int            `db:"pk"`
}

// ListRecords 读取 records_current 的全部记录，保持存储顺序
func (s *Store) ListRecords(ctx context.Context) ([]model.Row, error) {
	return s.listRows(ctx, "SELECT * FROM "+quoteIdent(model.TableCurrent))
}

func (s *Store) listRows(ctx context.Context, query string, args ...any) ([]model.Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.NewStoreError("query_records", err)
	}
	defer rows.Close()

	out := []model.Row{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, apperr.NewStoreError("scan_record", err)
		}
		for k, v := range row {
			row[k] = normalizeValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewStoreError("iterate_records", err)
	}
	return out, nil
}

// normalizeValue 统一为 nil 或 string
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// Columns 返回表的列名（按定义顺序）
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	var infos []columnInfo
	if err := s.db.SelectContext(ctx, &infos, "PRAGMA table_info("+quoteIdent(table)+")"); err != nil {
		return nil, apperr.NewStoreError("table_info", err)
	}
	cols := make([]string, 0, len(infos))
	for _, info := range infos {
		cols = append(cols, info.Name)
	}
	return cols, nil
}

// FindByNOP 按 NOP 查找记录
func (s *Store) FindByNOP(ctx context.Context, nop string) (model.Row, error) {
	rows, err := s.listRows(ctx,
		"SELECT * FROM "+quoteIdent(model.TableCurrent)+" WHERE "+quoteIdent(model.ColNOP)+" = ?", nop)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("nop %q: %w", nop, apperr.ErrNotFound)
	}
	return rows[0], nil
}

// RecordExists 判断 NOP 是否存在
func (s *Store) RecordExists(ctx context.Context, nop string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(1) FROM "+quoteIdent(model.TableCurrent)+" WHERE "+quoteIdent(model.ColNOP)+" = ?", nop)
	if err != nil {
		return false, apperr.NewStoreError("record_exists", err)
	}
	return n > 0, nil
}

// SetStatus 设置审批状态与审批人，返回受影响行数
// 单条 UPDATE，不做状态前置检查
func (s *Store) SetStatus(ctx context.Context, nop string, status model.Status, approvedBy string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE "+quoteIdent(model.TableCurrent)+
			" SET "+quoteIdent(model.ColStatus)+" = ?, "+quoteIdent(model.ColApprovedBy)+" = ?"+
			" WHERE "+quoteIdent(model.ColNOP)+" = ?",
		string(status), approvedBy, nop)
	if err != nil {
		return 0, apperr.NewStoreError("update_status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.NewStoreError("rows_affected", err)
	}
	return n, nil
}
