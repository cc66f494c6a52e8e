package store

import (
	"context"
	"fmt"
	"time"
)

// 导入日志状态
const (
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
)

// ImportLog 一次导入批次的记录
type ImportLog struct {
	ID            int64   `db:"id" json:"id"`
	BatchID       string  `db:"batch_id" json:"batchId"`
	Filename      string  `db:"filename" json:"filename"`
	SourceFile    *string `db:"source_file" json:"sourceFile,omitempty"`
	Status        string  `db:"status" json:"status"`
	TotalRows     int     `db:"total_rows" json:"totalRows"`
	NewRows       int     `db:"new_rows" json:"newRows"`
	UpdatedRows   int     `db:"updated_rows" json:"updatedRows"`
	UnchangedRows int     `db:"unchanged_rows" json:"unchangedRows"`
	SkippedRows   int     `db:"skipped_rows" json:"skippedRows"`
	ErrorMessage  *string `db:"error_message" json:"errorMessage,omitempty"`
	StartedAt     string  `db:"started_at" json:"startedAt"`
	CompletedAt   *string `db:"completed_at" json:"completedAt,omitempty"`
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, batchID, filename, sourceFile string, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (batch_id, filename, source_file, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, batchID, filename, sourceFile, ImportProcessing, startedAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// CompleteImportLog 记录成功的导入结果
func (s *Store) CompleteImportLog(ctx context.Context, id int64, totalRows int, summary *SyncSummary, completedAt time.Time) error {
	var sum SyncSummary
	if summary != nil {
		sum = *summary
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			status = ?,
			total_rows = ?,
			new_rows = ?,
			updated_rows = ?,
			unchanged_rows = ?,
			skipped_rows = ?,
			completed_at = ?
		WHERE id = ?
	`, ImportCompleted, totalRows, sum.NewRecords, sum.UpdatedRecords, sum.UnchangedRecords, sum.SkippedRecords,
		completedAt.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// FailImportLog 记录失败原因
func (s *Store) FailImportLog(ctx context.Context, id int64, message string, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?
	`, ImportFailed, message, completedAt.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志，新的在前；limit <= 0 表示全部
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	query := `SELECT id, batch_id, filename, source_file, status, total_rows, new_rows, updated_rows,
		unchanged_rows, skipped_rows, error_message, started_at, completed_at
		FROM import_logs ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	logs := []ImportLog{}
	if err := s.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	return logs, nil
}
