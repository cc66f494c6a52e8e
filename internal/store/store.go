package store

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// busy_timeout 让导入事务与审批更新排队而不是立即返回 SQLITE_BUSY
const dsnParams = "_busy_timeout=5000&_foreign_keys=on"

// buildDSN 追加连接参数；dbPath 可以是普通路径或带查询串的 file: URI
// 返回 DSN 与用于创建目录的文件路径
func buildDSN(dbPath string) (dsn, file string) {
	path, query, hasQuery := strings.Cut(dbPath, "?")
	file = strings.TrimPrefix(path, "file:")
	if hasQuery && query != "" {
		return dbPath + "&" + dsnParams, file
	}
	return path + "?" + dsnParams, file
}

// Store 提案数据的 SQLite 存储
type Store struct {
	db *sqlx.DB
}

// New 打开（必要时创建）dbPath 并初始化表结构
func New(dbPath string) (*Store, error) {
	dsn, file := buildDSN(dbPath)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB 包装已有连接，不建表（sqlmock 测试用）
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exec 执行任意 SQL（测试造数用）
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// quoteIdent 以双引号包裹列名/表名（列名中包含空格与括号）
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
