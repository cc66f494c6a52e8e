package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound 记录不存在（按 NOP 查找）
	ErrNotFound = errors.New("record not found")
	// ErrAuthFailure 用户名或密码错误
	ErrAuthFailure = errors.New("invalid credentials")
)

// StoreError 数据库操作失败
type StoreError struct {
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation '%s' failed: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError 包装数据库错误；err 为 nil 时返回 nil
func NewStoreError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Operation: operation, Err: err}
}

// ValidationError 导入文件缺少必需列
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// IsStoreError 判断是否为数据库错误
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
