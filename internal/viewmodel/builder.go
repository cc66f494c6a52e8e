package viewmodel

import (
	"context"

	"go.uber.org/zap"

	"proposaldesk/internal/model"
)

// Source 记录来源
type Source interface {
	ListRecords(ctx context.Context) ([]model.Row, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// ViewModel 面板数据（列 + 行）
type ViewModel struct {
	Columns []string    `json:"columns"`
	Rows    []model.Row `json:"rows"`
	Error   string      `json:"error,omitempty"`
}

// Builder 视图模型构建器
type Builder struct {
	source       Source
	rules        []Rule
	desiredOrder []string
	logger       *zap.Logger
}

// NewBuilder 使用默认规则与默认列顺序创建构建器
func NewBuilder(source Source, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		source:       source,
		rules:        DefaultRules,
		desiredOrder: model.DesiredOrder,
		logger:       logger,
	}
}

// Build 读取全部记录并生成视图模型
// 读取失败时返回空列/空行并带上错误信息，不向调用方返回 error
func (b *Builder) Build(ctx context.Context) ViewModel {
	// 表结构列只用于确认表可读，可见列以第一行为准
	if _, err := b.source.Columns(ctx, model.TableCurrent); err != nil {
		return b.failed(err)
	}

	records, err := b.source.ListRecords(ctx)
	if err != nil {
		return b.failed(err)
	}

	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ApplyRules(b.rules, rec))
	}

	var first model.Row
	if len(rows) > 0 {
		first = rows[0]
	}

	return ViewModel{
		Columns: VisibleColumns(b.desiredOrder, first),
		Rows:    rows,
	}
}

func (b *Builder) failed(err error) ViewModel {
	b.logger.Error("build view model failed", zap.Error(err))
	return ViewModel{
		Columns: []string{},
		Rows:    []model.Row{},
		Error:   err.Error(),
	}
}

// VisibleColumns desiredOrder 与 row 键集合的交集，保持 desiredOrder 的顺序
// row 为 nil（无记录）时返回空列表
func VisibleColumns(desiredOrder []string, row model.Row) []string {
	cols := []string{}
	for _, c := range desiredOrder {
		if _, ok := row[c]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// IntersectColumns desiredOrder 与给定列集合的交集，保持 desiredOrder 的顺序
func IntersectColumns(desiredOrder, columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	out := []string{}
	for _, c := range desiredOrder {
		if have[c] {
			out = append(out, c)
		}
	}
	return out
}
