package viewmodel

import "proposaldesk/internal/model"

// RuleKind 列规范化规则类型
type RuleKind string

const (
	// RuleFillIfEmpty 源列存在且目标列为空时，把源列的值复制到目标列
	RuleFillIfEmpty RuleKind = "fill_if_empty"
	// RuleDrop 删除列
	RuleDrop RuleKind = "drop"
)

// Rule 一条列规范化规则
type Rule struct {
	Kind  RuleKind
	Field string // 目标列
	From  string // 源列（仅 fill_if_empty）
}

// DefaultRules 面板使用的规范化规则，按顺序执行
var DefaultRules = []Rule{
	{Kind: RuleFillIfEmpty, Field: model.ColIncremental1, From: model.ColRevenueIncremental1},
	{Kind: RuleDrop, Field: model.ColRevenueActual},
	{Kind: RuleDrop, Field: model.ColRevenueIncremental1},
	{Kind: RuleDrop, Field: model.ColRowHash},
	{Kind: RuleDrop, Field: model.ColIngestTimestamp},
	{Kind: RuleDrop, Field: model.ColSourceFile},
	{Kind: RuleDrop, Field: model.ColExportSource},
	{Kind: RuleDrop, Field: model.ColExportTimestamp},
	{Kind: RuleDrop, Field: model.ColExportUser},
}

// Apply 在原地对一行执行规则并返回该行
func (r Rule) Apply(row model.Row) model.Row {
	switch r.Kind {
	case RuleFillIfEmpty:
		src, ok := row[r.From]
		if !ok || src == nil {
			return row
		}
		if dst, ok := row[r.Field]; !ok || isEmpty(dst) {
			row[r.Field] = src
		}
	case RuleDrop:
		delete(row, r.Field)
	}
	return row
}

// ApplyRules 复制一行后依次执行规则，不修改入参
func ApplyRules(rules []Rule, row model.Row) model.Row {
	out := make(model.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, r := range rules {
		out = r.Apply(out)
	}
	return out
}

// isEmpty 空值判定：nil、""、"0"、数值 0、false 视为空
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == "" || t == "0"
	case []byte:
		s := string(t)
		return s == "" || s == "0"
	case bool:
		return !t
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	default:
		return false
	}
}
