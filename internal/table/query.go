package table

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"proposaldesk/internal/model"
)

// Tab 状态页签
type Tab string

const (
	TabAll       Tab = "all"
	TabSubmitted Tab = "submitted"
	TabPending   Tab = "pending"
	TabApproved  Tab = "approved"
	TabRejected  Tab = "rejected"
)

// Tabs 全部页签（展示顺序）
var Tabs = []Tab{TabAll, TabSubmitted, TabPending, TabApproved, TabRejected}

// RowLimits 可选的行数上限，0 表示不限
var RowLimits = []int{50, 100, 250, 0}

// ParseTab 解析页签，空字符串视为 all
func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return TabAll, nil
	}
	for _, known := range Tabs {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Status 页签对应的 STATUS 值（all 返回空）
func (t Tab) Status() string {
	if t == TabAll {
		return ""
	}
	return strings.ToUpper(string(t))
}

// Query 表格查询条件
type Query struct {
	Tab        Tab
	Search     string
	SortColumn string
	SortDesc   bool
	Limit      int // 0 表示不限
}

// Apply 依次执行：页签过滤 -> 全文搜索 -> 排序 -> 截断
// 不修改入参切片
func Apply(rows []model.Row, columns []string, q Query) []model.Row {
	out := FilterTab(rows, q.Tab)
	out = FilterSearch(out, columns, q.Search)
	if q.SortColumn != "" {
		SortRows(out, q.SortColumn, q.SortDesc)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// FilterTab 按页签过滤；页签名大写后与 STATUS 精确比较
func FilterTab(rows []model.Row, tab Tab) []model.Row {
	out := make([]model.Row, 0, len(rows))
	status := tab.Status()
	for _, r := range rows {
		if status == "" {
			out = append(out, r)
			continue
		}
		if v, ok := r[model.ColStatus].(string); ok && v == status {
			out = append(out, r)
		}
	}
	return out
}

// FilterSearch 在可见列中做大小写不敏感的子串匹配；空关键字不过滤
func FilterSearch(rows []model.Row, columns []string, term string) []model.Row {
	term = strings.ToLower(term)
	if term == "" {
		return append([]model.Row{}, rows...)
	}
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		for _, c := range columns {
			if strings.Contains(strings.ToLower(Display(r[c])), term) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// SortRows 单列稳定排序（原地）；nil 永远排在最后
func SortRows(rows []model.Row, column string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][column], rows[j][column]
		// nil 不受方向影响
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		c := Compare(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Compare 比较两个非 nil 值：都能解析为数字时按数值，否则按小写字符串
func Compare(a, b any) int {
	sa, sb := Display(a), Display(b)
	if sa == sb {
		return 0
	}
	fa, okA := ParseNumber(a)
	fb, okB := ParseNumber(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(sa), strings.ToLower(sb))
}

// numberPattern 十进制数（可带指数），与 table.js 一致；NaN、Inf、十六进制不算数值
var numberPattern = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// ParseNumber 解析有限的十进制数值
func ParseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	s := strings.TrimSpace(Display(v))
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	// 超出范围（如 1e999）时 ParseFloat 返回 ±Inf 与 ErrRange
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Display 单元格的展示文本，nil 为空字符串
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
