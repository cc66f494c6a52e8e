package table

import "proposaldesk/internal/model"

// ChartType 图表类型
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

// Series 分组汇总结果
type Series struct {
	Label  string    `json:"label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Aggregate 按 x 列分组、对 y 列求和；无法解析的值按 0 计
// 分组顺序为首次出现的顺序
func Aggregate(rows []model.Row, x, y string) Series {
	s := Series{
		Label:  y + " per " + x,
		Labels: []string{},
		Values: []float64{},
	}
	index := map[string]int{}
	for _, r := range rows {
		key := Display(r[x])
		val, _ := ParseNumber(r[y])
		i, ok := index[key]
		if !ok {
			i = len(s.Labels)
			index[key] = i
			s.Labels = append(s.Labels, key)
			s.Values = append(s.Values, 0)
		}
		s.Values[i] += val
	}
	return s
}

// StatusCounts 各页签的记录数
type StatusCounts struct {
	All       int `json:"all"`
	Submitted int `json:"submitted"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
}

// CountByStatus 统计各状态数量
func CountByStatus(rows []model.Row) StatusCounts {
	c := StatusCounts{All: len(rows)}
	for _, r := range rows {
		v, _ := r[model.ColStatus].(string)
		switch model.Status(v) {
		case model.StatusSubmitted:
			c.Submitted++
		case model.StatusPending:
			c.Pending++
		case model.StatusApproved:
			c.Approved++
		case model.StatusRejected:
			c.Rejected++
		}
	}
	return c
}
