package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/model"
)

var upper = cases.Upper(language.Und)

// NormalizeHeader 去首尾空白、合并连续空白、转大写
func NormalizeHeader(name string) string {
	return upper.String(strings.Join(strings.Fields(name), " "))
}

// DedupeHeaders 重名列依次改为 NAME_1、NAME_2
func DedupeHeaders(header []string) ([]string, []Rename) {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	var renamed []Rename
	for i, h := range header {
		n, dup := seen[h]
		if !dup {
			seen[h] = 0
			out[i] = h
			continue
		}
		n++
		seen[h] = n
		out[i] = fmt.Sprintf("%s_%d", h, n)
		renamed = append(renamed, Rename{From: h, To: out[i]})
	}
	return out, renamed
}

// DropColumn 从列表和每一行中移除列，返回是否存在
func (t *Table) DropColumn(name string) bool {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	t.Columns = append(t.Columns[:idx:idx], t.Columns[idx+1:]...)
	for _, r := range t.Rows {
		delete(r, name)
	}
	return true
}

// Validate 检查必需列
func (t *Table) Validate(required []string) error {
	have := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		have[c] = true
	}
	var missing []string
	for _, c := range required {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &apperr.ValidationError{Missing: missing}
	}
	return nil
}

// RowHash 对 "列=值" 排序后以 "|" 连接并取 SHA-256；nil 记为空字符串
func RowHash(row model.Row) string {
	pairs := make([]string, 0, len(row))
	for k := range row {
		if k == model.ColRowHash {
			continue
		}
		s, _ := model.StringValue(row, k)
		pairs = append(pairs, k+"="+s)
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, "|")))
	return hex.EncodeToString(sum[:])
}
