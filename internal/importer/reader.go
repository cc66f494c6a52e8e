package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"proposaldesk/internal/model"
)

// DataSheet 优先读取的工作表名
const DataSheet = "Data"

// ErrEmptyFile 文件没有表头行
var ErrEmptyFile = errors.New("file has no header row")

// Table 解析后的导出文件
type Table struct {
	Sheet   string      // xlsx 的工作表名，CSV 为空
	Columns []string    // 规范化后的列名（保持文件中的顺序）
	Rows    []model.Row // 单元格已去空白，空值为 nil
	Renamed []Rename    // 重名列的改名记录
}

// Rename 重名列改名
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ReadFile 按扩展名读取 .xlsx / .csv
func ReadFile(path string) (*Table, error) {
	var (
		records [][]string
		sheet   string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx", ".xlsm":
		records, sheet, err = readExcel(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	t, err := buildTable(records)
	if err != nil {
		return nil, err
	}
	t.Sheet = sheet
	return t, nil
}

// readExcel 读取 Data 工作表，不存在时读取第一个工作表
func readExcel(path string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", ErrEmptyFile
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if s == DataSheet {
			sheet = s
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, sheet, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// buildTable 第一行为表头，其余为数据行；整行为空的数据行跳过
func buildTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = NormalizeHeader(h)
		if header[i] == "" {
			header[i] = fmt.Sprintf("UNNAMED: %d", i)
		}
	}
	if len(header) == 0 {
		return nil, ErrEmptyFile
	}
	columns, renamed := DedupeHeaders(header)

	rows := make([]model.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(model.Row, len(columns))
		blank := true
		for i, col := range columns {
			var v any
			if i < len(rec) {
				if s := strings.TrimSpace(rec[i]); s != "" {
					v = s
					blank = false
				}
			}
			row[col] = v
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}

	return &Table{Columns: columns, Rows: rows, Renamed: renamed}, nil
}
