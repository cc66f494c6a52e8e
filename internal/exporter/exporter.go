package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"proposaldesk/internal/model"
	"proposaldesk/internal/table"
	"proposaldesk/internal/viewmodel"
)

// 工作表名
const (
	SheetData     = "Data"
	SheetMetadata = "Metadata"
)

// ExportSource 写入 Metadata 的来源标识
const ExportSource = "proposaldesk"

// Exporter 快照导出器
type Exporter struct {
	source viewmodel.Source
	logger *zap.Logger
}

// NewExporter 创建导出器
func NewExporter(source viewmodel.Source, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{source: source, logger: logger}
}

// Stage 导出阶段
type Stage string

// 导出阶段，按顺序出现
const (
	StageRead     Stage = "read"
	StageData     Stage = "data"
	StageMetadata Stage = "metadata"
	StageDone     Stage = "done"
)

// ProgressEvent 导出进度事件
type ProgressEvent struct {
	Stage   Stage
	Percent int
}

// ExportOptions 导出选项
type ExportOptions struct {
	User     string
	Query    table.Query
	Now      time.Time
	Progress func(ProgressEvent)
}

func (o ExportOptions) report(stage Stage, percent int) {
	if o.Progress != nil {
		o.Progress(ProgressEvent{Stage: stage, Percent: percent})
	}
}

// Snapshot 导出结果
type Snapshot struct {
	File    *excelize.File
	Columns []string
	Rows    int
}

// Export 生成快照工作簿；调用方负责关闭 File
// 列取展示顺序与表结构列的交集，空表也能导出表头
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*Snapshot, error) {
	opts.report(StageRead, 0)

	schemaCols, err := e.source.Columns(ctx, model.TableCurrent)
	if err != nil {
		return nil, fmt.Errorf("读取表结构失败: %w", err)
	}
	records, err := e.source.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取记录失败: %w", err)
	}

	columns := viewmodel.IntersectColumns(model.DesiredOrder, schemaCols)
	rows := make([]model.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, viewmodel.ApplyRules(viewmodel.DefaultRules, r))
	}
	rows = table.Apply(rows, columns, opts.Query)
	opts.report(StageData, 30)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeData(f, columns, rows); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("写入 Data 失败: %w", err)
	}
	opts.report(StageMetadata, 80)

	if err := writeMetadata(f, opts, now, len(rows)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("写入 Metadata 失败: %w", err)
	}
	f.SetActiveSheet(0)
	opts.report(StageDone, 100)

	e.logger.Info("snapshot exported",
		zap.String("user", opts.User),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(columns)),
	)
	return &Snapshot{File: f, Columns: columns, Rows: len(rows)}, nil
}

// ExportFile 导出并保存到 path
func (e *Exporter) ExportFile(ctx context.Context, opts ExportOptions, path string) (*Snapshot, error) {
	snap, err := e.Export(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer snap.File.Close()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建导出目录失败: %w", err)
	}
	if err := snap.File.SaveAs(path); err != nil {
		return nil, fmt.Errorf("保存文件失败: %w", err)
	}
	return snap, nil
}

func writeData(f *excelize.File, columns []string, rows []model.Row) error {
	numeric := make(map[string]bool, len(model.NumericColumns))
	for _, c := range model.NumericColumns {
		numeric[c] = true
	}

	sw, err := f.NewStreamWriter(SheetData)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = excelize.Cell{Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range rows {
		vals := make([]interface{}, len(columns))
		for j, c := range columns {
			v := r[c]
			switch {
			case v == nil:
				vals[j] = nil
			case numeric[c]:
				if n, ok := table.ParseNumber(v); ok {
					vals[j] = n
				} else {
					vals[j] = table.Display(v)
				}
			default:
				vals[j] = table.Display(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, vals); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeMetadata(f *excelize.File, opts ExportOptions, now time.Time, total int) error {
	if _, err := f.NewSheet(SheetMetadata); err != nil {
		return err
	}

	sortDesc := ""
	if opts.Query.SortColumn != "" {
		dir := "asc"
		if opts.Query.SortDesc {
			dir = "desc"
		}
		sortDesc = opts.Query.SortColumn + " " + dir
	}
	tab := opts.Query.Tab
	if tab == "" {
		tab = table.TabAll
	}

	meta := [][2]interface{}{
		{"Key", "Value"},
		{model.ColExportSource, ExportSource},
		{model.ColExportTimestamp, now.Format(time.RFC3339)},
		{model.ColExportUser, opts.User},
		{"TotalRows", total},
		{"Tab", string(tab)},
		{"Search", opts.Query.Search},
		{"Sort", sortDesc},
	}
	for i, kv := range meta {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := []interface{}{kv[0], kv[1]}
		if err := f.SetSheetRow(SheetMetadata, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
