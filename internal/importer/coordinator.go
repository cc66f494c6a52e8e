package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proposaldesk/internal/model"
	"proposaldesk/internal/store"
)

// 进度事件类型
const (
	EventStart   = "start"
	EventInfo    = "info"
	EventWarning = "warning"
	EventDone    = "done"
	EventError   = "error"
)

// Coordinator 导入协调器
type Coordinator struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewCoordinator 创建导入协调器
func NewCoordinator(store *store.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	// SourceFile 写入 source_file 列的值，默认为 FilePath 的绝对路径
	SourceFile string
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/info/warning/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Report 导入报告
type Report struct {
	BatchID      string             `json:"batchId"`
	Filename     string             `json:"filename"`
	Sheet        string             `json:"sheet,omitempty"`
	TotalRows    int                `json:"totalRows"`
	Columns      []string           `json:"columns"`
	Renamed      []Rename           `json:"renamed,omitempty"`
	AddedColumns []string           `json:"addedColumns,omitempty"`
	Summary      *store.SyncSummary `json:"summary"`
	Duration     time.Duration      `json:"duration"`
}

// Import 执行导入，返回进度通道；通道在导入结束后关闭
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		batchID := uuid.NewString()
		source := sourceFile(opts)
		logID := c.openLog(ctx, batchID, filepath.Base(opts.FilePath), source)

		report, err := c.doImport(ctx, opts, batchID, source, progressChan)
		c.closeLog(ctx, logID, report, err)
		if err != nil {
			c.logger.Error("import failed", zap.String("file", opts.FilePath), zap.Error(err))
			c.sendFinal(ctx, progressChan, ProgressEvent{
				Type:      EventError,
				Message:   err.Error(),
				Timestamp: c.now(),
			})
			return
		}
		c.sendFinal(ctx, progressChan, ProgressEvent{
			Type:      EventDone,
			Message:   "Import selesai",
			Data:      report,
			Timestamp: c.now(),
		})
	}()

	return progressChan
}

// Wait 消费进度通道直到结束，返回最终报告
func Wait(ch <-chan ProgressEvent) (*Report, error) {
	var (
		report *Report
		err    error
	)
	for evt := range ch {
		switch evt.Type {
		case EventDone:
			report, _ = evt.Data.(*Report)
		case EventError:
			err = errors.New(evt.Message)
		}
	}
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.New("import finished without report")
	}
	return report, nil
}

// sourceFile 写入 source_file 列的值
func sourceFile(opts ImportOptions) string {
	if opts.SourceFile != "" {
		return opts.SourceFile
	}
	if abs, err := filepath.Abs(opts.FilePath); err == nil {
		return abs
	}
	return opts.FilePath
}

// openLog 写入导入日志；失败只记录警告，不影响导入
func (c *Coordinator) openLog(ctx context.Context, batchID, filename, source string) int64 {
	id, err := c.store.CreateImportLog(ctx, batchID, filename, source, c.now())
	if err != nil {
		c.logger.Warn("import log unavailable", zap.String("batch_id", batchID), zap.Error(err))
		return 0
	}
	return id
}

func (c *Coordinator) closeLog(ctx context.Context, id int64, report *Report, importErr error) {
	if id == 0 {
		return
	}
	// 调用方取消时仍需记录失败
	ctx = context.WithoutCancel(ctx)
	var err error
	if importErr != nil {
		err = c.store.FailImportLog(ctx, id, importErr.Error(), c.now())
	} else {
		err = c.store.CompleteImportLog(ctx, id, report.TotalRows, report.Summary, c.now())
	}
	if err != nil {
		c.logger.Warn("import log not updated", zap.Int64("import_log_id", id), zap.Error(err))
	}
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, batchID, source string, ch chan ProgressEvent) (*Report, error) {
	startTime := c.now()
	filename := filepath.Base(opts.FilePath)
	report := &Report{
		BatchID:  batchID,
		Filename: filename,
	}
	log := c.logger.With(zap.String("batch_id", report.BatchID), zap.String("file", filename))

	c.sendProgress(ch, EventStart, fmt.Sprintf("Mulai import %s", filename), map[string]string{
		"filename": filename,
		"batchId":  report.BatchID,
	})

	table, err := ReadFile(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	report.Sheet = table.Sheet
	report.Renamed = table.Renamed
	for _, r := range table.Renamed {
		log.Warn("duplicate column renamed", zap.String("from", r.From), zap.String("to", r.To))
		c.sendProgress(ch, EventWarning, fmt.Sprintf("Kolom duplikat diganti nama: %s -> %s", r.From, r.To), r)
	}

	if table.DropColumn(model.ColRevenueActual) {
		log.Info("legacy column removed", zap.String("column", model.ColRevenueActual))
		c.sendProgress(ch, EventInfo, fmt.Sprintf("Kolom %s dihapus", model.ColRevenueActual), nil)
	}

	if err := table.Validate(model.DesiredOrder); err != nil {
		return nil, err
	}
	report.Columns = table.Columns
	report.TotalRows = len(table.Rows)
	c.sendProgress(ch, EventInfo, fmt.Sprintf("%d baris dibaca", len(table.Rows)), map[string]int{
		"rows":    len(table.Rows),
		"columns": len(table.Columns),
	})

	for _, row := range table.Rows {
		row[model.ColRowHash] = RowHash(row)
	}

	currentWant := append(append([]string{}, table.Columns...), model.InternalColumns...)
	added, err := c.store.EnsureColumns(ctx, model.TableCurrent, currentWant)
	if err != nil {
		return nil, err
	}
	historyWant := append(append([]string{}, table.Columns...),
		model.ColRowHash, model.ColChangedTimestamp, model.ColSourceFile, model.ColChangeType)
	if _, err := c.store.EnsureColumns(ctx, model.TableHistory, historyWant); err != nil {
		return nil, err
	}
	report.AddedColumns = added
	if len(added) > 0 {
		c.sendProgress(ch, EventInfo, fmt.Sprintf("%d kolom baru ditambahkan", len(added)), added)
	}

	summary, err := c.store.SyncRecords(ctx, store.SyncInput{
		Columns:    table.Columns,
		Rows:       table.Rows,
		SourceFile: source,
		Now:        c.now(),
	})
	if err != nil {
		return nil, err
	}
	report.Summary = summary
	for _, e := range summary.Errors {
		c.sendProgress(ch, EventWarning, e, nil)
	}

	report.Duration = c.now().Sub(startTime)
	log.Info("import finished",
		zap.Int("new", summary.NewRecords),
		zap.Int("updated", summary.UpdatedRecords),
		zap.Int("unchanged", summary.UnchangedRecords),
		zap.Int("skipped", summary.SkippedRecords),
		zap.Int("errors", len(summary.Errors)),
	)
	return report, nil
}

// sendProgress 发送进度事件，通道已满时丢弃
func (c *Coordinator) sendProgress(ch chan ProgressEvent, typ, msg string, data interface{}) {
	select {
	case ch <- ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: c.now()}:
	default:
	}
}

// sendFinal 终态事件必须送达，除非调用方已取消
func (c *Coordinator) sendFinal(ctx context.Context, ch chan ProgressEvent, evt ProgressEvent) {
	select {
	case ch <- evt:
	case <-ctx.Done():
	}
}
