package model

import "fmt"

// Row 一条提案记录（列名 -> 值）
// 值为 nil（SQL NULL）或 string
type Row = map[string]any

// 业务列
const (
	ColNOP           = "NOP"
	ColProgram       = "PROGRAM"
	ColKategori      = "KATEGORI"
	ColJustifikasi   = "JUSTIFIKASI"
	ColProposal      = "PROPOSAL"
	ColBudget        = "BUDGET"
	ColRevenue       = "REVENUE"
	ColCost          = "COST"
	ColProfit        = "PROFIT"
	ColIncremental1  = "INCREMENTAL 1"
	ColIncremental2  = "INCREMENTAL 2"
	ColIncremental3  = "INCREMENTAL 3"
	ColStatus        = "STATUS"
	ColPilot         = "PILOT"
	ColDrivenProgram = "DRIVEN PROGRAM"
	ColAssignBy      = "ASSIGN BY"
	ColApprovedBy    = "APPROVED BY"
)

// 历史遗留 / 内部列
const (
	ColRevenueActual       = "REVENUE (ACTUAL)"
	ColRevenueIncremental1 = "REVENUE INCREMENTAL 1"
	ColRowHash             = "row_hash"
	ColIngestTimestamp     = "ingest_timestamp"
	ColSourceFile          = "source_file"
	ColExportSource        = "ExportSource"
	ColExportTimestamp     = "ExportTimestamp"
	ColExportUser          = "ExportUser"
)

// 历史表专用列
const (
	ColHistoryID        = "id"
	ColChangedTimestamp = "changed_timestamp"
	ColChangeType       = "change_type"
)

// 表名
const (
	TableCurrent = "records_current"
	TableHistory = "records_history"
)

// DesiredOrder 面板展示列顺序（同时也是导入时的必需列）
var DesiredOrder = []string{
	ColNOP, ColProgram, ColKategori, ColJustifikasi, ColProposal,
	ColBudget, ColRevenue, ColCost, ColProfit,
	ColIncremental1, ColIncremental2, ColIncremental3,
	ColStatus, ColPilot, ColDrivenProgram, ColAssignBy, ColApprovedBy,
}

// NumericColumns 数值列（导出时按数字写入）
var NumericColumns = []string{
	ColBudget, ColRevenue, ColCost, ColProfit,
	ColIncremental1, ColIncremental2, ColIncremental3,
}

// InternalColumns 由导入流程维护的元数据列
var InternalColumns = []string{ColRowHash, ColIngestTimestamp, ColSourceFile}

// Status 审批状态
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Statuses 全部已知状态
var Statuses = []Status{StatusSubmitted, StatusPending, StatusApproved, StatusRejected}

// 历史记录类型
const (
	ChangeTypeSyncUpdateOld = "sync_update_old"
)

// StringValue 取列的字符串值；缺失或 NULL 返回 ok=false
func StringValue(row Row, col string) (string, bool) {
	v, ok := row[col]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return fmt.Sprint(t), true
	}
}
