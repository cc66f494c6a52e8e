package api

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proposaldesk/internal/approval"
	"proposaldesk/internal/exporter"
	"proposaldesk/internal/importer"
	"proposaldesk/internal/store"
	"proposaldesk/internal/viewmodel"
)

// Handler JSON API 处理器
type Handler struct {
	store     *store.Store
	builder   *viewmodel.Builder
	approvals *approval.Service
	exporter  *exporter.Exporter
	importer  *importer.Coordinator
	uploadDir string
	logger    *zap.Logger
}

// Options 处理器选项
type Options struct {
	UploadDir string // 上传文件暂存目录，默认系统临时目录
	Logger    *zap.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &Handler{
		store:     st,
		builder:   viewmodel.NewBuilder(st, logger),
		approvals: approval.NewService(st, logger),
		exporter:  exporter.NewExporter(st, logger),
		importer:  importer.NewCoordinator(st, logger),
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Builder 视图模型构建器（页面渲染共用）
func (h *Handler) Builder() *viewmodel.Builder {
	return h.builder
}

// RegisterRoutes 注册 API 路由（调用方负责挂登录校验）
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 数据查询
	router.GET("/data", h.GetData)
	router.GET("/summary", h.GetSummary)
	router.GET("/chart", h.GetChart)

	// 审批
	router.POST("/approve", h.Approve)
	router.POST("/reject", h.Reject)
	router.POST("/rollback", h.Rollback)

	// 导入导出
	router.POST("/import", h.Import)
	router.GET("/imports", h.ListImports)
	router.GET("/export-excel", h.ExportExcel)
}
