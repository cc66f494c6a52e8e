package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proposaldesk/internal/auth"
	"proposaldesk/internal/exporter"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportExcel 导出当前视图为 xlsx
// GET /api/export-excel
func (h *Handler) ExportExcel(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q.Limit = 0

	now := time.Now()
	snap, err := h.exporter.Export(c.Request.Context(), exporter.ExportOptions{
		User:  auth.Username(c),
		Query: q,
		Now:   now,
	})
	if err != nil {
		h.writeError(c, "export", err)
		return
	}
	defer snap.File.Close()

	if snap.Rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tidak ada data untuk diekspor."})
		return
	}

	filename := fmt.Sprintf("proposals_%s.xlsx", now.Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if _, err := snap.File.WriteTo(c.Writer); err != nil {
		h.logger.Error("write export failed", zap.Error(err))
	}
}
