package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proposaldesk/internal/importer"
)

var allowedUploadExt = map[string]bool{".xlsx": true, ".xlsm": true, ".csv": true}

// Import 上传导出文件并同步 (SSE 流式响应)
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File tidak ditemukan."})
		return
	}

	name := filepath.Base(file.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadExt[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Format file harus .xlsx atau .csv."})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	savedPath := filepath.Join(h.uploadDir, fmt.Sprintf("upload_%d%s", time.Now().UnixNano(), ext))
	if err := c.SaveUploadedFile(file, savedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal menyimpan file."})
		return
	}
	defer os.Remove(savedPath)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming tidak didukung"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	progressChan := h.importer.Import(c.Request.Context(), importer.ImportOptions{
		FilePath:   savedPath,
		SourceFile: name,
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			h.logger.Warn("marshal progress event failed", zap.Error(err))
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListImports 最近的导入批次
// GET /api/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit harus berupa angka >= 0"})
			return
		}
		limit = n
	}
	logs, err := h.store.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list import logs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imports": logs})
}
