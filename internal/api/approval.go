package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proposaldesk/internal/apperr"
	"proposaldesk/internal/approval"
	"proposaldesk/internal/auth"
)

// NOPRequest 审批请求（JSON 或表单）
type NOPRequest struct {
	NOP string `json:"nop" form:"nop"`
}

// rollbackRequest 回滚请求，nop 必填
type rollbackRequest struct {
	NOP string `json:"nop" form:"nop" binding:"required"`
}

const msgNOPRequired = "NOP wajib diisi."

// readNOP 原样读取 nop；缺失或无法解析时为空串，由审批服务按不存在处理
func (h *Handler) readNOP(c *gin.Context) string {
	var req NOPRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Debug("approval body not bound", zap.Error(err))
	}
	return req.NOP
}

func bindRollbackNOP(c *gin.Context) (string, bool) {
	var req rollbackRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.NOP) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNOPRequired})
		return "", false
	}
	return strings.TrimSpace(req.NOP), true
}

// Approve 批准提案；空或未知的 NOP 返回 404
// POST /api/approve
func (h *Handler) Approve(c *gin.Context) {
	nop := h.readNOP(c)

	res, err := h.approvals.Approve(c.Request.Context(), nop, auth.Username(c))
	if err != nil {
		h.writeError(c, "approve", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message})
}

// Reject 拒绝提案（不校验 NOP 是否存在，空 NOP 同样返回 200）
// POST /api/reject
func (h *Handler) Reject(c *gin.Context) {
	nop := h.readNOP(c)

	res, err := h.approvals.Reject(c.Request.Context(), nop, auth.Username(c))
	if err != nil {
		h.writeError(c, "reject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message})
}

// Rollback 用最近一次同步前的旧值恢复记录
// POST /api/rollback
func (h *Handler) Rollback(c *gin.Context) {
	nop, ok := bindRollbackNOP(c)
	if !ok {
		return
	}

	if err := h.store.Rollback(c.Request.Context(), nop); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Tidak ada data rollback untuk NOP %s.", nop)})
			return
		}
		h.writeError(c, "rollback", err)
		return
	}
	h.logger.Info("record rolled back", zap.String("nop", nop), zap.String("actor", auth.Username(c)))
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Proposal %s berhasil di-rollback.", nop)})
}

func (h *Handler) writeError(c *gin.Context, op string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": approval.MsgNotFound})
		return
	}
	h.logger.Error(op+" failed", zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
