package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"proposaldesk/internal/table"
)

// parseQuery 解析 tab/q/sort/dir/limit 参数
func parseQuery(c *gin.Context) (table.Query, error) {
	tab, err := table.ParseTab(c.Query("tab"))
	if err != nil {
		return table.Query{}, err
	}
	q := table.Query{
		Tab:        tab,
		Search:     strings.TrimSpace(c.Query("q")),
		SortColumn: c.Query("sort"),
		SortDesc:   strings.EqualFold(c.Query("dir"), "desc"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return table.Query{}, errors.New("limit harus berupa angka >= 0")
		}
		q.Limit = n
	}
	return q, nil
}

// GetData 获取视图模型
// GET /api/data
func (h *Handler) GetData(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vm := h.builder.Build(c.Request.Context())
	if vm.Error == "" {
		vm.Rows = table.Apply(vm.Rows, vm.Columns, q)
	}
	c.JSON(http.StatusOK, vm)
}

// GetSummary 各页签的记录数
// GET /api/summary
func (h *Handler) GetSummary(c *gin.Context) {
	vm := h.builder.Build(c.Request.Context())
	if vm.Error != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": vm.Error})
		return
	}
	c.JSON(http.StatusOK, table.CountByStatus(vm.Rows))
}

// GetChart 分组汇总
// GET /api/chart?x=KATEGORI&y=BUDGET
func (h *Handler) GetChart(c *gin.Context) {
	x, y := c.Query("x"), c.Query("y")
	if x == "" || y == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter x dan y wajib diisi."})
		return
	}
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// 图表不受排序与行数上限影响
	q.SortColumn, q.Limit = "", 0

	vm := h.builder.Build(c.Request.Context())
	if vm.Error != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": vm.Error})
		return
	}
	rows := table.Apply(vm.Rows, vm.Columns, q)
	c.JSON(http.StatusOK, table.Aggregate(rows, x, y))
}
