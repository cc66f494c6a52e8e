package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proposaldesk/internal/auth"
	"proposaldesk/internal/table"
)

// MsgAuthFailure 登录失败提示
const MsgAuthFailure = "Username atau password salah."

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func pageData(c *gin.Context, title, active string) gin.H {
	return gin.H{
		"Title":    title,
		"Active":   active,
		"Username": auth.Username(c),
	}
}

// showLogin 登录页；已登录时跳转到首页
func (s *Server) showLogin(c *gin.Context) {
	if _, ok := auth.SessionFrom(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	data := pageData(c, "Login", "login")
	data["Form"] = loginForm{}
	c.HTML(http.StatusOK, "login.html", data)
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)
	form.Username = strings.TrimSpace(form.Username)

	if _, err := s.gate.Login(c, form.Username, form.Password); err != nil {
		s.logger.Warn("login failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		data := pageData(c, "Login", "login")
		data["Error"] = MsgAuthFailure
		data["Form"] = loginForm{Username: form.Username}
		c.HTML(http.StatusUnauthorized, "login.html", data)
		return
	}
	s.logger.Info("login", zap.String("username", form.Username))
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) logout(c *gin.Context) {
	s.logger.Info("logout", zap.String("username", auth.Username(c)))
	s.gate.Logout(c)
	c.Redirect(http.StatusFound, auth.LoginPath)
}

func (s *Server) dashboard(c *gin.Context) {
	data := pageData(c, "Dashboard", "dashboard")
	data["Tabs"] = table.Tabs
	data["RowLimits"] = table.RowLimits
	data["ChartTypes"] = []table.ChartType{table.ChartBar, table.ChartLine, table.ChartPie}
	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (s *Server) approvals(c *gin.Context) {
	c.HTML(http.StatusOK, "approvals.html", pageData(c, "Approvals", "approvals"))
}
