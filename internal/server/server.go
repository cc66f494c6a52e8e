package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"proposaldesk/internal/api"
	"proposaldesk/internal/auth"
	"proposaldesk/internal/config"
	"proposaldesk/internal/logging"
	"proposaldesk/internal/store"
	"proposaldesk/internal/table"
)

//go:embed all:web
var webFiles embed.FS

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	store      *store.Store
	api        *api.Handler
	gate       *auth.Gate
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer 按配置打开数据库并创建服务器
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := config.ResolveDBPath(cfg, dataDir)

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	logger.Info("database opened", zap.String("path", dbPath))

	return NewWithStore(sqliteStore, cfg, filepath.Join(dataDir, "uploads"), logger), nil
}

// NewWithStore 使用已有的 Store 创建服务器
func NewWithStore(st *store.Store, cfg *config.AppConfig, uploadDir string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Server.DevMode && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logging.GinLogger(logger), logging.GinRecovery(logger))

	s := &Server{
		router: router,
		store:  st,
		api:    api.NewHandler(st, api.Options{UploadDir: uploadDir, Logger: logger}),
		gate: auth.NewGate(
			auth.NewSessionStore(),
			auth.NewStaticVerifier(cfg.Auth.Users),
			cfg.Server.CookieName,
		),
		logger: logger,
	}

	s.setupRoutes()
	return s
}

var tabTitle = cases.Title(language.Und)

func tabLabel(t table.Tab) string {
	if t == table.TabAll {
		return "All Proposals"
	}
	return tabTitle.String(string(t))
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"tabLabel": tabLabel,
	}).ParseFS(webFiles, "web/templates/*.html"))
	s.router.SetHTMLTemplate(tmpl)

	staticSub, _ := fs.Sub(webFiles, "web/static")
	s.router.StaticFS("/static", http.FS(staticSub))

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.Use(s.gate.Load())

	// 登录
	s.router.GET("/login", s.showLogin)
	s.router.POST("/login", s.login)

	protected := s.router.Group("/", s.gate.RequireLogin())
	{
		protected.POST("/logout", s.logout)
		protected.GET("/", s.dashboard)
		protected.GET("/approvals", s.approvals)

		// JSON API
		apiGroup := protected.Group("/api")
		s.api.RegisterRoutes(apiGroup)
	}
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，直到 Shutdown 被调用
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并关闭数据库
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
