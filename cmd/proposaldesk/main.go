package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"proposaldesk/internal/config"
	"proposaldesk/internal/logging"
	"proposaldesk/internal/server"
	"proposaldesk/internal/util"
)

var (
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	configPath = flag.String("config", "", "配置文件路径 (默认为程序目录下的 config.toml)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Proposal Desk - Dashboard & Approvals")
	fmt.Println("==========================================")

	// 加载配置
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if *configPath != "" {
		cfg, info, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		fmt.Printf("加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 首次运行生成默认配置文件（不含环境变量覆盖的值）
	if info.Path != "" {
		if _, statErr := os.Stat(info.Path); os.IsNotExist(statErr) {
			if err := config.SaveConfig(config.DefaultConfig(), info.Path); err == nil {
				fmt.Printf("已生成默认配置: %s\n", info.Path)
			}
		}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Printf("配置无效: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = logger.Sync() }()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("server init failed", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := util.DashboardURL(cfg.Server.Port)

	// 启动服务器
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	// 打开浏览器
	if !cfg.Server.DevMode && cfg.Server.OpenBrowser {
		fmt.Printf("正在打开浏览器: %s\n", url)
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
