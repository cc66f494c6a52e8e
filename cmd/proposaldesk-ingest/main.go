package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"proposaldesk/internal/config"
	"proposaldesk/internal/exporter"
	"proposaldesk/internal/importer"
	"proposaldesk/internal/logging"
	"proposaldesk/internal/store"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (默认为程序目录下的 config.toml)")
	dbPath     = flag.String("db", "", "SQLite 文件路径 (覆盖配置文件)")
	snapshot   = flag.String("snapshot", "", "合并快照输出路径 (默认 <dataDir>/exports/merged_current.xlsx，传 - 跳过)")
	rollback   = flag.String("rollback", "", "回滚指定 NOP 到上一个历史版本，不执行导入")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <export.xlsx|export.csv>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if *rollback == "" && flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)
	if *rollback != "" {
		input = ""
	}

	var (
		cfg *config.AppConfig
		err error
	)
	if *configPath != "" {
		cfg, _, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, _, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, input, logger); err != nil {
		logger.Error("ingestion failed", zap.String("file", input), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, input string, logger *zap.Logger) error {
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	path := config.ResolveDBPath(cfg, dataDir)
	if *dbPath != "" {
		path = *dbPath
	}

	st, err := store.New(path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if *rollback != "" {
		if err := st.Rollback(ctx, *rollback); err != nil {
			return err
		}
		fmt.Printf("Rollback NOP %s selesai.\n", *rollback)
		return nil
	}

	logger.Info("starting ingestion", zap.String("file", input), zap.String("db", path))
	coord := importer.NewCoordinator(st, logger)
	ch := coord.Import(ctx, importer.ImportOptions{FilePath: input})

	relay := make(chan importer.ProgressEvent, 100)
	go func() {
		defer close(relay)
		for evt := range ch {
			if evt.Type == importer.EventWarning || evt.Type == importer.EventInfo {
				fmt.Printf("[%s] %s\n", evt.Type, evt.Message)
			}
			relay <- evt
		}
	}()
	report, err := importer.Wait(relay)
	if err != nil {
		return err
	}

	s := report.Summary
	fmt.Printf("Ingestion summary: new=%d, updated=%d, unchanged=%d, skipped=%d, errors=%d\n",
		s.NewRecords, s.UpdatedRecords, s.UnchangedRecords, s.SkippedRecords, len(s.Errors))
	for _, m := range s.Modifications {
		fmt.Printf("  %s %s: %q -> %q\n", m.NOP, m.Field, m.Old, m.New)
	}

	out := *snapshot
	if out == "-" {
		return nil
	}
	if out == "" {
		out = filepath.Join(dataDir, "exports", "merged_current.xlsx")
	}
	snap, err := exporter.NewExporter(st, logger).ExportFile(ctx, exporter.ExportOptions{User: "ingest"}, out)
	if err != nil {
		return err
	}
	fmt.Printf("Merged snapshot exported: %s (rows=%d)\n", out, snap.Rows)
	return nil
}
