package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dataforwardpro/dataforwardpro/internal/config"
	"github.com/dataforwardpro/dataforwardpro/internal/database"
	"github.com/dataforwardpro/dataforwardpro/internal/simulator"
	"github.com/dataforwardpro/dataforwardpro/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting Data Forward Simulator", "version", "1.0.0")

	// 初始化数据库
	if err := database.InitSQLite(cfg.Simulator.SQLitePath); err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer database.Close()

	// 加载参考数据种子，缺失时以空数据启动
	var seed *simulator.Seed
	if _, err := os.Stat(cfg.Simulator.SeedPath); err != nil {
		logger.Warn("Seed file missing, starting with empty reference data", "path", cfg.Simulator.SeedPath)
	} else {
		seed, err = simulator.LoadSeed(cfg.Simulator.SeedPath)
		if err != nil {
			logger.Fatal("Failed to load seed file", "path", cfg.Simulator.SeedPath, "error", err)
		}
		if err := seed.Apply(); err != nil {
			logger.Fatal("Failed to apply seed data", "error", err)
		}
	}

	h := simulator.NewHandler(seed)
	r := simulator.SetupRouter(h, cfg.Simulator.Mode)

	server := &http.Server{
		Addr:           cfg.SimulatorAddr(),
		Handler:        r,
		ReadTimeout:    cfg.Simulator.ReadTimeout,
		WriteTimeout:   cfg.Simulator.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// 启动服务器
	go func() {
		logger.Info("Simulator starting", "port", cfg.Simulator.Port, "mode", cfg.Simulator.Mode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start simulator", "error", err)
		}
	}()

	// 种子文件监听与热更新
	go func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Warn("Seed watch init failed", "error", err)
			return
		}
		defer watcher.Close()
		path := cfg.Simulator.SeedPath
		if err := watcher.Add(path); err != nil {
			logger.Warn("Seed watch add failed", "path", path, "error", err)
			return
		}
		var debounce *time.Timer
		debounceInterval := 300 * time.Millisecond
		trigger := func() {
			newSeed, err := simulator.LoadSeed(path)
			if err != nil {
				logger.Warn("Seed reload failed", "path", path, "error", err)
				return
			}
			if err := newSeed.Apply(); err != nil {
				logger.Warn("Seed apply failed", "path", path, "error", err)
				return
			}
			h.SetGroups(newSeed.GroupTree())
			logger.Info("Seed reloaded", "path", path)
		}
		for {
			select {
			case ev := <-watcher.Events:
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(debounceInterval, trigger)
				}
			case err := <-watcher.Errors:
				logger.Warn("Seed watch error", "error", err)
			}
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down simulator...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Simulator forced to shutdown", "error", err)
	}

	logger.Info("Simulator exited")
}
