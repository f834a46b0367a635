package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wisefido-vitals/common/logger"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/sensor"
	"wisefido-vitals/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-vitals")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting wisefido-vitals service",
		zap.String("version", "1.0.0"),
		zap.String("device_id", cfg.Vitals.DeviceID),
		zap.String("stream", cfg.Vitals.Stream),
		zap.Bool("simulate_sensor", cfg.Vitals.SimulateSensor),
	)

	// 构造驱动：真实 Hub 或模拟驱动
	var driver sensor.Driver
	if cfg.Vitals.SimulateSensor {
		driver = sensor.NewSimulated(int64(os.Getpid()))
	} else {
		bus, err := sensor.OpenI2C(cfg.Vitals.I2CDevice)
		if err != nil {
			zapLogger.Fatal("Failed to open i2c bus", zap.Error(err))
		}
		defer bus.Close()
		driver = sensor.NewBioHub(bus)
	}

	// 创建服务
	vitalsService, err := service.NewVitalsService(cfg, driver, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create vitals service", zap.Error(err))
	}

	// 启动服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 在 goroutine 中启动服务
	runErr := make(chan error, 1)
	go func() {
		runErr <- vitalsService.Start(ctx)
	}()

	// 等待中断信号或轮询循环退出
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		// 等当前迭代跑完再关闭客户端
		if err := <-runErr; err != nil {
			zapLogger.Error("Vitals service exited with error", zap.Error(err))
		}
	case err := <-runErr:
		if err != nil {
			zapLogger.Error("Vitals service exited with error", zap.Error(err))
		}
		cancel()
	}

	// 优雅关闭
	if err := vitalsService.Stop(context.Background()); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
