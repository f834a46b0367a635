package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-vitals/common/database"
	mqttcommon "wisefido-vitals/common/mqtt"
	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/poller"
	"wisefido-vitals/internal/publisher"
	"wisefido-vitals/internal/repository"
	"wisefido-vitals/internal/selector"
	"wisefido-vitals/internal/sensor"
	"wisefido-vitals/internal/store"
)

// VitalsService 心率/血氧采集服务
//
// 组装驱动 → 轮询循环 → 上报出口（分发器 / 时序库 / 厂家云），
// 采样路径本身保持单顺序循环，不引入并发。
type VitalsService struct {
	config     *config.Config
	logger     *zap.Logger
	driver     sensor.Driver
	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqttcommon.Client
	repo       *repository.VitalsTimeSeriesRepository
	publisher  *publisher.Publisher
	cloud      *CloudClient
	poller     *poller.Poller
}

// NewVitalsService 创建采集服务
//
// driver 由调用方构造（真实 Hub 或模拟驱动），其余依赖按配置组装。
func NewVitalsService(cfg *config.Config, driver sensor.Driver, logger *zap.Logger) (*VitalsService, error) {
	s := &VitalsService{
		config: cfg,
		logger: logger,
		driver: driver,
	}

	// 初始化数据库（落库可关闭）
	if cfg.Vitals.EnablePersistence {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		s.repo = repository.NewVitalsTimeSeriesRepository(db, logger)
	}

	// 初始化Redis（流 + 实时KV 是平台主数据路径，必开）
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.redis = redisClient

	// 初始化MQTT（可关闭）
	var mqttPub publisher.MQTTPublisher
	if cfg.Vitals.EnableMQTT {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
		}
		s.mqttClient = mqttClient
		mqttPub = mqttClient
		logger.Info("MQTT client ready",
			zap.String("broker", cfg.MQTT.Broker),
			zap.Bool("connected", mqttClient.IsConnected()),
		)
	}

	// 厂家云上报（可选）
	if cfg.Cloud.Enabled {
		s.cloud = NewCloudClient(cfg.Cloud.BaseURL, cfg.Cloud.AppID, cfg.Cloud.SecretKey, logger)
	}

	// 分发器
	s.publisher = publisher.New(
		redisClient,
		store.NewRedisKV(redisClient),
		mqttPub,
		publisher.Options{
			Stream:      cfg.Vitals.Stream,
			TopicPrefix: cfg.Vitals.Topic,
			QoS:         cfg.MQTT.QoS,
			RealtimeTTL: time.Duration(cfg.Vitals.RealtimeTTLSeconds) * time.Second,
		},
		logger,
	)

	// 轮询循环
	topk := selector.NewTopK(cfg.Vitals.TopK, cfg.Vitals.ConfidenceThreshold)
	s.poller = poller.New(
		driver,
		topk,
		poller.SinkFunc(s.handleReport),
		poller.Options{
			DeviceID:       cfg.Vitals.DeviceID,
			TenantID:       cfg.Vitals.TenantID,
			PollInterval:   time.Duration(cfg.Vitals.PollIntervalMs) * time.Millisecond,
			ReportInterval: time.Duration(cfg.Vitals.ReportIntervalMs) * time.Millisecond,
		},
		logger,
	)

	return s, nil
}

// Start 启动服务（阻塞直到 ctx 取消）
func (s *VitalsService) Start(ctx context.Context) error {
	s.logger.Info("Starting vitals service components")

	if err := s.driver.Configure(); err != nil {
		return fmt.Errorf("failed to configure sensor: %w", err)
	}

	s.logger.Info("Vitals service started successfully",
		zap.String("device_id", s.config.Vitals.DeviceID),
		zap.Int("report_interval_ms", s.config.Vitals.ReportIntervalMs),
		zap.Int("top_k", s.config.Vitals.TopK),
		zap.Int("confidence_threshold", s.config.Vitals.ConfidenceThreshold),
	)

	return s.poller.Run(ctx)
}

// Stop 停止服务
func (s *VitalsService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping vitals service")

	// 停止传感器
	if s.driver != nil {
		if err := s.driver.Close(); err != nil {
			s.logger.Error("Error closing sensor driver", zap.Error(err))
		}
	}

	// 断开MQTT
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	// 关闭Redis
	if s.redis != nil {
		rediscommon.Close(s.redis)
	}

	// 关闭数据库
	if s.db != nil {
		database.Close(s.db)
	}

	s.logger.Info("Vitals service stopped")
	return nil
}

// handleReport 处理一个上报窗口：打印摘要 + 分发 + 落库 + 云上报
//
// 任何出口失败都只记录日志，轮询循环照常进入下一个窗口。
func (s *VitalsService) handleReport(ctx context.Context, report *models.VitalReport) error {
	if report.HasSamples() {
		s.logger.Info("Vitals report",
			zap.String("device_id", report.DeviceID),
			zap.Float64("avg_heart_rate", report.AvgHeartRate),
			zap.Float64("avg_spo2", report.AvgSpO2),
			zap.Float64("avg_confidence", report.AvgConfidence),
			zap.Int("sample_count", report.SampleCount),
			zap.Int("rejected_count", report.RejectedCount),
		)
	} else {
		s.logger.Info("Vitals report: no valid samples in window",
			zap.String("device_id", report.DeviceID),
			zap.Int("offered_count", report.OfferedCount),
			zap.Int("rejected_count", report.RejectedCount),
		)
	}

	s.publisher.Publish(ctx, report)

	// 空窗口不落库、不上云（实时KV同样跳过，见 publisher）
	if report.HasSamples() {
		if s.repo != nil {
			if err := s.repo.Insert(ctx, report); err != nil {
				s.logger.Error("Failed to persist report",
					zap.String("report_id", report.ReportID),
					zap.Error(err),
				)
			}
		}
		if s.cloud != nil {
			if err := s.cloud.UploadReport(report); err != nil {
				s.logger.Error("Failed to upload report to cloud",
					zap.String("report_id", report.ReportID),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}
