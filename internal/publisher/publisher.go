// Package publisher 负责把上报窗口分发到平台
//
// 三条出口，互相独立：
//   - Redis Streams：给 data-transformer / sensor-fusion 消费
//   - 实时 KV：给卡片聚合读取（带 TTL）
//   - MQTT：给外部订阅方
//
// 任何一条出口失败只记录日志，不影响其他出口，也不中断轮询循环。
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/store"
)

// MQTTPublisher MQTT 发布接口（common/mqtt.Client 满足该接口）
type MQTTPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Publisher 上报分发器
type Publisher struct {
	redisClient *redis.Client
	kv          store.KV
	mqtt        MQTTPublisher // 为 nil 时跳过 MQTT 出口
	logger      *zap.Logger

	stream      string
	topicPrefix string
	qos         byte
	realtimeTTL time.Duration
}

// Options Publisher 参数
type Options struct {
	Stream      string
	TopicPrefix string
	QoS         byte
	RealtimeTTL time.Duration
}

// New 创建分发器
func New(redisClient *redis.Client, kv store.KV, mqtt MQTTPublisher, opts Options, logger *zap.Logger) *Publisher {
	return &Publisher{
		redisClient: redisClient,
		kv:          kv,
		mqtt:        mqtt,
		logger:      logger,
		stream:      opts.Stream,
		topicPrefix: opts.TopicPrefix,
		qos:         opts.QoS,
		realtimeTTL: opts.RealtimeTTL,
	}
}

// Publish 分发一个上报窗口
func (p *Publisher) Publish(ctx context.Context, report *models.VitalReport) error {
	p.publishStream(ctx, report)
	p.setRealtime(ctx, report)
	p.publishMQTT(report)
	return nil
}

// publishStream 发布标准化数据到 Redis Streams
// 载荷格式与 sleepace/radar 服务保持一致，下游消费逻辑通用
func (p *Publisher) publishStream(ctx context.Context, report *models.VitalReport) {
	standardizedData := map[string]interface{}{
		"device_id":   report.DeviceID,
		"tenant_id":   report.TenantID,
		"device_type": report.DeviceType,
		"raw_data": map[string]interface{}{
			"heartRate":     report.AvgHeartRate,
			"spo2":          report.AvgSpO2,
			"confidence":    report.AvgConfidence,
			"sampleCount":   report.SampleCount,
			"offeredCount":  report.OfferedCount,
			"rejectedCount": report.RejectedCount,
			"windowStart":   report.WindowStart,
			"windowEnd":     report.WindowEnd,
		},
		"timestamp": report.WindowEnd / 1000,
		"topic":     "vitals/report",
	}

	streamID, err := rediscommon.PublishJSONToStream(ctx, p.redisClient, p.stream, standardizedData)
	if err != nil {
		p.logger.Error("Failed to publish report to Redis Streams",
			zap.String("device_id", report.DeviceID),
			zap.String("stream", p.stream),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("Published vitals report to Redis Streams",
		zap.String("device_id", report.DeviceID),
		zap.String("stream", p.stream),
		zap.String("stream_id", streamID),
	)
}

// setRealtime 更新设备实时数据 KV（空窗口不覆盖上一次有效值）
func (p *Publisher) setRealtime(ctx context.Context, report *models.VitalReport) {
	if !report.HasSamples() {
		return
	}

	realtime := map[string]interface{}{
		"heart_rate":   report.AvgHeartRate,
		"spo2":         report.AvgSpO2,
		"confidence":   report.AvgConfidence,
		"sample_count": report.SampleCount,
		"timestamp":    report.WindowEnd / 1000,
	}
	payload, err := json.Marshal(realtime)
	if err != nil {
		p.logger.Error("Failed to marshal realtime data", zap.Error(err))
		return
	}

	key := store.RealtimeKey(report.DeviceID)
	if err := p.kv.Set(ctx, key, string(payload), p.realtimeTTL); err != nil {
		p.logger.Error("Failed to set realtime key",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// publishMQTT 发布完整报告到 MQTT 主题 {prefix}/{device_id}/report
func (p *Publisher) publishMQTT(report *models.VitalReport) {
	if p.mqtt == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		p.logger.Error("Failed to marshal report for MQTT", zap.Error(err))
		return
	}

	topic := fmt.Sprintf("%s/%s/report", p.topicPrefix, report.DeviceID)
	if err := p.mqtt.Publish(topic, p.qos, false, payload); err != nil {
		p.logger.Error("Failed to publish report to MQTT",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}
