// Package poller 实现传感器轮询主循环
//
// 严格单顺序循环：每次迭代从驱动读一帧、喂给 Top-K 缓冲，
// 用单调时钟在每次迭代里检查上报间隔是否到期（协作式，非定时器驱动），
// 到期则生成 VitalReport 交给 Sink 并清空窗口。
// 无重试、无背压、无并发。
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/selector"
	"wisefido-vitals/internal/sensor"
)

// Sink 接收每个窗口的上报结果
type Sink interface {
	Publish(ctx context.Context, report *models.VitalReport) error
}

// SinkFunc 函数式 Sink 适配器
type SinkFunc func(ctx context.Context, report *models.VitalReport) error

func (f SinkFunc) Publish(ctx context.Context, report *models.VitalReport) error {
	return f(ctx, report)
}

// Poller 传感器轮询器
type Poller struct {
	driver         sensor.Driver
	topk           *selector.TopK
	sink           Sink
	logger         *zap.Logger
	deviceID       string
	tenantID       string
	pollInterval   time.Duration
	reportInterval time.Duration

	// 测试注入用的时钟
	now func() time.Time
}

// Options Poller 参数
type Options struct {
	DeviceID       string
	TenantID       string
	PollInterval   time.Duration
	ReportInterval time.Duration
}

// New 创建轮询器
func New(driver sensor.Driver, topk *selector.TopK, sink Sink, opts Options, logger *zap.Logger) *Poller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = time.Second
	}
	return &Poller{
		driver:         driver,
		topk:           topk,
		sink:           sink,
		logger:         logger,
		deviceID:       opts.DeviceID,
		tenantID:       opts.TenantID,
		pollInterval:   opts.PollInterval,
		reportInterval: opts.ReportInterval,
		now:            time.Now,
	}
}

// Run 运行轮询循环，直到 ctx 取消
func (p *Poller) Run(ctx context.Context) error {
	windowStart := p.now()

	for {
		reading, err := p.driver.Read()
		if err != nil {
			// 厂家诊断码只记录，不重试、不中止
			var se *sensor.StatusError
			if errors.As(err, &se) {
				p.logger.Warn("sensor hub returned diagnostic code",
					zap.Int("code", se.Code),
					zap.String("device_id", p.deviceID),
				)
			} else {
				p.logger.Error("sensor read failed",
					zap.String("device_id", p.deviceID),
					zap.Error(err),
				)
			}
		} else {
			p.topk.Offer(reading)
		}

		// 协作式上报：每次迭代检查单调时钟
		if now := p.now(); now.Sub(windowStart) >= p.reportInterval {
			report := p.buildReport(windowStart, now)
			if err := p.sink.Publish(ctx, report); err != nil {
				p.logger.Error("failed to publish report",
					zap.String("report_id", report.ReportID),
					zap.Error(err),
				)
			}
			p.topk.Reset()
			windowStart = now
		}

		// 迭代间固定延时
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.pollInterval):
		}
	}
}

// buildReport 把当前窗口快照转成标准化上报结构
func (p *Poller) buildReport(windowStart, windowEnd time.Time) *models.VitalReport {
	summary := p.topk.Snapshot()

	report := &models.VitalReport{
		ReportID:      uuid.NewString(),
		TenantID:      p.tenantID,
		DeviceID:      p.deviceID,
		DeviceType:    "BioHub",
		WindowStart:   windowStart.UnixMilli(),
		WindowEnd:     windowEnd.UnixMilli(),
		AvgHeartRate:  summary.AvgHeartRate,
		AvgSpO2:       summary.AvgSpO2,
		AvgConfidence: summary.AvgConfidence,
		SampleCount:   summary.SampleCount,
		OfferedCount:  summary.Offered,
		RejectedCount: summary.Rejected,
	}

	for _, r := range summary.Samples {
		report.Samples = append(report.Samples, models.ReportSample{
			HeartRate:  r.HeartRate,
			Confidence: r.Confidence,
			SpO2:       r.SpO2,
			IRCount:    r.IRCount,
			RedCount:   r.RedCount,
			Status:     r.Status,
			Timestamp:  r.Timestamp.UnixMilli(),
		})
	}

	return report
}
