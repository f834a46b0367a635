package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/selector"
	"wisefido-vitals/internal/sensor"
)

// fakeClock 手动推进的单调时钟
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// scriptedDriver 按脚本吐采样，每次读取推进时钟；脚本耗尽后取消 ctx
type scriptedDriver struct {
	clock    *fakeClock
	step     time.Duration
	readings []sensor.Reading
	errs     []error
	i        int
	cancel   context.CancelFunc
}

func (d *scriptedDriver) Configure() error { return nil }
func (d *scriptedDriver) Close() error     { return nil }

func (d *scriptedDriver) Read() (sensor.Reading, error) {
	if d.i >= len(d.readings) {
		d.cancel()
		return sensor.Reading{}, &sensor.StatusError{Code: sensor.CodeNotReady}
	}
	r := d.readings[d.i]
	err := d.errs[d.i]
	d.i++
	d.clock.advance(d.step)
	return r, err
}

// captureSink 收集上报结果
type captureSink struct {
	reports []*models.VitalReport
}

func (s *captureSink) Publish(ctx context.Context, report *models.VitalReport) error {
	s.reports = append(s.reports, report)
	return nil
}

func conf(c int, hr float64) sensor.Reading {
	return sensor.Reading{HeartRate: hr, Confidence: c, SpO2: 97}
}

func TestPoller_DefaultsIntervals(t *testing.T) {
	p := New(&scriptedDriver{}, selector.NewTopK(5, 50), &captureSink{}, Options{
		DeviceID: "device-1",
	}, zap.NewNop())

	// 零值参数回落到默认节奏，避免 time.After(0) 空转
	assert.Equal(t, 100*time.Millisecond, p.pollInterval)
	assert.Equal(t, time.Second, p.reportInterval)
}

func TestPoller_ReportsWindowAverage(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_000_000)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := &scriptedDriver{
		clock:  clock,
		step:   250 * time.Millisecond,
		cancel: cancel,
		readings: []sensor.Reading{
			conf(60, 70), conf(40, 200), conf(80, 74), conf(90, 78),
		},
		errs: []error{nil, nil, nil, nil},
	}

	sink := &captureSink{}
	topk := selector.NewTopK(2, 50)
	p := New(driver, topk, sink, Options{
		DeviceID:       "device-1",
		TenantID:       "tenant-1",
		PollInterval:   time.Millisecond,
		ReportInterval: time.Second,
	}, zap.NewNop())
	p.now = clock.now

	require.NoError(t, p.Run(ctx))

	// 4 次采样推进满 1 秒：恰好一个上报窗口
	require.Len(t, sink.reports, 1)
	report := sink.reports[0]

	assert.Equal(t, "device-1", report.DeviceID)
	assert.Equal(t, "tenant-1", report.TenantID)
	assert.Equal(t, "BioHub", report.DeviceType)
	assert.NotEmpty(t, report.ReportID)

	// K=2：入选的是置信度 80 和 90 的采样
	assert.Equal(t, 2, report.SampleCount)
	assert.Equal(t, 4, report.OfferedCount)
	assert.Equal(t, 1, report.RejectedCount)
	assert.InDelta(t, (74.0+78)/2, report.AvgHeartRate, 1e-9)
	assert.InDelta(t, (80.0+90)/2, report.AvgConfidence, 1e-9)

	assert.Equal(t, int64(1_000_000), report.WindowStart)
	assert.Equal(t, int64(1_001_000), report.WindowEnd)
	assert.Len(t, report.Samples, 2)
}

func TestPoller_WindowResetsBetweenReports(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(0)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := &scriptedDriver{
		clock:  clock,
		step:   500 * time.Millisecond,
		cancel: cancel,
		readings: []sensor.Reading{
			conf(90, 70), conf(91, 72), // 窗口 1
			conf(60, 80), conf(61, 82), // 窗口 2
		},
		errs: []error{nil, nil, nil, nil},
	}

	sink := &captureSink{}
	p := New(driver, selector.NewTopK(5, 50), sink, Options{
		DeviceID:       "device-1",
		PollInterval:   time.Millisecond,
		ReportInterval: time.Second,
	}, zap.NewNop())
	p.now = clock.now

	require.NoError(t, p.Run(ctx))

	require.Len(t, sink.reports, 2)

	// 第二个窗口不包含第一个窗口的采样
	assert.Equal(t, 2, sink.reports[0].SampleCount)
	assert.InDelta(t, 71.0, sink.reports[0].AvgHeartRate, 1e-9)
	assert.Equal(t, 2, sink.reports[1].SampleCount)
	assert.InDelta(t, 81.0, sink.reports[1].AvgHeartRate, 1e-9)
	assert.Equal(t, sink.reports[0].WindowEnd, sink.reports[1].WindowStart)
}

func TestPoller_ContinuesPastDiagnosticCodes(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(0)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := &scriptedDriver{
		clock:  clock,
		step:   600 * time.Millisecond,
		cancel: cancel,
		readings: []sensor.Reading{
			{}, conf(85, 75),
		},
		errs: []error{&sensor.StatusError{Code: sensor.CodeCommError}, nil},
	}

	sink := &captureSink{}
	p := New(driver, selector.NewTopK(5, 50), sink, Options{
		DeviceID:       "device-1",
		PollInterval:   time.Millisecond,
		ReportInterval: time.Second,
	}, zap.NewNop())
	p.now = clock.now

	require.NoError(t, p.Run(ctx))

	// 诊断码只记录：第二次采样仍然进了窗口
	require.Len(t, sink.reports, 1)
	assert.Equal(t, 1, sink.reports[0].SampleCount)
	assert.InDelta(t, 75.0, sink.reports[0].AvgHeartRate, 1e-9)
	assert.Equal(t, 1, sink.reports[0].OfferedCount)
}

func TestPoller_EmptyWindowStillReports(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(0)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := &scriptedDriver{
		clock:    clock,
		step:     600 * time.Millisecond,
		cancel:   cancel,
		readings: []sensor.Reading{conf(10, 70), conf(20, 72)},
		errs:     []error{nil, nil},
	}

	sink := &captureSink{}
	p := New(driver, selector.NewTopK(5, 50), sink, Options{
		DeviceID:       "device-1",
		PollInterval:   time.Millisecond,
		ReportInterval: time.Second,
	}, zap.NewNop())
	p.now = clock.now

	require.NoError(t, p.Run(ctx))

	require.Len(t, sink.reports, 1)
	report := sink.reports[0]
	assert.Equal(t, 0, report.SampleCount)
	assert.Equal(t, 2, report.OfferedCount)
	assert.Equal(t, 2, report.RejectedCount)
	assert.Zero(t, report.AvgHeartRate)
}
