package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-vitals/internal/models"
)

// VitalsTimeSeriesRepository vitals_timeseries 时序数据仓库
//
// 每个上报窗口落一行：窗口边界、平均值、采样计数，原始报告存 JSONB
// 以便下游回溯入选采样。
type VitalsTimeSeriesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// ReportRow vitals_timeseries 表的一行
type ReportRow struct {
	ID            int64
	ReportID      string
	TenantID      string
	DeviceID      string
	DeviceType    string
	WindowStart   time.Time
	WindowEnd     time.Time
	AvgHeartRate  float64
	AvgSpO2       float64
	AvgConfidence float64
	SampleCount   int
	OfferedCount  int
	RejectedCount int
	RawReport     json.RawMessage
	CreatedAt     time.Time
}

// NewVitalsTimeSeriesRepository 创建时序数据仓库
func NewVitalsTimeSeriesRepository(db *sql.DB, logger *zap.Logger) *VitalsTimeSeriesRepository {
	return &VitalsTimeSeriesRepository{
		db:     db,
		logger: logger,
	}
}

// Insert 写入一个上报窗口
func (r *VitalsTimeSeriesRepository) Insert(ctx context.Context, report *models.VitalReport) error {
	rawReport, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO vitals_timeseries (
			report_id, tenant_id, device_id, device_type,
			window_start, window_end,
			avg_heart_rate, avg_spo2, avg_confidence,
			sample_count, offered_count, rejected_count,
			raw_report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		report.ReportID,
		report.TenantID,
		report.DeviceID,
		report.DeviceType,
		time.UnixMilli(report.WindowStart),
		time.UnixMilli(report.WindowEnd),
		report.AvgHeartRate,
		report.AvgSpO2,
		report.AvgConfidence,
		report.SampleCount,
		report.OfferedCount,
		report.RejectedCount,
		rawReport,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vitals report: %w", err)
	}

	return nil
}

// QueryRange 查询某设备一段时间内的上报窗口（按窗口起点升序）
func (r *VitalsTimeSeriesRepository) QueryRange(ctx context.Context, deviceID string, from, to time.Time) ([]ReportRow, error) {
	query := `
		SELECT
			id, report_id, tenant_id, device_id, device_type,
			window_start, window_end,
			avg_heart_rate, avg_spo2, avg_confidence,
			sample_count, offered_count, rejected_count,
			raw_report, created_at
		FROM vitals_timeseries
		WHERE device_id = $1 AND window_start >= $2 AND window_start < $3
		ORDER BY window_start ASC
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query vitals range: %w", err)
	}
	defer rows.Close()

	var result []ReportRow
	for rows.Next() {
		row, err := scanReportRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vitals rows: %w", err)
	}

	return result, nil
}

// GetLatest 查询某设备最近一个上报窗口
func (r *VitalsTimeSeriesRepository) GetLatest(ctx context.Context, deviceID string) (*ReportRow, error) {
	query := `
		SELECT
			id, report_id, tenant_id, device_id, device_type,
			window_start, window_end,
			avg_heart_rate, avg_spo2, avg_confidence,
			sample_count, offered_count, rejected_count,
			raw_report, created_at
		FROM vitals_timeseries
		WHERE device_id = $1
		ORDER BY window_start DESC
		LIMIT 1
	`

	row, err := scanReportRow(r.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no vitals report for device: %s", deviceID)
		}
		return nil, err
	}

	return &row, nil
}

// scanner 兼容 *sql.Row 和 *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReportRow(s scanner) (ReportRow, error) {
	var row ReportRow
	err := s.Scan(
		&row.ID,
		&row.ReportID,
		&row.TenantID,
		&row.DeviceID,
		&row.DeviceType,
		&row.WindowStart,
		&row.WindowEnd,
		&row.AvgHeartRate,
		&row.AvgSpO2,
		&row.AvgConfidence,
		&row.SampleCount,
		&row.OfferedCount,
		&row.RejectedCount,
		&row.RawReport,
		&row.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return row, err
	}
	if err != nil {
		return row, fmt.Errorf("failed to scan vitals row: %w", err)
	}
	return row, nil
}
