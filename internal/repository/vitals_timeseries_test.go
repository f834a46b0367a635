package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/repository"
)

var reportColumns = []string{
	"id", "report_id", "tenant_id", "device_id", "device_type",
	"window_start", "window_end",
	"avg_heart_rate", "avg_spo2", "avg_confidence",
	"sample_count", "offered_count", "rejected_count",
	"raw_report", "created_at",
}

func newRepo(t *testing.T) (*repository.VitalsTimeSeriesRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return repository.NewVitalsTimeSeriesRepository(db, zap.NewNop()), mock, db
}

func TestVitalsTimeSeries_Insert(t *testing.T) {
	repo, mock, db := newRepo(t)
	defer db.Close()

	report := &models.VitalReport{
		ReportID:      "report-1",
		TenantID:      "tenant-1",
		DeviceID:      "device-1",
		DeviceType:    "BioHub",
		WindowStart:   1_700_000_000_000,
		WindowEnd:     1_700_000_001_000,
		AvgHeartRate:  72.4,
		AvgSpO2:       97.1,
		AvgConfidence: 88.2,
		SampleCount:   5,
		OfferedCount:  10,
		RejectedCount: 2,
	}

	mock.ExpectExec(`INSERT INTO vitals_timeseries`).
		WithArgs(
			"report-1", "tenant-1", "device-1", "BioHub",
			time.UnixMilli(1_700_000_000_000), time.UnixMilli(1_700_000_001_000),
			72.4, 97.1, 88.2,
			5, 10, 2,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Insert(context.Background(), report))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVitalsTimeSeries_QueryRange(t *testing.T) {
	repo, mock, db := newRepo(t)
	defer db.Close()

	from := time.Unix(1_700_000_000, 0)
	to := from.Add(time.Hour)
	now := time.Now()

	mock.ExpectQuery(`FROM vitals_timeseries`).
		WithArgs("device-1", from, to).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(
				1, "report-1", "tenant-1", "device-1", "BioHub",
				from, from.Add(time.Second),
				71.0, 96.5, 85.0,
				5, 9, 1,
				[]byte(`{"report_id":"report-1"}`), now,
			).
			AddRow(
				2, "report-2", "tenant-1", "device-1", "BioHub",
				from.Add(time.Second), from.Add(2*time.Second),
				72.0, 96.8, 90.0,
				4, 10, 3,
				[]byte(`{"report_id":"report-2"}`), now,
			))

	rows, err := repo.QueryRange(context.Background(), "device-1", from, to)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "report-1", rows[0].ReportID)
	assert.InDelta(t, 71.0, rows[0].AvgHeartRate, 1e-9)
	assert.Equal(t, 5, rows[0].SampleCount)
	assert.Equal(t, "report-2", rows[1].ReportID)
	assert.Equal(t, 3, rows[1].RejectedCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVitalsTimeSeries_GetLatest(t *testing.T) {
	repo, mock, db := newRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM vitals_timeseries`).
		WithArgs("device-1").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(
				7, "report-7", "tenant-1", "device-1", "BioHub",
				now.Add(-time.Second), now,
				70.2, 97.0, 92.0,
				5, 8, 0,
				[]byte(`{}`), now,
			))

	row, err := repo.GetLatest(context.Background(), "device-1")
	require.NoError(t, err)
	assert.Equal(t, "report-7", row.ReportID)
	assert.InDelta(t, 92.0, row.AvgConfidence, 1e-9)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVitalsTimeSeries_GetLatestNoRows(t *testing.T) {
	repo, mock, db := newRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM vitals_timeseries`).
		WithArgs("device-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLatest(context.Background(), "device-x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vitals report for device")
}
