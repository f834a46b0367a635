package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"wisefido-vitals/common/database"
	"wisefido-vitals/common/logger"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/repository"
)

// VitalsExportHeader columns of the exported sheet
var VitalsExportHeader = []string{
	"Report ID",
	"Device ID",
	"Window Start",
	"Window End",
	"Avg Heart Rate (bpm)",
	"Avg SpO2 (%)",
	"Avg Confidence",
	"Sample Count",
	"Offered",
	"Rejected",
}

func main() {
	// Parse command line arguments
	var deviceID = flag.String("device", "", "Device ID to export (required)")
	var fromStr = flag.String("from", "", "Range start, RFC3339 (default: 24h ago)")
	var toStr = flag.String("to", "", "Range end, RFC3339 (default: now)")
	var output = flag.String("out", "vitals_export.xlsx", "Output xlsx file path")
	flag.Parse()

	if *deviceID == "" {
		log.Fatalf("Usage: export-vitals -device <device_id> [-from t] [-to t] [-out file.xlsx]")
	}

	to := time.Now()
	from := to.Add(-24 * time.Hour)
	var err error
	if *fromStr != "" {
		if from, err = time.Parse(time.RFC3339, *fromStr); err != nil {
			log.Fatalf("Invalid -from: %v", err)
		}
	}
	if *toStr != "" {
		if to, err = time.Parse(time.RFC3339, *toStr); err != nil {
			log.Fatalf("Invalid -to: %v", err)
		}
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLoggerWithDefaults()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewVitalsTimeSeriesRepository(db, zapLogger)
	rows, err := repo.QueryRange(context.Background(), *deviceID, from, to)
	if err != nil {
		log.Fatalf("Failed to query vitals: %v", err)
	}

	if err := writeWorkbook(*output, rows); err != nil {
		log.Fatalf("Failed to write workbook: %v", err)
	}

	fmt.Printf("Exported %d report windows to %s\n", len(rows), *output)
}

func writeWorkbook(path string, rows []repository.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Vitals"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, header := range VitalsExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.ReportID,
			row.DeviceID,
			row.WindowStart.Format(time.RFC3339),
			row.WindowEnd.Format(time.RFC3339),
			row.AvgHeartRate,
			row.AvgSpO2,
			row.AvgConfidence,
			row.SampleCount,
			row.OfferedCount,
			row.RejectedCount,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
