// Package excel reads fleet repair histories from Excel and CSV files.
package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gorelia/domain/core"
	"gorelia/domain/recurrence"
)

// FleetReader handles reading fleet data from Excel and CSV files. Each
// row holds a system label followed by its event times, the last time
// being the retirement (censoring) age.
type FleetReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewFleetReader creates a reader that handles both Excel and CSV files
func NewFleetReader(filePath string) *FleetReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &FleetReader{filePath: filePath, fileType: fileType}
}

// Read loads the fleet histories from the configured file
func (r *FleetReader) Read() ([]recurrence.RepairHistory, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	default:
		return r.readExcel()
	}
}

func (r *FleetReader) readExcel() ([]recurrence.RepairHistory, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	return ParseRows(rows)
}

func (r *FleetReader) readCSV() ([]recurrence.RepairHistory, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // histories are ragged
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return ParseRows(rows)
}

// ParseRows converts raw string rows into repair histories. The first
// cell of each row is the system label, the rest its event times; blank
// rows and trailing blank cells are skipped. A leading "system"/"unit"
// header row is ignored.
func ParseRows(rows [][]string) ([]recurrence.RepairHistory, error) {
	var fleet []recurrence.RepairHistory
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		label := strings.TrimSpace(row[0])
		if i == 0 && isHeaderLabel(label) {
			continue
		}

		var times []float64
		for _, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			t, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, core.NewInvalidInputError(label, fmt.Sprintf("row %d: cannot parse %q as a time", i+1, cell))
			}
			if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
				return nil, core.NewInvalidInputError(label, fmt.Sprintf("row %d: times must be non-negative and finite", i+1))
			}
			times = append(times, t)
		}
		if len(times) == 0 {
			return nil, core.NewInvalidInputError(label, fmt.Sprintf("row %d: no event times", i+1))
		}

		fleet = append(fleet, recurrence.RepairHistory{System: label, Times: times})
	}

	if len(fleet) == 0 {
		return nil, core.NewInvalidInputError("file", "no fleet histories found")
	}
	return fleet, nil
}

func isHeaderLabel(label string) bool {
	switch strings.ToLower(label) {
	case "system", "unit", "id", "label":
		return true
	}
	return false
}
