// Package importer parses and produces the cargo-item spreadsheets the
// back office exchanges with operators.
package importer

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/seatrack/cargo-backend/internal/cargo"
	"github.com/seatrack/cargo-backend/internal/database"
)

// Expected column order of an import sheet. The first row is a header
// and is skipped.
var columns = []string{
	"tracking_id",
	"container",
	"client",
	"item_description",
	"quantity",
	"weight",
	"cbm",
	"unit_value",
	"total_value",
	"status",
}

// RowError describes a rejected spreadsheet row. Row numbers are
// 1-based as shown in the spreadsheet UI.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ItemImporter parses cargo-item workbooks
type ItemImporter struct {
	logger *slog.Logger
}

// NewItemImporter creates a new item importer
func NewItemImporter(logger *slog.Logger) *ItemImporter {
	return &ItemImporter{logger: logger}
}

// ParseWorkbook reads an xlsx stream and returns the valid items plus
// per-row errors for the rejects. A workbook that cannot be opened at
// all returns an error; individually bad rows do not.
func (i *ItemImporter) ParseWorkbook(r io.Reader) ([]*database.CargoItem, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("sheet %q has no data rows", sheets[0])
	}

	var items []*database.CargoItem
	var rowErrors []RowError
	for idx, row := range rows[1:] {
		rowNum := idx + 2
		item, err := parseRow(row)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		items = append(items, item)
	}

	i.logger.Info("Workbook parsed",
		"sheet", sheets[0],
		"accepted", len(items),
		"rejected", len(rowErrors))

	return items, rowErrors, nil
}

func parseRow(row []string) (*database.CargoItem, error) {
	cell := func(n int) string {
		if n < len(row) {
			return strings.TrimSpace(row[n])
		}
		return ""
	}

	trackingID := cell(0)
	if trackingID == "" {
		return nil, fmt.Errorf("tracking_id is required")
	}
	containerID := cell(1)
	if containerID == "" {
		return nil, fmt.Errorf("container is required")
	}
	clientID := cell(2)
	if clientID == "" {
		return nil, fmt.Errorf("client is required")
	}

	quantity, err := strconv.Atoi(cell(4))
	if err != nil || quantity <= 0 {
		return nil, fmt.Errorf("quantity %q is not a positive integer", cell(4))
	}

	weight, err := parseFloatCell(cell(5), "weight")
	if err != nil {
		return nil, err
	}
	cbm, err := parseFloatCell(cell(6), "cbm")
	if err != nil {
		return nil, err
	}
	unitValue, err := parseFloatCell(cell(7), "unit_value")
	if err != nil {
		return nil, err
	}

	totalValue := float64(quantity) * unitValue
	if cell(8) != "" {
		totalValue, err = parseFloatCell(cell(8), "total_value")
		if err != nil {
			return nil, err
		}
	}

	status := cell(9)
	if status == "" {
		status = cargo.ItemStatusPending
	}
	if !cargo.ValidItemStatus(status) {
		return nil, fmt.Errorf("status %q is not a valid item status", status)
	}

	return &database.CargoItem{
		ID:              uuid.New().String(),
		ContainerID:     containerID,
		ClientID:        clientID,
		TrackingID:      trackingID,
		ItemDescription: cell(3),
		Quantity:        quantity,
		Weight:          weight,
		CBM:             cbm,
		UnitValue:       unitValue,
		TotalValue:      totalValue,
		Status:          status,
	}, nil
}

func parseFloatCell(value, name string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("%s %q is not a non-negative number", name, value)
	}
	return parsed, nil
}

// BuildWorkbook renders cargo items into an xlsx workbook for export.
func BuildWorkbook(items []*database.CargoItem) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, item := range items {
		values := []interface{}{
			item.TrackingID,
			item.ContainerID,
			item.ClientID,
			item.ItemDescription,
			item.Quantity,
			item.Weight,
			item.CBM,
			item.UnitValue,
			item.TotalValue,
			item.Status,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
			}
		}
	}

	return f, nil
}
