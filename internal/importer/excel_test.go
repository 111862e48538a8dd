package importer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seatrack/cargo-backend/internal/cargo"
	"github.com/seatrack/cargo-backend/internal/database"
)

func testImporter() *ItemImporter {
	return NewItemImporter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func workbookBytes(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, header))
	}
	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseWorkbook(t *testing.T) {
	t.Run("Valid Rows Parsed", func(t *testing.T) {
		buf := workbookBytes(t, [][]interface{}{
			{"TRK-001", "MSKU1234567", "cust-1", "Phone cases", 10, 2.5, 0.1, 4.0, 40.0, "pending"},
			{"TRK-002", "MSKU1234567", "cust-2", "Shoes", 3, 1.2, 0.05, 20.0, 60.0, "in_transit"},
		})

		items, rowErrors, err := testImporter().ParseWorkbook(buf)
		require.NoError(t, err)
		assert.Empty(t, rowErrors)
		require.Len(t, items, 2)

		first := items[0]
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, "TRK-001", first.TrackingID)
		assert.Equal(t, "MSKU1234567", first.ContainerID)
		assert.Equal(t, "cust-1", first.ClientID)
		assert.Equal(t, 10, first.Quantity)
		assert.Equal(t, 40.0, first.TotalValue)
		assert.Equal(t, cargo.ItemStatusPending, first.Status)
	})

	t.Run("Missing Status Defaults To Pending", func(t *testing.T) {
		buf := workbookBytes(t, [][]interface{}{
			{"TRK-001", "MSKU1234567", "cust-1", "Phone cases", 10, 2.5, 0.1, 4.0, 40.0},
		})

		items, rowErrors, err := testImporter().ParseWorkbook(buf)
		require.NoError(t, err)
		require.Empty(t, rowErrors)
		require.Len(t, items, 1)
		assert.Equal(t, cargo.ItemStatusPending, items[0].Status)
	})

	t.Run("Missing Total Derived From Quantity And Unit", func(t *testing.T) {
		buf := workbookBytes(t, [][]interface{}{
			{"TRK-001", "MSKU1234567", "cust-1", "Phone cases", 10, 2.5, 0.1, 4.0},
		})

		items, _, err := testImporter().ParseWorkbook(buf)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 40.0, items[0].TotalValue)
	})

	t.Run("Bad Rows Rejected Individually", func(t *testing.T) {
		buf := workbookBytes(t, [][]interface{}{
			{"TRK-001", "MSKU1234567", "cust-1", "Phone cases", 10, 2.5, 0.1, 4.0, 40.0, "pending"},
			{"", "MSKU1234567", "cust-1", "No tracking id", 1, 1.0, 0.1, 1.0},
			{"TRK-003", "MSKU1234567", "cust-1", "Bad quantity", "many", 1.0, 0.1, 1.0},
			{"TRK-004", "MSKU1234567", "cust-1", "Bad status", 1, 1.0, 0.1, 1.0, 1.0, "demurrage"},
		})

		items, rowErrors, err := testImporter().ParseWorkbook(buf)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		require.Len(t, rowErrors, 3)

		// Row numbers match the spreadsheet UI, header is row 1.
		assert.Equal(t, 3, rowErrors[0].Row)
		assert.Contains(t, rowErrors[0].Message, "tracking_id")
		assert.Equal(t, 4, rowErrors[1].Row)
		assert.Contains(t, rowErrors[1].Message, "quantity")
		assert.Equal(t, 5, rowErrors[2].Row)
		assert.Contains(t, rowErrors[2].Message, "status")
	})

	t.Run("Header Only Sheet Fails", func(t *testing.T) {
		buf := workbookBytes(t, nil)
		_, _, err := testImporter().ParseWorkbook(buf)
		assert.Error(t, err)
	})

	t.Run("Garbage Stream Fails", func(t *testing.T) {
		_, _, err := testImporter().ParseWorkbook(bytes.NewReader([]byte("not a workbook")))
		assert.Error(t, err)
	})
}

func TestBuildWorkbookRoundTrip(t *testing.T) {
	original := []*database.CargoItem{
		{
			ID: "item-1", ContainerID: "MSKU1234567", ClientID: "cust-1",
			TrackingID: "TRK-001", ItemDescription: "Phone cases",
			Quantity: 10, Weight: 2.5, CBM: 0.1, UnitValue: 4, TotalValue: 40,
			Status: cargo.ItemStatusPending,
		},
		{
			ID: "item-2", ContainerID: "MSKU1234567", ClientID: "cust-2",
			TrackingID: "TRK-002", ItemDescription: "Shoes",
			Quantity: 3, Weight: 1.2, CBM: 0.05, UnitValue: 20, TotalValue: 60,
			Status: cargo.ItemStatusInTransit,
		},
	}

	f, err := BuildWorkbook(original)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	parsed, rowErrors, err := testImporter().ParseWorkbook(&buf)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, parsed, len(original))

	for i, item := range parsed {
		assert.Equal(t, original[i].TrackingID, item.TrackingID)
		assert.Equal(t, original[i].ContainerID, item.ContainerID)
		assert.Equal(t, original[i].ClientID, item.ClientID)
		assert.Equal(t, original[i].Quantity, item.Quantity)
		assert.Equal(t, original[i].TotalValue, item.TotalValue)
		assert.Equal(t, original[i].Status, item.Status)
	}
}
