package planning

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetPurchasing = "Purchasing"
	sheetBotanicals = "Botanicals"
	sheetTimelines  = "Timelines"
)

var purchaseHeader = []string{"Item Name", "Category", "Shortage", "UOM"}

// WritePurchaseCSV writes the purchasing list as CSV.
func WritePurchaseCSV(w io.Writer, lines []PurchaseLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(purchaseHeader); err != nil {
		return err
	}
	for _, l := range lines {
		if err := cw.Write([]string{l.Name, l.Category, l.Shortage.String(), l.UOM}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BuildPurchaseWorkbook lays out a workbook with the full purchasing list, the
// botanicals-only order and, when timelines are given, one row per timeline entry.
func BuildPurchaseWorkbook(lines []PurchaseLine, timelines []StockTimeline) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetPurchasing); err != nil {
		return nil, err
	}
	if err := writePurchaseSheet(f, sheetPurchasing, lines); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(sheetBotanicals); err != nil {
		return nil, err
	}
	if err := writePurchaseSheet(f, sheetBotanicals, FilterCategory(lines, CategoryBotanicals)); err != nil {
		return nil, err
	}

	if len(timelines) > 0 {
		if _, err := f.NewSheet(sheetTimelines); err != nil {
			return nil, err
		}
		if err := writeTimelineSheet(f, timelines); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WritePurchaseXLSX renders BuildPurchaseWorkbook to w.
func WritePurchaseXLSX(w io.Writer, lines []PurchaseLine, timelines []StockTimeline) error {
	f, err := BuildPurchaseWorkbook(lines, timelines)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writePurchaseSheet(f *excelize.File, sheet string, lines []PurchaseLine) error {
	header := make([]interface{}, len(purchaseHeader))
	for i, h := range purchaseHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, l := range lines {
		row := []interface{}{l.Name, l.Category, l.Shortage.InexactFloat64(), l.UOM}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeTimelineSheet(f *excelize.File, timelines []StockTimeline) error {
	header := []interface{}{"Material", "Category", "UOM", "Batch", "Product", "Month", "Consumed", "Stock After", "Runs Out"}
	if err := f.SetSheetRow(sheetTimelines, "A1", &header); err != nil {
		return err
	}
	row := 2
	for _, t := range timelines {
		for _, e := range t.Entries {
			values := []interface{}{
				t.Material, t.Category, t.UOM, e.BatchIndex + 1, e.Product, e.Month,
				e.Consumed.InexactFloat64(), e.StockAfter.InexactFloat64(), e.RunsOut,
			}
			if err := f.SetSheetRow(sheetTimelines, fmt.Sprintf("A%d", row), &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}
