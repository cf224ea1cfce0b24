package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
)

// SheetName is the single worksheet written by EncodeXLSX.
const SheetName = "GC Content"

var xlsxHeader = []interface{}{
	"identifier", "length", "count_g", "count_c", "count_a", "count_t",
	"count_ambiguous", "gc_percent", "at_percent",
}

// EncodeXLSX serializes the table as a single-sheet XLSX workbook.
// Numeric columns are written as numbers; the header row is bold.
func EncodeXLSX(t *composition.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(SheetName, "A1", &xlsxHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", "I1", bold); err != nil {
		return nil, err
	}

	for i, s := range t.Rows {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			s.Identifier, s.Length, s.CountG, s.CountC, s.CountA, s.CountT,
			s.CountAmbiguous, s.GCPercent, s.ATPercent,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
