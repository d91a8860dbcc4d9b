package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/eadtool/internal/compliance"
)

const sheetName = "Compliance"

func xlsxHeader() []any {
	header := []any{
		"File", "SHA-256", "Error", "Root Element", "EAD Header", "Archival Description",
		"Description Level", "Collection Title", "Series Count", "Total Components",
	}
	for _, field := range compliance.RequiredFields {
		header = append(header, field)
	}
	return header
}

func xlsxRow(e compliance.FileReport) []any {
	r := e.Report
	if r.Error != "" {
		return []any{e.Source, e.Checksum, r.Error}
	}
	row := []any{
		e.Source, e.Checksum, "", r.RootElement, r.HasEADHeader, r.HasArchdesc,
		r.ArchdescLevel, r.CollectionTitle, r.SeriesCount, r.TotalComponents,
	}
	for _, field := range compliance.RequiredFields {
		row = append(row, r.RequiredElements[field])
	}
	return row
}

// WriteXLSX writes one spreadsheet row per analyzed file.
func WriteXLSX(w io.Writer, entries []compliance.FileReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := xlsxHeader()
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(e)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
