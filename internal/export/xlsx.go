package export

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gymscout/leads-cli/internal/model"
)

// WriteXLSX writes leads to path as an XLSX workbook with a single "Leads"
// sheet in the same column order as the CSV sink. The header row is bold.
// Parent directories are created as needed.
func WriteXLSX(leads []model.Lead, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "xlsx export: create output dir")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "xlsx export: add sheet")
	}

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	headerStyle.ApplyFont = true

	header := sheet.AddRow()
	for _, col := range leadColumns {
		cell := header.AddCell()
		cell.Value = col
		cell.SetStyle(headerStyle)
	}

	for _, l := range leads {
		row := sheet.AddRow()
		for _, v := range leadRow(l) {
			row.AddCell().Value = v
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx export: save file")
	}
	return nil
}
