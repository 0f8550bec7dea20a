package export

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/gymscout/leads-cli/internal/model"
)

// WriteCSV writes leads to path as UTF-8 CSV with one header row, creating
// parent directories as needed.
func WriteCSV(leads []model.Lead, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "csv export: create output dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv export: create file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(leadColumns); err != nil {
		return eris.Wrap(err, "csv export: write header")
	}

	for _, l := range leads {
		if err := w.Write(leadRow(l)); err != nil {
			return eris.Wrap(err, "csv export: write row")
		}
	}

	return nil
}
