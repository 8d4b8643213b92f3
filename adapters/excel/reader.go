package excel

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"gomatch/adapters/csvio"
	"gomatch/domain/match"
	"gomatch/ports"
)

// Reader loads a dataset from the first sheet of an Excel workbook
type Reader struct {
	path  string
	sheet string
	opts  csvio.Options
}

// NewReader creates an Excel dataset reader. An empty sheet name means
// the workbook's first sheet.
func NewReader(path, sheet string, opts csvio.Options) ports.DatasetReader {
	return &Reader{path: path, sheet: sheet, opts: opts}
}

// Read parses the sheet into a validated dataset
func (r *Reader) Read(ctx context.Context) (*match.Dataset, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("Excel file not found: %s", r.path)
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s must have a header row and at least one data row", sheet)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return csvio.BuildDataset(rows[0], rows[1:], r.opts)
}
