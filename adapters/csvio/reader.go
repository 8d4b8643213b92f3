package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"gomatch/domain/match"
	"gomatch/ports"
)

// Reader loads a dataset from a CSV file
type Reader struct {
	path string
	opts Options
}

// NewReader creates a CSV dataset reader
func NewReader(path string, opts Options) ports.DatasetReader {
	return &Reader{path: path, opts: opts}
}

// Read parses the file into a validated dataset
func (r *Reader) Read(ctx context.Context) (*match.Dataset, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have a header row and at least one data row")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildDataset(rows[0], rows[1:], r.opts)
}
