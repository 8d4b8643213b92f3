package excel

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"gomatch/domain/balance"
	"gomatch/domain/match"
)

// Writer exports a match result to an Excel workbook: one sheet with
// the matched dataset, one with the balance table.
type Writer struct {
	path string
}

// NewWriter creates an Excel result writer
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write renders the result and saves the workbook
func (w *Writer) Write(ds *match.Dataset, result *match.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeMatchedSheet(f, ds, result); err != nil {
		return err
	}
	if result.Balance != nil {
		if err := w.writeBalanceSheet(f, result.Balance); err != nil {
			return err
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (w *Writer) writeMatchedSheet(f *excelize.File, ds *match.Dataset, result *match.Result) error {
	sheet := "Matched"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []interface{}{"id", "group", "weight", "strata", "score"}
	for _, key := range ds.Covariates {
		headers = append(headers, string(key))
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	for i, row := range result.MatchedRows(ds, false) {
		strata := make([]string, len(row.Strata))
		for j, s := range row.Strata {
			strata[j] = fmt.Sprintf("%d", s)
		}
		cells := []interface{}{
			string(row.Unit.ID),
			string(row.Unit.Group),
			row.Weight,
			strings.Join(strata, ";"),
		}
		if row.HasScore {
			cells = append(cells, row.Score)
		} else {
			cells = append(cells, "")
		}
		for _, key := range ds.Covariates {
			cells = append(cells, row.Unit.Covariates[key])
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBalanceSheet(f *excelize.File, table *balance.Table) error {
	sheet := "Balance"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []interface{}{
		"term", "smd_before", "smd_after", "var_ratio_before", "var_ratio_after",
		"ecdf_max_before", "ecdf_max_after", "smd_improvement",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	for i, row := range table.Terms {
		cells := []interface{}{
			string(row.Term),
			row.SMDBefore, row.SMDAfter,
			nanBlank(row.VarRatioBefore), nanBlank(row.VarRatioAfter),
			row.ECDFMaxBefore, row.ECDFMaxAfter,
			nanBlank(row.SMDImprovement),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return err
		}
	}
	return nil
}

// nanBlank maps undefined statistics to empty cells
func nanBlank(v float64) interface{} {
	if math.IsNaN(v) {
		return ""
	}
	return v
}
