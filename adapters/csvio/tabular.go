package csvio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gomatch/domain/core"
	"gomatch/domain/match"
)

// Options names the special columns of a tabular dataset. Every other
// column becomes a covariate.
type Options struct {
	IDColumn        string
	TreatmentColumn string
	OutcomeColumn   string
}

// DefaultOptions returns the conventional column names
func DefaultOptions() Options {
	return Options{
		IDColumn:        "id",
		TreatmentColumn: "treatment",
		OutcomeColumn:   "outcome",
	}
}

// BuildDataset converts a header row plus string data rows into a
// validated dataset. Covariate columns that are not fully numeric are
// level-coded: distinct values sorted lexicographically map to 0..k-1.
func BuildDataset(headers []string, rows [][]string, opts Options) (*match.Dataset, error) {
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	idCol := findColumn(headers, opts.IDColumn)
	treatCol := findColumn(headers, opts.TreatmentColumn)
	outcomeCol := findColumn(headers, opts.OutcomeColumn)
	if treatCol < 0 {
		return nil, fmt.Errorf("%w: treatment column %q not found", core.ErrMalformedDataset, opts.TreatmentColumn)
	}

	var covariateCols []int
	var covariates []core.CovariateKey
	for i, h := range headers {
		if i == idCol || i == treatCol || i == outcomeCol || h == "" {
			continue
		}
		covariateCols = append(covariateCols, i)
		covariates = append(covariates, core.CovariateKey(h))
	}

	levels := codeLevels(rows, covariateCols)

	units := make([]match.Unit, 0, len(rows))
	for r, row := range rows {
		group, err := parseGroup(cell(row, treatCol))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", core.ErrMalformedDataset, r+1, err)
		}

		id := core.UnitID(cell(row, idCol))
		if idCol < 0 || id == "" {
			id = core.UnitID(strconv.Itoa(r + 1))
		}

		covs := make(map[core.CovariateKey]float64, len(covariateCols))
		for j, c := range covariateCols {
			raw := cell(row, c)
			var v float64
			if coded, ok := levels[c]; ok {
				v = coded[raw]
			} else {
				v, err = strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d column %s: %v", core.ErrMalformedDataset, r+1, headers[c], err)
				}
			}
			covs[covariates[j]] = v
		}

		u := match.Unit{ID: id, Group: group, Covariates: covs}
		if outcomeCol >= 0 {
			raw := cell(row, outcomeCol)
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				u.Outcome = f
			} else if raw != "" {
				u.Outcome = raw
			}
		}
		units = append(units, u)
	}

	return match.NewDataset(units, covariates)
}

// codeLevels finds covariate columns with non-numeric entries and
// assigns each distinct value a numeric code
func codeLevels(rows [][]string, cols []int) map[int]map[string]float64 {
	levels := make(map[int]map[string]float64)
	for _, c := range cols {
		numeric := true
		for _, row := range rows {
			raw := cell(row, c)
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric {
			continue
		}

		seen := make(map[string]struct{})
		for _, row := range rows {
			seen[cell(row, c)] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)

		coded := make(map[string]float64, len(values))
		for i, v := range values {
			coded[v] = float64(i)
		}
		levels[c] = coded
	}
	return levels
}

func parseGroup(raw string) (match.Group, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "treated":
		return match.GroupTreated, nil
	case "0", "false", "f", "no", "control":
		return match.GroupControl, nil
	}
	return "", fmt.Errorf("unrecognized treatment value %q", raw)
}

func findColumn(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
