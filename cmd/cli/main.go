package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gomatch/adapters/csvio"
	"gomatch/adapters/excel"
	"gomatch/adapters/solvers"
	"gomatch/app"
	"gomatch/domain/balance"
	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/internal/config"
	"gomatch/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gomatch",
		Short: "Covariate matching and balance assessment for observational data",
	}

	rootCmd.AddCommand(
		newMatchCmd(),
		newBalanceCmd(),
		newMethodsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMatchCmd() *cobra.Command {
	var (
		method     string
		distKind   string
		link       string
		estimand   string
		ratio      int
		replace    bool
		caliper    float64
		caliperSD  bool
		order      string
		seed       int64
		exact      []string
		subclasses int
		bins       int
		covariates []string
		squares    []string
		sort       string
		output     string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "match [data-file]",
		Short: "Match treated to control units and report balance",
		Long: `Run the matching pipeline on a CSV or Excel dataset.

The file needs a binary treatment column; every other column (minus id
and outcome) is used as a covariate unless --covariates narrows the set.

Example: gomatch match lalonde.csv --method nearest --caliper 0.1 --caliper-sd --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := match.DefaultConfig()
			cfg.Method = match.Method(method)
			cfg.Distance = match.DistanceKind(distKind)
			cfg.Link = match.Link(link)
			cfg.Estimand = match.Estimand(strings.ToUpper(estimand))
			cfg.Ratio = ratio
			cfg.Replace = replace
			cfg.Order = match.OrderPolicy(order)
			cfg.Seed = seed
			cfg.Subclasses = subclasses
			if cmd.Flags().Changed("caliper") {
				cfg.Caliper = caliper
				cfg.CaliperSD = caliperSD
			}
			for _, key := range exact {
				cfg.Exact = append(cfg.Exact, core.CovariateKey(key))
			}

			result, ds, err := runMatch(cmd.Context(), args[0], covariates, squares, cfg, bins, balance.SortPolicy(sort))
			if err != nil {
				return err
			}

			if output != "" {
				if err := excel.NewWriter(output).Write(ds, result); err != nil {
					return err
				}
				fmt.Printf("Wrote matched dataset to %s\n", output)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(result)
			}
			printSummary(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "nearest", "Matching method: nearest|optimal-pair|optimal-full|exact|coarsened-exact|subclass|none")
	cmd.Flags().StringVar(&distKind, "distance", "propensity", "Distance: propensity|mahalanobis")
	cmd.Flags().StringVar(&link, "link", "logit", "Propensity link: logit|probit")
	cmd.Flags().StringVar(&estimand, "estimand", "att", "Target estimand: att|ate|atc")
	cmd.Flags().IntVar(&ratio, "ratio", 1, "Controls matched per treated unit")
	cmd.Flags().BoolVar(&replace, "replace", false, "Match with replacement")
	cmd.Flags().Float64Var(&caliper, "caliper", 0, "Maximum allowed distance for a pairing")
	cmd.Flags().BoolVar(&caliperSD, "caliper-sd", false, "Interpret caliper in score standard deviations")
	cmd.Flags().StringVar(&order, "order", "descending", "Nearest-neighbor processing order: descending|ascending|data|random")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().StringSliceVar(&exact, "exact", nil, "Covariates that must match exactly")
	cmd.Flags().IntVar(&subclasses, "subclasses", 6, "Number of subclasses for subclassification")
	cmd.Flags().IntVar(&bins, "bins", 0, "Bins per covariate for coarsened exact matching (0 = Sturges)")
	cmd.Flags().StringSliceVar(&covariates, "covariates", nil, "Covariate columns to use (default: all)")
	cmd.Flags().StringSliceVar(&squares, "squares", nil, "Covariates to also enter squared in the model")
	cmd.Flags().StringVar(&sort, "sort", "input", "Balance table order: input|smd-before|smd-after|alpha")
	cmd.Flags().StringVar(&output, "output", "", "Write matched dataset and balance table to an Excel file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the full result as JSON")

	return cmd
}

func newBalanceCmd() *cobra.Command {
	var covariates []string
	var sort string

	cmd := &cobra.Command{
		Use:   "balance [data-file]",
		Short: "Report pre-match balance without matching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := match.DefaultConfig()
			cfg.Method = match.MethodNone

			result, _, err := runMatch(cmd.Context(), args[0], covariates, nil, cfg, 0, balance.SortPolicy(sort))
			if err != nil {
				return err
			}
			printSummary(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&covariates, "covariates", nil, "Covariate columns to use (default: all)")
	cmd.Flags().StringVar(&sort, "sort", "smd-before", "Balance table order: input|smd-before|smd-after|alpha")

	return cmd
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List available matching methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range solvers.NewRegistry().Methods() {
				fmt.Println(m)
			}
			return nil
		},
	}
}

func runMatch(ctx context.Context, path string, covariates, squares []string, cfg match.Config, bins int, sort balance.SortPolicy) (*match.Result, *match.Dataset, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	opts := csvio.Options{
		IDColumn:        appConfig.Data.IDColumn,
		TreatmentColumn: appConfig.Data.TreatmentColumn,
		OutcomeColumn:   appConfig.Data.OutcomeColumn,
	}

	var reader ports.DatasetReader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		reader = excel.NewReader(path, "", opts)
	default:
		reader = csvio.NewReader(path, opts)
	}

	ds, err := reader.Read(ctx)
	if err != nil {
		return nil, nil, err
	}

	keys := ds.Covariates
	if len(covariates) > 0 {
		keys = nil
		for _, c := range covariates {
			keys = append(keys, core.CovariateKey(c))
		}
	}
	if bins > 0 {
		cfg.Bins = make(map[core.CovariateKey]int, len(keys))
		for _, key := range keys {
			cfg.Bins[key] = bins
		}
	}

	formula := match.NewFormula(keys...)
	if len(squares) > 0 {
		sq := make([]core.CovariateKey, len(squares))
		for i, s := range squares {
			sq[i] = core.CovariateKey(s)
		}
		formula = formula.WithSquares(sq...)
	}

	service := app.NewDefaultMatchService()
	result, err := service.Match(ctx, ds, formula, cfg)
	if err != nil {
		return nil, nil, err
	}

	if result.Balance != nil && sort != "" && sort != result.Balance.Sort {
		result.Balance = service.SortedBalance(result, sort)
	}
	return result, ds, nil
}

func printSummary(result *match.Result) {
	fmt.Printf("Method: %s   Distance: %s   Estimand: %s\n",
		result.Config.Method, result.Config.Distance, result.Config.Estimand)
	fmt.Printf("Treated: %d matched / %d all   Control: %d matched / %d all\n",
		result.Sizes.Treated.Matched, result.Sizes.Treated.All,
		result.Sizes.Control.Matched, result.Sizes.Control.All)
	if result.TotalDistance > 0 {
		fmt.Printf("Total matched distance: %.6f\n", result.TotalDistance)
	}
	fmt.Println()

	if result.Balance == nil {
		return
	}
	table := result.Balance

	fmt.Printf("%-20s %12s %12s %12s %12s %10s\n",
		"Term", "SMD Before", "SMD After", "eCDF Before", "eCDF After", "Improv %")
	for _, row := range table.Terms {
		fmt.Printf("%-20s %12.4f %12.4f %12.4f %12.4f %10s\n",
			row.Term, row.SMDBefore, row.SMDAfter,
			row.ECDFMaxBefore, row.ECDFMaxAfter, formatPct(row.SMDImprovement))
	}
	fmt.Printf("\nWorst SMD: %.4f -> %.4f (%s)\n",
		table.Aggregate.MaxSMDBefore, table.Aggregate.MaxSMDAfter, table.Aggregate.MaxSMDTerm)

	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s %s %s\n", warning.Code, warning.UnitID, warning.Detail)
	}
}

func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}
