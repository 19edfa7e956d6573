package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gopower/adapters/postgres"
	"gopower/adapters/regression"
	"gopower/adapters/report"
	"gopower/adapters/rng"
	"gopower/app"
	"gopower/domain/core"
	"gopower/domain/design"
	"gopower/domain/model"
	"gopower/domain/power"
	"gopower/internal/config"
	"gopower/internal/logging"
	"gopower/ports"
)

const codeVersion = "v0.2.0"

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gopower",
		Short: "Monte Carlo power estimation for factorial study designs",
	}

	rootCmd.AddCommand(
		newSweepCmd(),
		newFitCmd(),
		newRunsCmd(),
		newRequiredCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSweepCmd() *cobra.Command {
	var (
		designPath  string
		minN        int
		maxN        int
		step        int
		reps        int
		interaction bool
		mixed       bool
		covariates  []string
		betweenTerm string
		withinTerm  string
		thresholds  []float64
		excelPath   string
		mdPath      string
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the replication grid and estimate required sample sizes",
		Long: `Run generation + fitting across the sample-size grid and report the
empirical power curve, the interpolated curve, and the smallest sample size
reaching each target power threshold.

Example: gopower sweep --design design.json --min 10 --max 200 --step 10 --reps 500 --threshold 0.8 --threshold 0.9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.NewLogger(cfg.Logging.Level, os.Stderr)

			spec, err := loadDesign(designPath)
			if err != nil {
				return err
			}
			grid, err := design.NewArithmeticGrid(minN, maxN, step, reps)
			if err != nil {
				return err
			}

			selector := model.TermSelector{Kind: model.SelectBetweenMain, BetweenLevel: betweenTerm}
			if interaction {
				selector = model.TermSelector{Kind: model.SelectInteraction, BetweenLevel: betweenTerm, WithinLevel: withinTerm}
			}
			formula := model.Formula{
				Covariates:      covariates,
				Interaction:     interaction,
				RandomIntercept: mixed,
			}

			service := app.NewPowerService(
				app.NewGenerator(rng.NewSource()),
				regression.NewFitter(spec),
				log,
				cfg.Run.Workers,
				cfg.Run.FitTimeout,
				codeVersion,
			)

			// Ctrl-C aborts the grid but keeps committed outcomes.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := service.Run(ctx, app.RunRequest{
				Spec:       spec,
				Grid:       grid,
				Formula:    formula,
				Selector:   selector,
				Alpha:      cfg.Run.Alpha,
				Seed:       cfg.Run.Seed,
				Thresholds: thresholds,
			})
			if err != nil {
				return err
			}

			printCurve(result)

			rep := ports.Report{
				Manifest:     result.Manifest,
				Curve:        result.Curve,
				Interpolated: result.Interpolated,
				Required:     result.Required,
				Outcomes:     result.Outcomes,
			}
			if excelPath != "" {
				if err := report.NewExcelWriter().Write(rep, excelPath); err != nil {
					return err
				}
				log.Info("excel report written", "path", excelPath)
			}
			if mdPath != "" {
				if err := report.NewMarkdownWriter(true).Write(rep, mdPath); err != nil {
					return err
				}
				log.Info("markdown report written", "path", mdPath)
			}
			if save {
				if !cfg.HasDatabase() {
					return fmt.Errorf("--save requires GOPOWER_DATABASE_URL")
				}
				store, err := postgres.NewRunRepository(cfg.Database.URL)
				if err != nil {
					return err
				}
				if err := store.SaveRun(cmd.Context(), result.Manifest, result.Outcomes, result.Curve); err != nil {
					return err
				}
				log.Info("run saved", "run_id", result.Manifest.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&designPath, "design", "", "path to the study design JSON (required)")
	cmd.Flags().IntVar(&minN, "min", 10, "smallest per-cell sample size")
	cmd.Flags().IntVar(&maxN, "max", 200, "largest per-cell sample size")
	cmd.Flags().IntVar(&step, "step", 10, "sample size increment")
	cmd.Flags().IntVar(&reps, "reps", 500, "replications per sample size")
	cmd.Flags().BoolVar(&interaction, "interaction", false, "test the between × within interaction term")
	cmd.Flags().BoolVar(&mixed, "mixed", false, "fit a per-subject random intercept instead of OLS")
	cmd.Flags().StringSliceVar(&covariates, "covariate", nil, "covariate column to include in the model")
	cmd.Flags().StringVar(&betweenTerm, "between-level", "", "between level of the term of interest (defaults to the single non-reference level)")
	cmd.Flags().StringVar(&withinTerm, "within-level", "", "within level of the interaction term of interest")
	cmd.Flags().Float64SliceVar(&thresholds, "threshold", []float64{0.8, 0.9}, "target power thresholds")
	cmd.Flags().StringVar(&excelPath, "excel", "", "write an Excel report to this path")
	cmd.Flags().StringVar(&mdPath, "markdown", "", "write a Markdown (+HTML) report to this path")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to the configured database")
	cmd.MarkFlagRequired("design")
	return cmd
}

func newFitCmd() *cobra.Command {
	var (
		designPath string
		n          int
		mixed      bool
		covariates []string
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Generate one dataset and print the fitted coefficient table",
		Long: `Simulate a single dataset at the given per-cell sample size and fit the
model once. Useful as a dry run before a long sweep: it shows the exact term
names the sweep will select from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			spec, err := loadDesign(designPath)
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}

			gen := app.NewGenerator(rng.NewSource())
			data, err := gen.Generate(spec, n, "fit", cfg.Run.Seed)
			if err != nil {
				return err
			}
			formula := model.Formula{
				Covariates:      covariates,
				Interaction:     spec.Within != nil,
				RandomIntercept: mixed,
			}
			table, err := regression.NewFitter(spec).Fit(cmd.Context(), data, formula)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TERM\tESTIMATE\tSTD ERROR\tSTATISTIC\tP VALUE")
			for _, row := range table.Rows {
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.3f\t%.4g\n", row.Term, row.Estimate, row.StdError, row.Statistic, row.PValue)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&designPath, "design", "", "path to the study design JSON (required)")
	cmd.Flags().IntVar(&n, "n", 100, "per-cell sample size")
	cmd.Flags().BoolVar(&mixed, "mixed", false, "fit a per-subject random intercept instead of OLS")
	cmd.Flags().StringSliceVar(&covariates, "covariate", nil, "covariate column to include in the model")
	cmd.MarkFlagRequired("design")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted power runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("runs requires GOPOWER_DATABASE_URL")
			}
			store, err := postgres.NewRunRepository(cfg.Database.URL)
			if err != nil {
				return err
			}
			manifests, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tTERM\tSEED\tREPLICATIONS\tFAILED\tCREATED")
			for _, m := range manifests {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
					m.RunID, m.Term, m.Seed, m.TotalReplications, m.FailedFits, m.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func newRequiredCmd() *cobra.Command {
	var (
		runID      string
		thresholds []float64
	)

	cmd := &cobra.Command{
		Use:   "required",
		Short: "Re-evaluate power thresholds against a persisted run's curve",
		Long: `Load a stored run, re-interpolate its empirical power curve and report the
smallest sample size reaching each target threshold. Lets thresholds be
revisited without re-simulating.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("required requires GOPOWER_DATABASE_URL")
			}
			id, err := core.ParseRunID(runID)
			if err != nil {
				return err
			}
			store, err := postgres.NewRunRepository(cfg.Database.URL)
			if err != nil {
				return err
			}
			manifest, err := store.GetManifest(cmd.Context(), id)
			if err != nil {
				return err
			}
			curve, err := store.GetCurve(cmd.Context(), id)
			if err != nil {
				return err
			}

			knots := curve.Known()
			if len(knots) < 2 {
				return fmt.Errorf("run %s has %d usable curve points, need at least 2", id, len(knots))
			}
			ic, err := power.Interpolate(curve, knots[0].SampleSize, knots[len(knots)-1].SampleSize)
			if err != nil {
				return err
			}

			fmt.Printf("run %s (term %s, alpha %.3g, seed %d)\n", manifest.RunID, manifest.Term, manifest.Alpha, manifest.Seed)
			for _, threshold := range thresholds {
				n, err := power.RequiredSampleSize(ic, threshold)
				switch {
				case err == nil:
					fmt.Printf("power %.0f%%: n >= %d per cell\n", threshold*100, n)
				case errors.Is(err, core.ErrThresholdNotReached):
					fmt.Printf("power %.0f%%: not reached within [%d, %d]\n", threshold*100, ic.MinN, ic.MaxN)
				default:
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run ID to load (required)")
	cmd.Flags().Float64SliceVar(&thresholds, "threshold", []float64{0.8, 0.9}, "target power thresholds")
	cmd.MarkFlagRequired("run")
	return cmd
}

func loadDesign(path string) (design.Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return design.Spec{}, fmt.Errorf("failed to read design file: %w", err)
	}
	var spec design.Spec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return design.Spec{}, fmt.Errorf("failed to parse design file: %w", err)
	}
	return spec, nil
}

func printCurve(result *app.RunResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "N PER CELL\tPOWER\tSIGNIFICANT\tFITTED\tFAILED")
	for _, p := range result.Curve.Points {
		powerCol := "NA"
		if !math.IsNaN(p.Power) {
			powerCol = fmt.Sprintf("%.3f", p.Power)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n", p.SampleSize, powerCol, p.Significant, p.Fitted, p.Failed)
	}
	w.Flush()

	for _, r := range result.Required {
		if r.Found {
			fmt.Printf("power %.0f%%: n >= %d per cell\n", r.Threshold*100, r.SampleSize)
		} else {
			fmt.Printf("power %.0f%%: not reached within the grid\n", r.Threshold*100)
		}
	}
}
