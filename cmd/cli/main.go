package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"catdist/adapters/excel"
	"catdist/adapters/postgres"
	"catdist/domain/chart"
	"catdist/internal"
	"catdist/internal/analysis/pipeline"
	"catdist/internal/analysis/scale"
	"catdist/internal/api"
	"catdist/internal/config"
	"catdist/internal/errors"
	"catdist/internal/report"
	"catdist/internal/settings"
	"catdist/internal/testkit"
	"catdist/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// sourceFlags select where rows come from and how the chart is configured.
type sourceFlags struct {
	file         string
	sheet        string
	columns      excel.Columns
	databaseURL  string
	table        string
	settings     string
	settingsFile string
	demo         bool
	seed         int64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "CSV or XLSX file with one row per observation")
	cmd.Flags().StringVar(&f.sheet, "sheet", "Sheet1", "Worksheet to read from XLSX files")
	cmd.Flags().StringVar(&f.columns.Value, "value", "", "Value column (detected when empty)")
	cmd.Flags().StringVar(&f.columns.Category, "category", "category", "Category column")
	cmd.Flags().StringVar(&f.columns.Trellis, "trellis", "", "Trellis panel column")
	cmd.Flags().StringVar(&f.columns.Marked, "marked", "", "Marking column (1/true/yes)")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Read rows from postgres instead of a file")
	cmd.Flags().StringVar(&f.table, "table", "chart_rows", "Postgres table holding the rows")
	cmd.Flags().StringVar(&f.settings, "settings", "", "Chart settings as JSON")
	cmd.Flags().StringVar(&f.settingsFile, "settings-file", "", "File holding chart settings as JSON")
	cmd.Flags().BoolVar(&f.demo, "demo", false, "Use generated demo rows")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for demo rows")
}

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("no .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:          "catdist",
		Short:        "Box, violin and comparison-circle statistics for categorical charts",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSummarizeCmd(),
		newDensityCmd(),
		newCompareCmd(),
		newTicksCmd(),
		newReportCmd(),
		newServeCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", errors.GetCode(errors.FromDomain(err)), err)
		os.Exit(1)
	}
}

// compute loads rows and runs the whole pipeline.
func compute(ctx context.Context, f *sourceFlags) (*pipeline.Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	serialized := f.settings
	if f.settingsFile != "" {
		raw, err := os.ReadFile(f.settingsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", f.settingsFile)
		}
		serialized = string(raw)
	}
	st, err := settings.Parse(serialized, settings.Defaults(cfg.Chart))
	if err != nil {
		return nil, err
	}

	rows, live, err := loadRows(ctx, f)
	if err != nil {
		return nil, err
	}

	return pipeline.NewEngine(cfg.Limits).Compute(ctx, pipeline.Request{
		Rows:     rows,
		Settings: st,
		Live:     live,
	})
}

func loadRows(ctx context.Context, f *sourceFlags) ([]chart.Row, ports.Liveness, error) {
	switch {
	case f.demo:
		cfg := testkit.DefaultChartConfig()
		cfg.Seed = f.seed
		return testkit.NewChartDataGenerator(cfg).GenerateRows(), nil, nil
	case f.file != "":
		reader := excel.NewDataReader(f.file, f.columns).WithSheet(f.sheet)
		var source ports.RowSource = reader
		rows, err := source.LoadRows(ctx)
		return rows, reader, err
	case f.databaseURL != "":
		db, err := postgres.Connect(f.databaseURL)
		if err != nil {
			return nil, nil, errors.DatabaseError("connecting", err)
		}
		defer db.Close()
		var source ports.RowSource = postgres.NewRowRepository(db, f.table)
		rows, err := source.LoadRows(ctx)
		if err != nil {
			return nil, nil, errors.DatabaseError("loading rows", err)
		}
		return rows, nil, nil
	}
	return nil, nil, errors.InvalidInput("one of --file, --database-url or --demo is required")
}

func newSummarizeCmd() *cobra.Command {
	var f sourceFlags
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print per-category summary statistics",
		Long: `Compute count, moments, quartiles, fences, adjacent values and outlier
counts per category.

Example: catdist summarize --file data.csv --category group --value weight`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compute(cmd.Context(), &f)
			if err != nil {
				return err
			}
			for _, s := range res.Summaries {
				fmt.Printf("%s\n", s.Category)
				for _, m := range res.Metrics.Metrics() {
					v, _ := s.Value(m)
					fmt.Printf("  %-13s %s\n", m, formatValue(v))
				}
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDensityCmd() *cobra.Command {
	var f sourceFlags
	var showPoints bool
	cmd := &cobra.Command{
		Use:   "density",
		Short: "Print density curves split by marking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compute(cmd.Context(), &f)
			if err != nil {
				return err
			}
			for _, d := range res.Densities {
				fmt.Printf("%s (bandwidth %s, %d points)\n", d.Category, formatValue(d.Bandwidth), len(d.All))
				for _, seg := range d.Segments {
					kind := "unmarked"
					switch {
					case seg.IsGap:
						kind = "gap"
					case seg.Marked:
						kind = "marked"
					}
					fmt.Printf("  %-8s [%s, %s] rows=%d\n", kind,
						formatValue(d.All[seg.Start].Value), formatValue(d.All[seg.End].Value), seg.Count)
				}
				if showPoints {
					for _, p := range d.All {
						fmt.Printf("    %s\t%s\n", formatValue(p.Value), formatValue(p.Density))
					}
				}
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&showPoints, "points", false, "Print every curve point")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var f sourceFlags
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Print comparison circles and the ANOVA p-value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compute(cmd.Context(), &f)
			if err != nil {
				return err
			}
			c := res.Comparison
			if !c.Displayable() {
				fmt.Printf("comparison not available (groups %d, df %d)\n", c.Groups, c.DF)
				return nil
			}
			fmt.Printf("alpha %s  critical %s  df %d  anova p %s\n",
				formatValue(c.Alpha), formatValue(c.CriticalValue), c.DF, c.AnovaP)
			for _, circle := range c.Circles {
				flag := ""
				if circle.SignificantlyDifferent {
					flag = " *"
				}
				fmt.Printf("  %-20s center %-12s radius %s%s\n",
					circle.Category, formatValue(circle.Center), formatValue(circle.Radius), flag)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newTicksCmd() *cobra.Command {
	var n int
	var linearPortion, height, labelHeight float64
	cmd := &cobra.Command{
		Use:   "ticks [min] [max]",
		Short: "Generate asinh axis ticks for a domain",
		Long: `Generate the adaptive tick set of an asinh axis. With --height the
labels are laid out and colliding ones removed.

Example: catdist ticks -- -150 300 --n 10 --height 400`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return errors.InvalidInput(fmt.Sprintf("min: %v", err))
			}
			hi, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return errors.InvalidInput(fmt.Sprintf("max: %v", err))
			}
			s, err := scale.NewAsinh(linearPortion)
			if err != nil {
				return err
			}
			if err := s.SetDomain(lo, hi); err != nil {
				return err
			}
			ticks := s.Ticks(n)
			if height > 0 {
				s.SetRange(height, 0)
				ticks = scale.VisibleTicks(s, ticks, labelHeight, labelHeight*4)
			}
			parts := make([]string, len(ticks))
			for i, t := range ticks {
				parts[i] = formatValue(t)
			}
			fmt.Println(strings.Join(parts, " "))
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", scale.DefaultTickCount, "Target tick count")
	cmd.Flags().Float64Var(&linearPortion, "linear-portion", 1, "Width of the near-linear region around zero")
	cmd.Flags().Float64Var(&height, "height", 0, "Axis height in pixels for label collision removal")
	cmd.Flags().Float64Var(&labelHeight, "label-height", 12, "Tick label height in pixels")
	return cmd
}

func newReportCmd() *cobra.Command {
	var f sourceFlags
	var title, out string
	var html, asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown, HTML or JSON report of the chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compute(cmd.Context(), &f)
			if err != nil {
				return err
			}
			var body []byte
			switch {
			case asJSON:
				body, err = json.MarshalIndent(reportJSON(res), "", "  ")
				if err != nil {
					return errors.Wrap(err, "encoding report")
				}
			case html:
				body = report.HTML(title, res)
			default:
				body = []byte(report.Markdown(title, res))
			}
			if out == "" {
				_, err = os.Stdout.Write(body)
				return err
			}
			return os.WriteFile(out, body, 0o644)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (stdout when empty)")
	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of markdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the summaries as JSON")
	return cmd
}

// reportJSON keeps only JSON-safe values: NaN statistics are dropped.
func reportJSON(res *pipeline.Result) map[string]interface{} {
	summaries := make([]map[string]interface{}, len(res.Summaries))
	for i, s := range res.Summaries {
		m := map[string]interface{}{"category": s.Category}
		for _, metric := range res.Metrics.Metrics() {
			if v, ok := s.Value(metric); ok && !math.IsNaN(v) {
				m[metric.String()] = v
			}
		}
		summaries[i] = m
	}
	return map[string]interface{}{
		"requestId": res.RequestID,
		"summaries": summaries,
		"anovaP":    res.Comparison.AnovaP,
	}
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port == "" {
				port = cfg.Server.Port
			}
			server := api.NewServer(
				pipeline.NewEngine(cfg.Limits),
				settings.NewCache(settings.Defaults(cfg.Chart)),
			)
			return server.Start(":" + port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (defaults to PORT)")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var seed int64
	var databaseURL, table, out string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate demo rows and store them in postgres or a CSV file",
		Long: `Generate a reproducible demo dataset with a shifted category, a skewed
category, marked upper tails and a few outliers.

Example: catdist demo --database-url postgres://localhost/catdist
         catdist demo -o demo.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := testkit.DefaultChartConfig()
			cfg.Seed = seed
			rows := testkit.NewChartDataGenerator(cfg).GenerateRows()

			if databaseURL != "" {
				db, err := postgres.Connect(databaseURL)
				if err != nil {
					return errors.DatabaseError("connecting", err)
				}
				defer db.Close()
				repo := postgres.NewRowRepository(db, table)
				if err := repo.EnsureTable(cmd.Context()); err != nil {
					return errors.DatabaseError("creating table", err)
				}
				if err := repo.InsertRows(cmd.Context(), rows); err != nil {
					return errors.DatabaseError("inserting rows", err)
				}
				fmt.Printf("inserted %d rows into %s\n", len(rows), table)
				return nil
			}

			var b strings.Builder
			b.WriteString("category,value,marked\n")
			for _, r := range rows {
				fmt.Fprintf(&b, "%s,%s,%t\n", r.Category, formatValue(r.Y), r.Marked)
			}
			if out == "" {
				_, err := os.Stdout.WriteString(b.String())
				return err
			}
			return os.WriteFile(out, []byte(b.String()), 0o644)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	cmd.Flags().StringVar(&table, "table", "chart_rows", "Postgres table to fill")
	cmd.Flags().StringVarP(&out, "output", "o", "", "CSV output file (stdout when empty)")
	return cmd
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
