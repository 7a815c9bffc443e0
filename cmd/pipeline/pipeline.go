package pipeline

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/aggregate"
	"github.com/dszqbsm/rentmonitor/engine"
	"github.com/dszqbsm/rentmonitor/ingest"
	"github.com/dszqbsm/rentmonitor/normalize"
)

// 命令行参数，未指定时使用配置文件中的值
var (
	date         string
	pattern      string
	format       string
	outputFormat string
	maxPages     int
	all          bool
	headless     bool
	mode         string
	skipIngest   bool
)

var IngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "render result pages into the raw layer.",
	Long:  "render result pages with a headless browser and store each page under the raw layer of the given date.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			_, err := runIngest(ctx, cmd, a)
			return err
		})
	},
}

var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "extract listings from the raw pages of one date.",
	Long:  "extract listings from the raw pages of one date, deduplicate them by id and write the extracted layer.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			_, err := runExtract(ctx, cmd, a)
			return err
		})
	},
}

var FormatCmd = &cobra.Command{
	Use:   "format",
	Short: "derive unit prices and filter outliers for one date.",
	Long:  "derive category and unit prices from the extracted layer of one date, drop implausible rows and write the formatted layer.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			_, err := runFormat(ctx, cmd, a)
			return err
		})
	},
}

var AggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "rebuild the curated history from every formatted file.",
	Long:  "rebuild the curated history from every formatted file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runAggregate(ctx, cmd, a)
		})
	},
}

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "run every stage for one date.",
	Long:  "run ingest, extract, format and aggregate for one date.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if !skipIngest {
				if _, err := runIngest(ctx, cmd, a); err != nil {
					return err
				}
			}
			report, err := runExtract(ctx, cmd, a)
			if err != nil {
				return err
			}
			if _, err := runFormat(ctx, cmd, a); err != nil {
				return err
			}
			if err := runAggregate(ctx, cmd, a); err != nil {
				return err
			}
			return report.Err()
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{IngestCmd, ExtractCmd, FormatCmd, RunCmd} {
		c.Flags().StringVar(&date, "date", "", "ingestion date YYYY-MM-DD, default today")
	}
	IngestCmd.Flags().StringVar(&pattern, "pattern", "", "raw file name pattern")
	IngestCmd.Flags().IntVar(&maxPages, "max-pages", 0, "number of pages to ingest")
	IngestCmd.Flags().BoolVar(&all, "all", false, "ingest until there is no next page")
	IngestCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")

	ExtractCmd.Flags().StringVar(&pattern, "pattern", "", "extracted file name pattern")
	ExtractCmd.Flags().StringVar(&format, "format", "", "output format parquet|csv")
	ExtractCmd.Flags().IntVar(&maxPages, "max-pages", 0, "number of raw pages to process, 0 for all")

	FormatCmd.Flags().StringVar(&pattern, "pattern", "", "extracted file name pattern")
	FormatCmd.Flags().StringVar(&format, "input-format", "", "extracted file format parquet|csv")
	FormatCmd.Flags().StringVar(&outputFormat, "output-format", "", "formatted file format parquet|csv")

	for _, c := range []*cobra.Command{AggregateCmd, RunCmd} {
		c.Flags().StringVar(&mode, "mode", "", "aggregate mode write|return|sql")
	}
	RunCmd.Flags().BoolVar(&skipIngest, "skip-ingest", false, "reuse raw pages already stored for the date")
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := fn(ctx, a); err != nil {
		a.logger.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func pick(cmd *cobra.Command, flag, value, fallback string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return value
	}
	return fallback
}

func runDate() string {
	if date != "" {
		return date
	}
	return today()
}

func runIngest(ctx context.Context, cmd *cobra.Command, a *app) (ingest.Report, error) {
	req := ingest.Request{
		Date:     runDate(),
		Pattern:  pick(cmd, "pattern", pattern, a.cfg.Ingest.Pattern),
		MaxPages: a.cfg.Ingest.MaxPages,
		All:      a.cfg.Ingest.All,
	}
	flags := cmd.Flags()
	if flags.Changed("max-pages") {
		req.MaxPages = maxPages
		if !flags.Changed("all") {
			req.All = false
		}
	}
	if flags.Changed("all") {
		req.All = all
	}
	h := a.cfg.Ingest.Headless
	if flags.Changed("headless") {
		h = headless
	}
	ingestor, err := a.ingestor(h)
	if err != nil {
		return ingest.Report{}, err
	}
	report, err := ingestor.Run(ctx, req)
	if err != nil {
		return report, err
	}
	a.logger.Info("ingest finished", zap.String("date", req.Date), zap.Int("pages", report.Pages))
	return report, nil
}

func runExtract(ctx context.Context, cmd *cobra.Command, a *app) (engine.FolderReport, error) {
	e, err := a.engine()
	if err != nil {
		return engine.FolderReport{}, err
	}
	req := engine.FolderRequest{
		Date:     runDate(),
		Pattern:  pick(cmd, "pattern", pattern, a.cfg.Extract.Pattern),
		Format:   pick(cmd, "format", format, a.cfg.Extract.Format),
		MaxPages: a.cfg.Extract.MaxPages,
	}
	if cmd.Flags().Changed("max-pages") {
		req.MaxPages = maxPages
	}
	report, err := e.ProcessFolder(ctx, req)
	if err != nil {
		return report, err
	}
	if err := report.Err(); err != nil {
		a.logger.Warn("extract finished with document errors", zap.Int("count", len(report.DocumentErrors)))
	}
	return report, nil
}

func runFormat(ctx context.Context, cmd *cobra.Command, a *app) (normalize.Report, error) {
	req := normalize.Request{
		Date:         runDate(),
		Pattern:      pick(cmd, "pattern", pattern, a.cfg.Extract.Pattern),
		InputFormat:  pick(cmd, "input-format", format, a.cfg.Extract.Format),
		OutputFormat: pick(cmd, "output-format", outputFormat, a.cfg.Normalize.OutputFormat),
	}
	return a.stage().Run(ctx, req)
}

func runAggregate(ctx context.Context, cmd *cobra.Command, a *app) error {
	m, err := aggregate.ParseMode(pick(cmd, "mode", mode, a.cfg.Curated.Mode))
	if err != nil {
		return err
	}
	agg, release, err := a.aggregator(m)
	if err != nil {
		return err
	}
	defer release()
	res, err := agg.Run(ctx, m)
	if err != nil {
		return err
	}
	if m == aggregate.ModeReturn {
		cmd.Printf("%d rows from %d files\n", len(res.Rows), len(res.Files))
	}
	return nil
}
