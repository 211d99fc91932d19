package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amosWeiskopf/harvester/internal/config"
	"github.com/amosWeiskopf/harvester/internal/logging"
	"github.com/amosWeiskopf/harvester/internal/models"
	"github.com/amosWeiskopf/harvester/internal/storage"
	"github.com/amosWeiskopf/harvester/pkg/analyzer"
	"github.com/amosWeiskopf/harvester/pkg/crawler"
	"github.com/amosWeiskopf/harvester/pkg/reporter"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd(stdout io.Writer) *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "mailharvest [URL]",
		Short: "Crawl one site and list every email address found on it",
		Long: `mailharvest walks a single site breadth-first from a seed URL, following
root-relative links only, and prints the links and email addresses of every
page it visits. The crawl stops after a fixed number of page visits.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("crawler.seed_url", args[0])
			}
			return runHarvest(cmd, v, stdout)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Config file path")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.String("seed", config.DefaultSeedURL, "Seed URL to start crawling from")
	flags.Int("max-visits", config.DefaultMaxVisits, "Maximum number of pages to fetch")
	flags.Float64("rate", 10, "Requests per second (0 disables the limit)")
	flags.Bool("robots", false, "Honour robots.txt")
	flags.String("storage", "none", "Persist results: none, file or sqlite")
	flags.String("format", "json", "Report format for --output (json, csv, markdown, html)")
	flags.String("output", "", "Write a report of the crawl to this file")

	bindFlags(v, cmd, map[string]string{
		"crawler.seed_url":            "seed",
		"crawler.max_visits":          "max-visits",
		"crawler.requests_per_second": "rate",
		"crawler.follow_robots_txt":   "robots",
		"storage.type":                "storage",
	})

	return cmd
}

func runHarvest(cmd *cobra.Command, v *viper.Viper, stdout io.Writer) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load(v, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	defer closer.Close()

	if output != "" {
		if err := reporter.CheckFormat(format); err != nil {
			return err
		}
	}

	sink, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var console *reporter.Console
	c, err := crawler.New(cfg.Crawler.SeedURL,
		crawler.WithMaxVisits(cfg.Crawler.MaxVisits),
		crawler.WithRateLimit(cfg.Crawler.RequestsPerSecond),
		crawler.WithUserAgent(cfg.Crawler.UserAgent),
		crawler.WithTimeout(cfg.Crawler.Timeout),
		crawler.WithMaxBodySize(cfg.Crawler.MaxBodySize),
		crawler.WithRobots(cfg.Crawler.FollowRobotsTxt),
		crawler.WithLogger(logger),
		crawler.WithPageHandler(func(page *models.Page) {
			console.WritePage(page)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}
	console = reporter.NewConsole(stdout, cfg.Crawler.SeedURL, c.MainHost(), c.MainHost()+"/")

	logger.WithFields(logrus.Fields{
		"seed":       c.Seed(),
		"max_visits": cfg.Crawler.MaxVisits,
	}).Info("Starting crawl")

	result, crawlErr := c.Crawl(ctx)
	if result == nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	console.WriteEmails(result.Emails)

	summary := analyzer.New().Summarize(result)
	if err := sink.SaveCrawl(context.WithoutCancel(ctx), result, summary); err != nil {
		return fmt.Errorf("failed to save crawl: %w", err)
	}

	if output != "" {
		report, err := reporter.New().GenerateCrawlReport(result, summary, format)
		if err != nil {
			return fmt.Errorf("report generation failed: %w", err)
		}
		if err := os.WriteFile(output, []byte(report), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.WithField("path", output).Info("Report saved")
	}

	if crawlErr != nil {
		return fmt.Errorf("crawl interrupted: %w", crawlErr)
	}
	return nil
}

// bindFlags lets command flags override config file and environment values
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
