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
	"github.com/amosWeiskopf/harvester/internal/storage"
	"github.com/amosWeiskopf/harvester/pkg/reporter"
	"github.com/amosWeiskopf/harvester/pkg/tally"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd(stdout io.Writer) *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "subnettally [LOGFILE]",
		Short: "Count IPv4 addresses in an access log, grouped by subnet",
		Long: `subnettally reads an access log line by line, extracts every IPv4 address
and prints how often each one occurred, grouped by the last octet of the
address.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("tally.log_path", args[0])
			}
			return runTally(cmd, v, stdout)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Config file path")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.String("log", config.DefaultLogPath, "Access log to read")
	flags.String("group-by", "octet", "Subnet key: octet (last octet) or char (last character)")
	flags.String("layout", "text", "Console layout: text or table")
	flags.String("storage", "none", "Persist results: none, file or sqlite")
	flags.String("format", "json", "Report format for --output (json, csv, markdown, html)")
	flags.String("output", "", "Write a report of the tally to this file")

	bindFlags(v, cmd, map[string]string{
		"tally.log_path": "log",
		"tally.group_by": "group-by",
		"tally.layout":   "layout",
		"storage.type":   "storage",
	})

	return cmd
}

func runTally(cmd *cobra.Command, v *viper.Viper, stdout io.Writer) error {
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

	mode, err := tally.ParseGroupBy(cfg.Tally.GroupBy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := tally.File(ctx, cfg.Tally.LogPath, mode)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"log":       report.Source,
		"lines":     report.LinesRead,
		"addresses": report.AddressesSeen,
		"subnets":   len(report.Groups),
	}).Debug("Log tallied")

	if err := reporter.NewConsole(stdout).WriteTally(report, cfg.Tally.Layout); err != nil {
		return err
	}

	sink, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer sink.Close()
	if err := sink.SaveTally(context.WithoutCancel(ctx), report); err != nil {
		return fmt.Errorf("failed to save tally: %w", err)
	}

	if output != "" {
		out, err := reporter.New().GenerateTallyReport(report, format)
		if err != nil {
			return fmt.Errorf("report generation failed: %w", err)
		}
		if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.WithField("path", output).Info("Report saved")
	}
	return nil
}

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
