// Package main implements the n42-extract CLI: batch extraction of N42 measurement
// documents into a spreadsheet, single-document extraction and run history.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/n42-extract/internal/common"
)

var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli carries what every subcommand shares.
type cli struct {
	configPath string
	logLevel   string
	stdout     io.Writer
	stderr     io.Writer

	cfg    *common.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "n42-extract",
		Short: "Extract Alpha, Beta and Rn-222 readings from N42 measurement documents",
		Long: `n42-extract reads N42 measurement documents, classifies every activity reading
against the detection threshold (value < sigma x uncertainty reports "<MDA") and
collects one row per document.

Examples:
  # Extract a directory tree into <parent>/n42_extract.xlsx
  n42-extract batch --dir /data/reports

  # One document as JSON
  n42-extract file --format json /data/reports/2024-03-05.xml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (environment variables override it)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newBatchCmd(c), newFileCmd(c), newRunsCmd(c))
	return root
}

func (c *cli) init() error {
	cfg, err := common.LoadConfigFile(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(c.stdout, format, args...); err != nil {
		c.logger.Warn("write to stdout failed", "error", err)
	}
}
