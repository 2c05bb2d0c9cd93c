package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/n42-extract/internal/core"
	"github.com/joseph-ayodele/n42-extract/internal/export"
	"github.com/joseph-ayodele/n42-extract/internal/ingest"
	"github.com/joseph-ayodele/n42-extract/internal/repository"
)

type batchOptions struct {
	dir        string
	out        string
	format     string
	sigma      float64
	workers    int
	failFast   bool
	skipHidden bool
	record     bool
}

func newBatchCmd(c *cli) *cobra.Command {
	var o batchOptions
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract every .xml document under a directory into one table",
		Long: `Walk --dir recursively, extract every file whose name ends in .xml and write one
row per document, in discovery order.

Documents that fail to parse are logged and skipped; --fail-fast aborts the whole
run on the first failure instead and writes nothing.

Examples:
  n42-extract batch --dir /data/reports --sigma 3
  n42-extract batch --dir /data/reports --format json --out -
  n42-extract batch --dir /data/reports --record   # keep run history in the database`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runBatch(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.dir, "dir", "", "directory to extract from (required)")
	f.StringVar(&o.out, "out", "", "output file, \"-\" for stdout (default <parent of dir>/n42_extract.xlsx)")
	f.StringVar(&o.format, "format", string(export.FormatXLSX), "output format: xlsx or json")
	f.Float64Var(&o.sigma, "sigma", 0, "detection threshold multiplier (default from config, 2.0)")
	f.IntVar(&o.workers, "workers", 0, "concurrent extractions (default from config)")
	f.BoolVar(&o.failFast, "fail-fast", false, "abort the run on the first failed document")
	f.BoolVar(&o.skipHidden, "skip-hidden", false, "ignore files and directories whose name starts with \".\"")
	f.BoolVar(&o.record, "record", false, "record the run in the configured database")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func (c *cli) runBatch(cmd *cobra.Command, o batchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}

	req := core.BatchRequest{
		Root:       o.dir,
		Sigma:      c.cfg.Extract.Sigma,
		Workers:    c.cfg.Batch.Workers,
		FailFast:   c.cfg.Batch.FailFast || o.failFast,
		SkipHidden: c.cfg.Batch.SkipHidden || o.skipHidden,
	}
	if cmd.Flags().Changed("sigma") {
		req.Sigma = o.sigma
	}
	if o.workers > 0 {
		req.Workers = o.workers
	}

	exp := &export.FileExporter{Format: format, Logger: c.logger}
	switch {
	case o.out == "-":
		if format != export.FormatJSON {
			return fmt.Errorf("--out - requires --format json")
		}
		exp.Stdout = c.stdout
	case o.out != "":
		exp.Path = o.out
	case format == export.FormatJSON:
		exp.Stdout = c.stdout
	default:
		exp.Path = export.DefaultOutputPath(o.dir)
	}
	req.Exporter = exp

	ing := ingest.NewFSIngestor(c.logger)
	proc := core.NewProcessor(c.logger, ing, nil, nil)

	var (
		runs    repository.RunRepository
		results repository.ResultRepository
	)
	if o.record {
		db, err := c.openDB(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		runs = repository.NewRunRepository(db, c.logger)
		results = repository.NewResultRepository(db, c.logger)
	}

	res, err := core.NewBatchRunner(c.logger, ing, proc, runs, results).Run(ctx, req)
	if res != nil {
		for _, f := range res.Failures() {
			c.logger.Warn("skipped document", "path", f.SourcePath, "error", f.Error)
		}
	}
	if err != nil {
		return err
	}
	if exp.Path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s (%d skipped)\n",
			res.Run.Succeeded, res.Run.OutputPath, res.Run.Failed)
	}
	return nil
}

func (c *cli) openDB(ctx context.Context) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.ConfigFrom(c.cfg.Database), c.logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
