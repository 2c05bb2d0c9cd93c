package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/n42-extract/internal/repository"
)

func newRunsCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded batch runs, or show the documents of one run",
		Long: `Without arguments, list the most recent runs recorded with "batch --record" or by
the watch daemon. With a run id, list that run's documents in discovery order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 0 {
				runs, err := repository.NewRunRepository(db, c.logger).List(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tSIGMA\tOK\tFAILED\tROOT\tOUTPUT")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%d\t%d\t%s\t%s\n",
						r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Sigma,
						r.Succeeded, r.Failed, r.RootPath, r.OutputPath)
				}
				return nil
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			if _, err := repository.NewRunRepository(db, c.logger).Get(ctx, id); err != nil {
				return err
			}
			results, err := repository.NewResultRepository(db, c.logger).ListByRun(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "SEQ\tSTATUS\tALPHA\tBETA\tRN-222\tRN-222 CONC\tPATH\tERROR")
			for _, r := range results {
				alpha, beta, rn, conc := "", "", "", ""
				if r.Row != nil {
					alpha, beta, rn, conc = r.Row.AlphaActivity, r.Row.BetaActivity, r.Row.Rn222Activity, r.Row.Rn222Concentration
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Seq, r.Status, alpha, beta, rn, conc, r.SourcePath, r.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	return cmd
}
