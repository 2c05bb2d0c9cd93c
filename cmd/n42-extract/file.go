package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/n42-extract/internal/common"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
	"github.com/joseph-ayodele/n42-extract/internal/export"
	"github.com/joseph-ayodele/n42-extract/internal/extract"
)

func newFileCmd(c *cli) *cobra.Command {
	var (
		sigma  float64
		format string
	)
	cmd := &cobra.Command{
		Use:   "file <path>...",
		Short: "Extract individual documents and print their rows",
		Long: `Extract one or more documents and print one row each, either as aligned
"label: value" text or as a JSON array.

Any document that fails stops the command with its error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.cfg.Extract.Sigma
			if cmd.Flags().Changed("sigma") {
				s = sigma
			}
			if err := common.ValidateSigma(s); err != nil {
				return err
			}
			rows := make([]entity.Row, 0, len(args))
			for _, path := range args {
				row, err := extract.ExtractFile(path, s)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}
			switch strings.ToLower(format) {
			case "json":
				return export.WriteJSON(c.stdout, rows)
			case "text", "":
				for i, row := range rows {
					if len(args) > 1 {
						c.printf("%s\n", args[i])
					}
					c.printRow(row)
				}
				return nil
			default:
				return fmt.Errorf("unsupported format %q (text or json)", format)
			}
		},
	}
	cmd.Flags().Float64Var(&sigma, "sigma", 0, "detection threshold multiplier (default from config, 2.0)")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

func (c *cli) printRow(row entity.Row) {
	width := 0
	for _, h := range entity.RowHeaders {
		width = max(width, len(h))
	}
	for i, v := range row.Strings() {
		c.printf("  %-*s  %s\n", width, entity.RowHeaders[i], v)
	}
}
