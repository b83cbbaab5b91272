package main

import (
	"context"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tigerroll/midas-extract/internal/app"
	"github.com/tigerroll/midas-extract/internal/domain/table"
)

func newTablesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the known tables and their partition files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.run(cfg, false, func(ctx context.Context, a *app.App) error {
				t := tablewriter.NewWriter(cmd.OutOrStdout())
				t.SetHeader([]string{"Code", "ID", "Name", "Partitions"})
				t.SetAutoFormatHeaders(false)
				t.SetRowLine(false)
				for _, d := range table.KnownTables() {
					t.Append([]string{d.ShortID, d.ID, d.LongName, partitionCount(ctx, a, d)})
				}
				t.Render()
				return nil
			})
		},
	}
}

func partitionCount(ctx context.Context, a *app.App, d table.Descriptor) string {
	if !d.Partitioned() {
		return "registry"
	}
	parts, err := a.Tables.Partitions(ctx, d, "")
	if err != nil {
		return "n/a"
	}
	return strconv.Itoa(len(parts))
}
