package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tigerroll/midas-extract/internal/app"
	"github.com/tigerroll/midas-extract/internal/extract"
	"github.com/tigerroll/midas-extract/internal/output"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

type extractOptions struct {
	table      string
	start      string
	end        string
	columns    string
	conditions string
	srcIDs     string
	groupFile  string
	delimiter  string
	region     string
	tmpDir     string
	outputPath string
	format     string
}

func newExtractCmd(c *cli) *cobra.Command {
	var o extractOptions
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract observation rows from a MIDAS table",
		Example: `  midas-extract extract -t TD -s 200401010000 -e 200401011000 -i 214,926 -d tab
  midas-extract extract -t RH -s 2010 -e 2010 -c 1,3,9 -o rain.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := o.request()
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if o.tmpDir != "" {
				cfg.Midas.TmpDir = o.tmpDir
			}
			return c.run(cfg, true, func(ctx context.Context, a *app.App) error {
				a.Output.SetDisplay(cmd.OutOrStdout())
				res, err := a.Extractor.Extract(ctx, req)
				if err != nil {
					return errors.Wrapf(err, "extraction from %s failed", req.Table)
				}
				if res.NoData {
					logger.Infof("No data found.")
				}
				if req.Output == output.Display && res.Path != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Data has been saved to:\n\t%s\n", res.Path)
				}
				logger.Infof("%d records written (%s output).", res.Records, res.Strategy)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.table, "table", "t", "", "table id, short code or long name (e.g. TD, TDXX, TEMP_DRNL_OB)")
	f.StringVarP(&o.start, "start", "s", "", "start time YYYYMMDDhhmm (may be truncated)")
	f.StringVarP(&o.end, "end", "e", "", "end time YYYYMMDDhhmm (may be truncated)")
	f.StringVarP(&o.columns, "columns", "c", "all", `"all" or comma separated 1-based column numbers`)
	f.StringVarP(&o.conditions, "conditions", "n", "", `column conditions "col=kind=value;..." (range, greater_than, less_than, exact, pattern)`)
	f.StringVarP(&o.srcIDs, "src-ids", "i", "", "comma separated station ids")
	f.StringVarP(&o.groupFile, "group-file", "g", "", "file of station ids, as written by the stations command")
	f.StringVarP(&o.delimiter, "delimiter", "d", "default", `output delimiter: "default", "comma", "tab" or any string`)
	f.StringVarP(&o.region, "region", "r", "", "region code 1-7 for the global weather table")
	f.StringVarP(&o.tmpDir, "tmp-dir", "p", "", "directory for staging files")
	f.StringVarP(&o.outputPath, "output-filepath", "o", output.Display, `output file, or "display"`)
	f.StringVar(&o.format, "format", output.FormatText, "text or parquet")
	return cmd
}

func (o *extractOptions) request() (extract.Request, error) {
	if strings.TrimSpace(o.table) == "" {
		return extract.Request{}, exception.NewBatchErrorf("cli", `Must provide table ID with "-t" argument.`, exception.ErrInputValidation)
	}
	columns, err := extract.ParseColumns(o.columns)
	if err != nil {
		return extract.Request{}, err
	}

	ids := o.srcIDs
	if o.groupFile != "" {
		lines, err := readLines(o.groupFile)
		if err != nil {
			return extract.Request{}, errors.Wrapf(err, "cannot read group file %s", o.groupFile)
		}
		ids += "," + strings.Join(lines, ",")
	}

	return extract.Request{
		Table:      o.table,
		Start:      o.start,
		End:        o.end,
		Columns:    columns,
		Conditions: o.conditions,
		StationIDs: extract.ParseStationIDs(ids),
		Region:     o.region,
		Delimiter:  o.delimiter,
		Output:     o.outputPath,
		Format:     o.format,
	}, nil
}
