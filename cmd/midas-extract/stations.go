package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tigerroll/midas-extract/internal/app"
	"github.com/tigerroll/midas-extract/internal/catalog"
	"github.com/tigerroll/midas-extract/internal/domain/bbox"
	"github.com/tigerroll/midas-extract/internal/domain/timewindow"
	"github.com/tigerroll/midas-extract/internal/output"
	"github.com/tigerroll/midas-extract/internal/vocab"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

type stationsOptions struct {
	counties     string
	countiesFile string
	bbox         string
	start        string
	end          string
	dataTypes    string
	outputPath   string
	quiet        bool
}

func newStationsCmd(c *cli) *cobra.Command {
	var o stationsOptions
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List station ids by county or bounding box",
		Example: `  midas-extract stations --county devon,cornwall --data-type rain
  midas-extract stations --bbox 54,0,52,3 --start 200401 --end 200412`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := o.query(time.Now())
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.run(cfg, true, func(ctx context.Context, a *app.App) error {
				ids, err := a.Catalog.LookupStations(ctx, query)
				if err != nil {
					return errors.Wrap(err, "station lookup failed")
				}
				return o.report(ctx, cmd.OutOrStdout(), ids)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.counties, "county", "c", "", "comma separated list of counties")
	f.StringVarP(&o.countiesFile, "counties-file", "f", "", "file listing one county per line")
	f.StringVarP(&o.bbox, "bbox", "b", "", "bounding box as N,W,S,E")
	f.StringVarP(&o.start, "start", "s", "", "start of the reporting period (YYYYMMDDhhmm, may be truncated)")
	f.StringVarP(&o.end, "end", "e", "", "end of the reporting period (YYYYMMDDhhmm, may be truncated)")
	f.StringVarP(&o.dataTypes, "data-type", "d", "", "comma separated list of data types, e.g. RAIN,WMO")
	f.StringVarP(&o.outputPath, "output-filepath", "o", "", "write the station ids to this file")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "do not list the station ids")
	return cmd
}

// query validates the flags and builds the catalog query.
func (o *stationsOptions) query(now time.Time) (catalog.StationQuery, error) {
	var q catalog.StationQuery

	counties := splitList(o.counties)
	if o.countiesFile != "" {
		fromFile, err := readLines(o.countiesFile)
		if err != nil {
			return q, errors.Wrapf(err, "cannot read counties file %s", o.countiesFile)
		}
		counties = append(counties, fromFile...)
	}
	for i := range counties {
		counties[i] = strings.ToUpper(counties[i])
	}
	if unknown := vocab.Unknown(counties, vocab.IsCounty); len(unknown) > 0 {
		logger.Warnf("Unknown counties will not match any station: %s", strings.Join(unknown, ", "))
	}
	q.Counties = counties

	if o.bbox != "" {
		box, err := bbox.Parse(o.bbox)
		if err != nil {
			return q, err
		}
		q.BBox = &box
	}
	if len(q.Counties) == 0 && q.BBox == nil {
		return q, catalog.ErrNoSpatialFilter
	}

	q.DataTypes = splitList(o.dataTypes)
	for i := range q.DataTypes {
		q.DataTypes[i] = strings.ToLower(q.DataTypes[i])
	}
	if unknown := vocab.Unknown(q.DataTypes, vocab.IsDataType); len(unknown) > 0 {
		logger.Warnf("Unknown data types will not match any station: %s", strings.Join(unknown, ", "))
	}

	if o.start != "" || o.end != "" {
		w, err := timewindow.New(normalizeTime(o.start), normalizeTime(o.end), now)
		if err != nil {
			return q, err
		}
		q.Window = &w
	}
	return q, nil
}

func (o *stationsOptions) report(ctx context.Context, stdout io.Writer, ids []string) error {
	fmt.Fprintf(stdout, "Number of stations found: %d\n\n", len(ids))

	if o.outputPath != "" {
		out, path, err := output.OpenDestination(ctx, o.outputPath)
		if err != nil {
			return err
		}
		var b strings.Builder
		for _, id := range ids {
			b.WriteString(id)
			b.WriteString("\r\n")
		}
		_, werr := io.WriteString(out, b.String())
		if cerr := out.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return errors.Wrapf(werr, "cannot write %s", path)
		}
		fmt.Fprintf(stdout, "Output written to '%s'\n", path)
		return nil
	}

	if o.quiet {
		return nil
	}
	fmt.Fprintln(stdout, "SRC IDs follow:\n==================")
	for _, id := range ids {
		fmt.Fprintln(stdout, id)
	}
	return nil
}

// normalizeTime accepts registry style dates ("2004-01-01 10:00") as well as compact digits.
func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "-") {
		if v, ok := catalog.ParseCapabilityDate(s); ok {
			return fmt.Sprintf("%012d", v)
		}
	}
	return s
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
