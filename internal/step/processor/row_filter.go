package processor

import (
	"context"
	"regexp"
	"strings"

	"github.com/tigerroll/midas-extract/internal/domain/timewindow"
	"github.com/tigerroll/midas-extract/internal/step/reader"
	"github.com/tigerroll/midas-extract/pkg/batch/core/application/port"
	"github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// Config configures a RowFilterProcessor.
type Config struct {
	// StepName labels filter metrics.
	StepName      string
	DateExtractor *regexp.Regexp
	// IDExtractors restrict rows to a set of stations. Empty accepts every station.
	IDExtractors []*regexp.Regexp
	Window       timewindow.Window
	// Projection lists the 0-based columns to keep. Nil writes lines verbatim.
	Projection []int
	// Conditions are evaluated on the projection path only.
	Conditions []BoundCondition
	Recorder   metrics.MetricRecorder
}

// RowFilterProcessor turns partition lines into staging rows.
//
// A line is kept when it carries a timestamp inside the window and, if station ids are set,
// one of the ids. The first timestamp past the window end asks the reader to skip the rest of
// the partition, since partition files are sorted by time.
type RowFilterProcessor struct {
	cfg      Config
	recorder metrics.MetricRecorder
	start    int64
	end      int64

	partition string
	lastTS    int64
	warned    bool
}

// NewRowFilterProcessor creates a processor from cfg.
func NewRowFilterProcessor(cfg Config) *RowFilterProcessor {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &RowFilterProcessor{
		cfg:      cfg,
		recorder: recorder,
		start:    cfg.Window.StartValue(),
		end:      cfg.Window.EndValue(),
	}
}

// Process implements port.ItemProcessor.
func (p *RowFilterProcessor) Process(ctx context.Context, line reader.Line) (string, bool, error) {
	if line.Partition != p.partition {
		p.partition = line.Partition
		p.lastTS = 0
		p.warned = false
	}

	text := strings.TrimSpace(line.Text)
	ts, ok := MatchTimestamp(p.cfg.DateExtractor, text)
	if !ok {
		p.filter(ctx, metrics.FilterUndated)
		return "", false, nil
	}
	if ts > p.end {
		return "", false, port.ErrSkipPartition
	}
	if ts < p.lastTS && !p.warned {
		logger.Warnf("Timestamps out of order in %s at line %d (%d after %d); rows past the window end may be missed.",
			line.Partition, line.Number, ts, p.lastTS)
		p.warned = true
	}
	if ts > p.lastTS {
		p.lastTS = ts
	}

	if len(p.cfg.IDExtractors) > 0 && !MatchAny(p.cfg.IDExtractors, text) {
		p.filter(ctx, metrics.FilterStation)
		return "", false, nil
	}
	if ts < p.start {
		p.filter(ctx, metrics.FilterWindow)
		return "", false, nil
	}

	if p.cfg.Projection == nil {
		return text, true, nil
	}
	return p.project(ctx, text)
}

func (p *RowFilterProcessor) project(ctx context.Context, text string) (string, bool, error) {
	fields := SplitFields(text)
	for _, c := range p.cfg.Conditions {
		if c.Index >= len(fields) {
			p.filter(ctx, metrics.FilterMalformed)
			return "", false, nil
		}
		if !c.Matches(fields[c.Index]) {
			p.filter(ctx, metrics.FilterCondition)
			return "", false, nil
		}
	}

	out := make([]string, len(p.cfg.Projection))
	for i, idx := range p.cfg.Projection {
		if idx >= len(fields) {
			p.filter(ctx, metrics.FilterMalformed)
			return "", false, nil
		}
		out[i] = fields[idx]
	}
	return strings.Join(out, ", "), true, nil
}

func (p *RowFilterProcessor) filter(ctx context.Context, reason string) {
	p.recorder.RecordItemFilter(ctx, p.cfg.StepName, reason)
}

var _ port.ItemProcessor[reader.Line, string] = (*RowFilterProcessor)(nil)
