// Package catalog looks up station ids in the MIDAS metadata registries.
package catalog

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/tigerroll/midas-extract/internal/domain/bbox"
	"github.com/tigerroll/midas-extract/internal/domain/timewindow"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const moduleName = "catalog"

// ErrNoSpatialFilter is returned when a query names neither counties nor a bounding box.
var ErrNoSpatialFilter = exception.NewBatchErrorf(moduleName,
	"You must provide a miminum of either a list of counties or bbox coordinates.", exception.ErrInputValidation)

// capabilityDate matches registry dates such as "1990-01-01 00:00" or "1990-01-01".
var capabilityDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})\s*(\d{2})?:?(\d{2})?`)

// StationQuery selects stations. Counties take precedence over BBox.
// DataTypes and Window narrow the result through the capability registry.
type StationQuery struct {
	Counties  []string
	BBox      *bbox.BBox
	DataTypes []string
	Window    *timewindow.Window
}

// Catalog holds the SOURCE, GEOGRAPHIC_AREA and SRC_CAPABILITY registries.
// The registries are read from the metadata storage on first use.
type Catalog struct {
	storage  storage.StorageConnectionResolver
	recorder metrics.MetricRecorder

	once         sync.Once
	loadErr      error
	stations     []Station
	areas        []Area
	capabilities []Capability
}

// New creates a Catalog.
func New(resolver storage.StorageConnectionResolver, recorder metrics.MetricRecorder) *Catalog {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Catalog{storage: resolver, recorder: recorder}
}

// Load reads the registries. It is called by LookupStations and only does work once.
func (c *Catalog) Load(ctx context.Context) error {
	c.once.Do(func() {
		c.loadErr = c.load(ctx)
	})
	return c.loadErr
}

func (c *Catalog) load(ctx context.Context) error {
	conn, err := c.storage.ResolveStorageConnection(ctx, storage.ConnectionMetadata)
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to resolve metadata storage", err)
	}
	if c.stations, err = loadRegistry[Station](ctx, conn, sourceRegistry); err != nil {
		return err
	}
	if c.areas, err = loadRegistry[Area](ctx, conn, areaRegistry); err != nil {
		return err
	}
	if c.capabilities, err = loadRegistry[Capability](ctx, conn, capabilityRegistry); err != nil {
		return err
	}
	logger.Debugf("Loaded %d stations, %d areas and %d capabilities.", len(c.stations), len(c.areas), len(c.capabilities))
	return nil
}

// LookupStations returns the ids of stations matching q, de-duplicated in first-seen order.
func (c *Catalog) LookupStations(ctx context.Context, q StationQuery) ([]string, error) {
	if len(q.Counties) == 0 && q.BBox == nil {
		return nil, ErrNoSpatialFilter
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}

	var ids []string
	if len(q.Counties) > 0 {
		if q.BBox != nil {
			logger.Warnf("Both counties and a bounding box given; searching by county.")
		}
		ids = c.byCounty(q.Counties)
	} else {
		ids = c.byBBox(*q.BBox)
	}
	ids = c.filterByCapability(dedupe(ids), q.DataTypes, q.Window)

	c.recorder.RecordStationsFound(ctx, len(ids))
	return ids, nil
}

func (c *Catalog) byBBox(box bbox.BBox) []string {
	logger.Infof("Searching within a box of (N - S) %v - %v and (W - E) %v - %v...", box.North, box.South, box.West, box.East)
	var ids []string
	for _, s := range c.stations {
		lat, errLat := strconv.ParseFloat(s.Lat, 64)
		lon, errLon := strconv.ParseFloat(s.Lon, 64)
		if errLat != nil || errLon != nil {
			logger.Debugf("Station %s has no usable position (%q, %q).", s.SrcID, s.Lat, s.Lon)
			continue
		}
		if box.Contains(lat, lon) {
			ids = append(ids, s.SrcID)
		}
	}
	return ids
}

func (c *Catalog) byCounty(counties []string) []string {
	wanted := make(map[string]bool, len(counties))
	for _, county := range counties {
		wanted[strings.ToUpper(strings.TrimSpace(county))] = true
	}
	logger.Infof("Counties to filter on: %s", strings.Join(counties, ", "))

	codes := make(map[string]bool)
	for _, a := range c.areas {
		if strings.ToUpper(a.Type) == "COUNTY" && wanted[strings.ToUpper(a.Name)] {
			codes[a.ID] = true
		}
	}

	var ids []string
	for _, s := range c.stations {
		if codes[s.AreaID] {
			ids = append(ids, s.SrcID)
		}
	}
	return ids
}

// filterByCapability keeps stations with a capability of one of the data types whose period
// overlaps the window. With neither data types nor a window the list is returned unchanged.
func (c *Catalog) filterByCapability(ids []string, dataTypes []string, window *timewindow.Window) []string {
	if len(dataTypes) == 0 && window == nil {
		return ids
	}

	types := make(map[string]bool, len(dataTypes))
	for _, t := range dataTypes {
		types[strings.ToLower(strings.TrimSpace(t))] = true
	}
	if len(types) > 0 {
		logger.Infof("Filtering on data types: %s", strings.Join(dataTypes, ", "))
	}
	if window != nil {
		logger.Infof("From: %s To: %s", window.Start, window.End)
	}

	candidates := make(map[string]bool, len(ids))
	for _, id := range ids {
		candidates[id] = true
	}

	var selected []string
	seen := make(map[string]bool)
	for _, capability := range c.capabilities {
		if !candidates[capability.SrcID] || seen[capability.SrcID] {
			continue
		}
		if len(types) > 0 && !types[strings.ToLower(capability.IDType)] {
			continue
		}
		if window != nil && !capabilityOverlaps(capability, *window) {
			continue
		}
		seen[capability.SrcID] = true
		selected = append(selected, capability.SrcID)
	}

	logger.Infof("Original list length: %d", len(ids))
	logger.Infof("Selected after SRCC filtering: %d", len(selected))
	return selected
}

// capabilityOverlaps reports whether the capability period intersects w.
// A missing begin or end date leaves that side of the period open.
func capabilityOverlaps(capability Capability, w timewindow.Window) bool {
	if end, ok := ParseCapabilityDate(capability.End); ok && w.StartValue() > end {
		return false
	}
	if begin, ok := ParseCapabilityDate(capability.Begin); ok && w.EndValue() < begin {
		return false
	}
	return true
}

// ParseCapabilityDate converts a registry date to a 12 digit integer timestamp.
// "T" separators are accepted and missing hour or minute fields become "00".
func ParseCapabilityDate(s string) (int64, bool) {
	m := capabilityDate.FindStringSubmatch(strings.ReplaceAll(strings.TrimSpace(s), "T", " "))
	if m == nil {
		return 0, false
	}
	d := strings.Join(m[1:], "")
	for len(d) < 12 {
		d += "00"
	}
	v, err := strconv.ParseInt(d, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
