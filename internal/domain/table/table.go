// Package table resolves MIDAS table names, loads their schemas and discovers their partitions.
package table

import (
	"bufio"
	"context"
	"strings"

	"github.com/tigerroll/midas-extract/internal/domain/partition"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const moduleName = "table"

// SchemaDir is the metadata directory holding the column lists.
const SchemaDir = "table_structures"

// partitionDir is the directory below {ID} holding the partition files.
const partitionDir = "yearly_files"

// timeColumns are the candidate timestamp columns in order of preference.
var timeColumns = []string{"ob_time", "ob_date", "ob_end_time"}

// Table is a resolved table with its column schema.
type Table struct {
	Descriptor
	// Columns holds the lowercase column names in file order.
	Columns []string
	index   map[string]int
}

// New builds a Table from a descriptor and its column names.
func New(d Descriptor, columns []string) *Table {
	t := &Table{Descriptor: d, Columns: make([]string, len(columns)), index: make(map[string]int, len(columns))}
	for i, c := range columns {
		c = strings.ToLower(strings.TrimSpace(c))
		t.Columns[i] = c
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	return t
}

// ColumnIndex returns the 0-based position of a column.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return -1, exception.NewBatchErrorf(moduleName, "column %q not found in table %s", name, t.LongName, exception.ErrColumnNotFound)
	}
	return i, nil
}

// TimeColumnIndex returns the position of the first of ob_time, ob_date and ob_end_time in the schema.
func (t *Table) TimeColumnIndex() (int, error) {
	for _, c := range timeColumns {
		if i, ok := t.index[c]; ok {
			return i, nil
		}
	}
	return -1, exception.NewBatchErrorf(moduleName, "table %s has none of the time columns %s",
		t.LongName, strings.Join(timeColumns, ", "), exception.ErrColumnNotFound)
}

// Resolver loads schemas from the metadata connection and partitions from the data connection.
type Resolver struct {
	storage storage.StorageConnectionResolver
}

// NewResolver creates a Resolver.
func NewResolver(resolver storage.StorageConnectionResolver) *Resolver {
	return &Resolver{storage: resolver}
}

// Load resolves the token and reads the table schema from table_structures/{ID}TB.txt.
func (r *Resolver) Load(ctx context.Context, token string) (*Table, error) {
	d, err := Resolve(token)
	if err != nil {
		return nil, err
	}
	conn, err := r.storage.ResolveStorageConnection(ctx, storage.ConnectionMetadata)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to resolve metadata storage", err)
	}
	columns, err := ReadColumns(ctx, conn, d.ID+"TB.txt")
	if err != nil {
		return nil, err
	}
	logger.Debugf("Loaded %d columns for table %s (%s).", len(columns), d.LongName, d.ShortID)
	return New(d, columns), nil
}

// ReadColumns reads a table_structures column list, one lowercased column name per line.
// Blank lines are ignored.
func ReadColumns(ctx context.Context, conn storage.StorageConnection, fileName string) ([]string, error) {
	rc, err := conn.Download(ctx, SchemaDir, fileName)
	if err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "failed to open schema %s/%s", SchemaDir, fileName, exception.ErrResource)
	}
	defer rc.Close()

	var columns []string
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		columns = append(columns, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "failed to read schema %s/%s", SchemaDir, fileName, err)
	}
	if len(columns) == 0 {
		return nil, exception.NewBatchErrorf(moduleName, "schema %s/%s is empty", SchemaDir, fileName, exception.ErrColumnNotFound)
	}
	return columns, nil
}

// Partitions lists the partition files of a table in lexical order.
// region is a region code ("1" to "7") or empty; it only applies to regional tables.
// A table without a partition directory has no partitions.
func (r *Resolver) Partitions(ctx context.Context, d Descriptor, region string) ([]partition.Partition, error) {
	var regionTag string
	if region != "" {
		tag, err := RegionTag(region)
		if err != nil {
			return nil, err
		}
		if d.Regional() {
			regionTag = tag
		} else {
			logger.Warnf("Region %s ignored: table %s is not split by region.", region, d.LongName)
		}
	}
	if !d.Partitioned() {
		logger.Infof("Table %s is held in the metadata registries and has no partitions.", d.LongName)
		return nil, nil
	}

	conn, err := r.storage.ResolveStorageConnection(ctx, storage.ConnectionData)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to resolve data storage", err)
	}

	var parts []partition.Partition
	err = conn.ListObjects(ctx, d.ID, partitionDir+"/", func(object string) error {
		p, ok := partition.Parse(d.ID + "/" + object)
		if !ok {
			logger.Debugf("Skipping %s: not a partition file name.", object)
			return nil
		}
		if regionTag != "" && p.Region != regionTag {
			return nil
		}
		parts = append(parts, p)
		return nil
	})
	if err != nil {
		if local.IsNotExist(err) {
			logger.Warnf("No partition directory for table %s.", d.LongName)
			return nil, nil
		}
		return nil, exception.NewBatchErrorf(moduleName, "failed to list partitions of %s", d.LongName, err)
	}
	partition.Sort(parts)
	return parts, nil
}
