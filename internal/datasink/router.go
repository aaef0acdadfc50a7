// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package datasink

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/cardinalhq/lakeflow/internal/catalog"
	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// nullPartitionValue is the path segment used when a row's partition
// value is nil or missing.
const nullPartitionValue = "__null__"

// Route is the outcome of routing one row: its partition key in catalog
// declared order and the partition's target path.
type Route struct {
	Key  []catalog.KeyValue
	Path string
}

// Router derives a partition key and target path from a row. It is built
// once per sink: partition columns are resolved case-insensitively
// against the source schema at construction, in the catalog's declared
// order, and the set of columns to strip from written data is fixed here.
type Router struct {
	basePath string
	columns  []string // resolved source-schema names, catalog order
	excluded []string // columns stripped from written rows
}

// NewRouter resolves the configured partition columns against the source
// schema.
func NewRouter(schema *tableschema.Schema, partitionColumns []string, basePath string, includePartitionsInData bool) (*Router, error) {
	r := &Router{
		basePath: basePath,
		columns:  make([]string, 0, len(partitionColumns)),
	}
	for _, name := range partitionColumns {
		f, ok := schema.LookupFold(name)
		if !ok {
			return nil, &ConfigError{Field: "PartitionColumns", Message: "column " + strconv.Quote(name) + " not in source schema"}
		}
		r.columns = append(r.columns, f.Name)
	}
	if !includePartitionsInData {
		r.excluded = r.columns
	}
	return r, nil
}

// Route derives the partition key and path for one row. The path joins
// the table's base path with one columnName=value segment per partition
// column, in catalog declared order.
func (r *Router) Route(row pipeline.Row) Route {
	key := make([]catalog.KeyValue, len(r.columns))
	segs := make([]string, 1, len(r.columns)+1)
	segs[0] = r.basePath
	for i, col := range r.columns {
		v := formatPartitionValue(row[col])
		key[i] = catalog.KeyValue{Column: col, Value: v}
		segs = append(segs, col+"="+v)
	}
	return Route{Key: key, Path: filepath.Join(segs...)}
}

// DataSchema returns the schema of written rows: the source schema minus
// any excluded partition columns.
func (r *Router) DataSchema(source *tableschema.Schema) *tableschema.Schema {
	if len(r.excluded) == 0 {
		return source
	}
	return source.Without(r.excluded...)
}

// StripPartitionColumns removes excluded partition columns from a row.
// Returns the row unchanged when nothing is excluded.
func (r *Router) StripPartitionColumns(row pipeline.Row) pipeline.Row {
	if len(r.excluded) == 0 {
		return row
	}
	out := make(pipeline.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, col := range r.excluded {
		delete(out, col)
	}
	return out
}

func formatPartitionValue(v any) string {
	switch t := v.(type) {
	case nil:
		return nullPartitionValue
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
