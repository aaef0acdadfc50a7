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

// Package filereader provides a generic interface for reading rows from
// columnar files. Callers construct readers directly and compose them as
// needed; the filtering reader wraps any other reader with a predicate.
package filereader

import (
	"context"

	"github.com/spf13/afero"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// Reader is the core interface for reading rows from any file format.
type Reader interface {
	// GetRow returns the next row of data.
	// Returns io.EOF when there are no more rows.
	// Returns error for any read failures.
	GetRow(ctx context.Context) (pipeline.Row, error)

	// Schema returns the file's schema in declared column order.
	Schema() *tableschema.Schema

	// Close releases any resources held by the reader. Close after a
	// partial read is supported and idempotent.
	Close() error
}

// Predicate selects which rows a reader yields. It is opaque to everything
// above the reader; rows it rejects are never delivered.
type Predicate func(pipeline.Row) bool

// Factory opens a reader for the given path, applying the optional
// predicate. A nil predicate yields every row.
type Factory func(path string, pred Predicate) (Reader, error)

// NewParquetFactory returns a Factory reading parquet files from fs.
func NewParquetFactory(fs afero.Fs) Factory {
	return func(path string, pred Predicate) (Reader, error) {
		r, err := OpenParquet(fs, path)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			return r, nil
		}
		return NewFilteringReader(r, pred), nil
	}
}
