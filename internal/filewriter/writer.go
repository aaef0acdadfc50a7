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

// Package filewriter provides the output-file side of the sink: a row
// writer that spills rows to a codec-encoded temp file and converts the
// spill into one parquet file on close.
package filewriter

import (
	"errors"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// ErrAlreadyClosed is returned by Write after Close or Abort.
var ErrAlreadyClosed = errors.New("filewriter: writer already closed")

// FileSizeUnavailable marks a Result whose output size could not be read.
const FileSizeUnavailable = int64(-1)

// RowWriter accepts one row at a time and supports idempotent close.
type RowWriter interface {
	// Write adds a single row. The row's columns must be a subset of the
	// writer's schema.
	Write(row pipeline.Row) error

	// Close finalizes the output file and returns its metadata. A second
	// Close returns the same Result without error.
	Close() (Result, error)

	// Abort discards buffered rows and removes temporary files. Safe to
	// call multiple times.
	Abort()
}

// Result contains metadata about a single output file.
type Result struct {
	// FileName is the path of the created file.
	FileName string

	// RecordCount is the number of rows written to this file.
	RecordCount int64

	// FileSize is the size of the file in bytes, or FileSizeUnavailable.
	FileSize int64
}

// Factory opens a RowWriter for the given data schema and output path.
// The sink treats this as a pluggable collaborator.
type Factory func(schema *tableschema.Schema, path string) (RowWriter, error)
