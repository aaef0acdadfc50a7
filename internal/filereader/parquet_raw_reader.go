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

package filereader

import (
	"fmt"
	"io"

	"context"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

const defaultBatchSize = 1000

// ParquetRawReader reads rows from a parquet file without any
// transformations. Rows are pulled from the underlying generic reader in
// batches and handed out one at a time.
type ParquetRawReader struct {
	file      afero.File
	pfr       *parquet.GenericReader[map[string]any]
	schema    *tableschema.Schema
	closed    bool
	exhausted bool

	readBuf []map[string]any
	bufPos  int
	bufLen  int
}

var _ Reader = (*ParquetRawReader)(nil)

// OpenParquet opens the parquet file at path on fs. A zero-row file fails
// with *EmptyFileError; schema inference needs at least one record.
func OpenParquet(fs afero.Fs, path string) (*ParquetRawReader, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet file %s: %w", path, err)
	}

	if pf.NumRows() == 0 {
		_ = f.Close()
		return nil, &EmptyFileError{Path: path}
	}

	schema, err := tableschema.FromParquetFile(pf)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("schema of %s: %w", path, err)
	}

	readBuf := make([]map[string]any, defaultBatchSize)
	for i := range readBuf {
		readBuf[i] = make(map[string]any)
	}

	return &ParquetRawReader{
		file:    f,
		pfr:     parquet.NewGenericReader[map[string]any](pf, pf.Schema()),
		schema:  schema,
		readBuf: readBuf,
	}, nil
}

// GetRow returns the next row from the file.
func (r *ParquetRawReader) GetRow(ctx context.Context) (pipeline.Row, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	if r.bufPos >= r.bufLen {
		if r.exhausted {
			return nil, io.EOF
		}
		if err := r.fill(ctx); err != nil {
			return nil, err
		}
		if r.bufLen == 0 {
			return nil, io.EOF
		}
	}

	src := r.readBuf[r.bufPos]
	r.bufPos++

	// The buffer entry is reused on the next fill, so copy it out.
	row := make(pipeline.Row, len(src))
	for k, v := range src {
		row[k] = v
	}

	rowsOutCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("reader", "ParquetRawReader"),
	))

	return row, nil
}

func (r *ParquetRawReader) fill(ctx context.Context) error {
	for i := range r.readBuf {
		for k := range r.readBuf[i] {
			delete(r.readBuf[i], k)
		}
	}

	n, err := r.pfr.Read(r.readBuf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("parquet reader error: %w", err)
	}
	if err == io.EOF {
		r.exhausted = true
	}

	rowsInCounter.Add(ctx, int64(n), otelmetric.WithAttributes(
		attribute.String("reader", "ParquetRawReader"),
	))

	r.bufPos = 0
	r.bufLen = n
	return nil
}

// Schema returns the file's schema in declared column order.
func (r *ParquetRawReader) Schema() *tableschema.Schema {
	return r.schema
}

// Close closes the reader and the underlying file.
func (r *ParquetRawReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.pfr != nil {
		err = r.pfr.Close()
		r.pfr = nil
	}
	if cerr := r.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close parquet reader: %w", err)
	}
	return nil
}
