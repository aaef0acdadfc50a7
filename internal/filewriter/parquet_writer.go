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

package filewriter

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/rowcodec"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// ParquetWriter spills every row to a CBOR temp file and, on Close,
// streams the spill back out into one parquet file at the target path.
// Spilling keeps per-partition memory flat no matter how many writers a
// worker holds open. Writers are not concurrency-safe; each is owned by
// exactly one worker.
type ParquetWriter struct {
	fs     afero.Fs
	path   string
	tmpDir string

	schema   *tableschema.Schema
	pqSchema *parquet.Schema

	codec   rowcodec.Codec
	spill   afero.File
	encoder rowcodec.Encoder

	count  int64
	closed bool
	result Result
}

var _ RowWriter = (*ParquetWriter)(nil)

// NewParquet creates a writer for one output file. tmpDir holds the spill
// file until Close.
func NewParquet(fs afero.Fs, tmpDir string, schema *tableschema.Schema, path string) (*ParquetWriter, error) {
	codec, err := rowcodec.NewCBOR()
	if err != nil {
		return nil, fmt.Errorf("filewriter: create codec: %w", err)
	}

	if err := fs.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("filewriter: create tmp dir: %w", err)
	}
	spill, err := afero.TempFile(fs, tmpDir, "lakeflow-spill-*.cbor")
	if err != nil {
		return nil, fmt.Errorf("filewriter: create spill file: %w", err)
	}

	return &ParquetWriter{
		fs:       fs,
		path:     path,
		tmpDir:   tmpDir,
		schema:   schema,
		pqSchema: schema.ParquetSchema(filepath.Base(path)),
		codec:    codec,
		spill:    spill,
		encoder:  codec.NewEncoder(spill),
	}, nil
}

// NewParquetFactory returns the default Factory, writing parquet files on
// fs with spills under tmpDir.
func NewParquetFactory(fs afero.Fs, tmpDir string) Factory {
	return func(schema *tableschema.Schema, path string) (RowWriter, error) {
		return NewParquet(fs, tmpDir, schema, path)
	}
}

// Write encodes one row into the spill file.
func (w *ParquetWriter) Write(row pipeline.Row) error {
	if w.closed {
		return ErrAlreadyClosed
	}

	for k := range row {
		if _, ok := w.schema.Lookup(k); !ok {
			return fmt.Errorf("filewriter: row column %q not in schema", k)
		}
	}

	if err := w.encoder.Encode(row); err != nil {
		return fmt.Errorf("filewriter: encode row: %w", err)
	}
	w.count++
	return nil
}

// Close converts the spill into the final parquet file. Idempotent: a
// second Close returns the first call's Result.
func (w *ParquetWriter) Close() (Result, error) {
	if w.closed {
		return w.result, nil
	}
	w.closed = true

	spillName := w.spill.Name()
	defer func() { _ = w.fs.Remove(spillName) }()

	if err := w.spill.Close(); err != nil {
		return Result{}, fmt.Errorf("filewriter: close spill: %w", err)
	}

	in, err := w.fs.Open(spillName)
	if err != nil {
		return Result{}, fmt.Errorf("filewriter: reopen spill: %w", err)
	}
	defer func() { _ = in.Close() }()

	if err := w.fs.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return Result{}, fmt.Errorf("filewriter: create output dir: %w", err)
	}
	out, err := w.fs.Create(w.path)
	if err != nil {
		return Result{}, fmt.Errorf("filewriter: create output file: %w", err)
	}

	pw := parquet.NewGenericWriter[map[string]any](out, w.pqSchema)

	decoder := w.codec.NewDecoder(in)
	row := make(pipeline.Row)
	var written int64
	for {
		if err := decoder.Decode(row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			_ = pw.Close()
			_ = out.Close()
			_ = w.fs.Remove(w.path)
			return Result{}, fmt.Errorf("filewriter: decode spill row: %w", err)
		}

		if _, err := pw.Write([]map[string]any{row}); err != nil {
			_ = pw.Close()
			_ = out.Close()
			_ = w.fs.Remove(w.path)
			return Result{}, fmt.Errorf("filewriter: write row: %w", err)
		}
		written++
	}

	if err := pw.Close(); err != nil {
		_ = out.Close()
		return Result{}, fmt.Errorf("filewriter: close parquet writer: %w", err)
	}
	if err := out.Close(); err != nil {
		return Result{}, fmt.Errorf("filewriter: close output file: %w", err)
	}

	w.result = Result{
		FileName:    w.path,
		RecordCount: written,
		FileSize:    FileSizeUnavailable,
	}
	if info, err := w.fs.Stat(w.path); err == nil {
		w.result.FileSize = info.Size()
	}
	return w.result, nil
}

// Abort discards the spill and writes nothing.
func (w *ParquetWriter) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	if w.spill != nil {
		name := w.spill.Name()
		_ = w.spill.Close()
		_ = w.fs.Remove(name)
	}
}
