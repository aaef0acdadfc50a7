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

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"

	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// FileDescriptor summarizes one physical file from its footer metadata:
// row count and byte sizes, readable without decoding any data pages.
type FileDescriptor struct {
	Path              string
	RowCount          int64
	CompressedBytes   int64
	UncompressedBytes int64
	Schema            *tableschema.Schema
}

// LoadFooter reads a file's footer metadata and declared schema. Only the
// footer is read; page indexes and bloom filters are skipped.
func LoadFooter(fs afero.Fs, path string) (*FileDescriptor, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size(),
		parquet.SkipPageIndex(true),
		parquet.SkipBloomFilters(true),
	)
	if err != nil {
		return nil, fmt.Errorf("open parquet file %s: %w", path, err)
	}

	schema, err := tableschema.FromParquetFile(pf)
	if err != nil {
		return nil, fmt.Errorf("schema of %s: %w", path, err)
	}

	desc := &FileDescriptor{
		Path:     path,
		RowCount: pf.NumRows(),
		Schema:   schema,
	}
	for _, rg := range pf.Metadata().RowGroups {
		desc.CompressedBytes += rg.TotalCompressedSize
		desc.UncompressedBytes += rg.TotalByteSize
	}
	return desc, nil
}
