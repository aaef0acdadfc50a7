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
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// writeParquet writes rows as a parquet file at path on fs.
func writeParquet(t *testing.T, fs afero.Fs, path string, schema *tableschema.Schema, rows []pipeline.Row) {
	t.Helper()

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[map[string]any](&buf, schema.ParquetSchema("test"))
	for _, row := range rows {
		_, err := w.Write([]map[string]any{row})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func eventSchema(t *testing.T) *tableschema.Schema {
	t.Helper()
	s, err := tableschema.New(
		tableschema.Field{Name: "id", Type: tableschema.Int64()},
		tableschema.Field{Name: "state", Type: tableschema.String()},
	)
	require.NoError(t, err)
	return s
}
