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

package catalog

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_Partitions(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()
	cat.AddTable("events", "/data/events")

	exists, err := cat.PartitionExists(ctx, "events", "/data/events/state=ca")
	require.NoError(t, err)
	assert.False(t, exists)

	key := []KeyValue{{Column: "state", Value: "ca"}}
	require.NoError(t, cat.CreatePartition(ctx, "events", "/data/events/state=ca", key))
	require.NoError(t, cat.CreatePartition(ctx, "events", "/data/events/state=ca", key))

	exists, err = cat.PartitionExists(ctx, "events", "/data/events/state=ca")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 2, cat.CreateCalls("/data/events/state=ca"))
}

func TestMemoryCatalog_UnknownTable(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()

	_, err := cat.TableBasePath(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownTable)

	err = cat.CreatePartition(ctx, "missing", "/x/y", nil)
	var createErr *PartitionCreateError
	require.ErrorAs(t, err, &createErr)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestMemoryCatalog_ListFiles(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog()
	cat.AddFile("/datasets/in/a.parquet")
	cat.AddFile("/datasets/in/b.parquet")
	cat.AddFile("/datasets/in/notes.txt")

	files, err := cat.ListFiles(ctx, DatasetLocation{Root: "/datasets/in", Pattern: "*.parquet"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/datasets/in/a.parquet", "/datasets/in/b.parquet"}, files)
}

func TestFSCatalog_ListFiles(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/a.parquet", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/b.parquet", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/skip.json", []byte("x"), 0o644))

	cat := NewFSCatalog(fs)
	files, err := cat.ListFiles(ctx, DatasetLocation{Root: "/in", Pattern: "*.parquet"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFSCatalog_Partitions(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	cat := NewFSCatalog(fs)
	cat.RegisterTable("events", "/tables/events")

	base, err := cat.TableBasePath(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, "/tables/events", base)

	partition := "/tables/events/state=ny"
	exists, err := cat.PartitionExists(ctx, "events", partition)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cat.CreatePartition(ctx, "events", partition, []KeyValue{{Column: "state", Value: "ny"}}))

	exists, err = cat.PartitionExists(ctx, "events", partition)
	require.NoError(t, err)
	assert.True(t, exists)

	// creating again is tolerated
	require.NoError(t, cat.CreatePartition(ctx, "events", partition, nil))
}
