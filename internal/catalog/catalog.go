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

// Package catalog defines the file-system/catalog service the source and
// sink call into: dataset file enumeration, table base paths, and partition
// existence/creation. Two implementations are provided, a filesystem-backed
// one and an in-memory one for tests.
package catalog

import "context"

// DatasetLocation is a pattern resolving to concrete files: a root path
// plus a glob pattern relative to it. Immutable.
type DatasetLocation struct {
	Root    string
	Pattern string
}

// KeyValue is one partition-column value pair. The order of a []KeyValue is
// the catalog's declared partition-column order for the table.
type KeyValue struct {
	Column string
	Value  string
}

// Catalog tracks which partitions exist for a table and where a table's
// data lives. CreatePartition must tolerate being asked for a partition
// that already exists; callers ensure at most one call per partition per
// run, but a crashed previous run may have left the partition behind.
type Catalog interface {
	// ListFiles enumerates files matching the dataset location. The
	// enumeration order is whatever the backing store yields; callers
	// must not assume a particular ordering across runs.
	ListFiles(ctx context.Context, loc DatasetLocation) ([]string, error)

	// TableBasePath resolves the directory all of a table's partitions
	// live under.
	TableBasePath(ctx context.Context, table string) (string, error)

	// PartitionExists reports whether the partition at the given path
	// exists for the table.
	PartitionExists(ctx context.Context, table, partitionPath string) (bool, error)

	// CreatePartition records a new partition at the given path with the
	// given key.
	CreatePartition(ctx context.Context, table, partitionPath string, key []KeyValue) error
}
