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
	"path/filepath"
	"sync"
)

// MemoryCatalog is a map-backed Catalog for tests. It records every
// CreatePartition call so tests can assert the at-most-once-per-partition
// guarantee under concurrency.
type MemoryCatalog struct {
	mu          sync.Mutex
	tables      map[string]string
	partitions  map[string]map[string][]KeyValue
	files       []string
	createCalls map[string]int
}

var _ Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		tables:      make(map[string]string),
		partitions:  make(map[string]map[string][]KeyValue),
		createCalls: make(map[string]int),
	}
}

// AddTable registers a table and its base path.
func (c *MemoryCatalog) AddTable(table, basePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[table] = basePath
	if c.partitions[table] == nil {
		c.partitions[table] = make(map[string][]KeyValue)
	}
}

// AddPartition pre-creates a partition, as static partitioning setups do.
func (c *MemoryCatalog) AddPartition(table, partitionPath string, key []KeyValue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.partitions[table] == nil {
		c.partitions[table] = make(map[string][]KeyValue)
	}
	c.partitions[table][partitionPath] = key
}

// AddFile registers a discoverable file path.
func (c *MemoryCatalog) AddFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, path)
}

func (c *MemoryCatalog) ListFiles(_ context.Context, loc DatasetLocation) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pattern := filepath.Join(loc.Root, loc.Pattern)
	var out []string
	for _, f := range c.files {
		ok, err := filepath.Match(pattern, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) TableBasePath(_ context.Context, table string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	base, ok := c.tables[table]
	if !ok {
		return "", ErrUnknownTable
	}
	return base, nil
}

func (c *MemoryCatalog) PartitionExists(_ context.Context, table, partitionPath string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	parts, ok := c.partitions[table]
	if !ok {
		return false, ErrUnknownTable
	}
	_, exists := parts[partitionPath]
	return exists, nil
}

func (c *MemoryCatalog) CreatePartition(_ context.Context, table, partitionPath string, key []KeyValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.createCalls[partitionPath]++

	parts, ok := c.partitions[table]
	if !ok {
		return &PartitionCreateError{Path: partitionPath, Err: ErrUnknownTable}
	}
	// Creating an existing partition is tolerated.
	parts[partitionPath] = key
	return nil
}

// CreateCalls reports how many times CreatePartition was invoked for the
// given partition path.
func (c *MemoryCatalog) CreateCalls(partitionPath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createCalls[partitionPath]
}

// Partitions returns the partition paths known for a table.
func (c *MemoryCatalog) Partitions(table string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for p := range c.partitions[table] {
		out = append(out, p)
	}
	return out
}
