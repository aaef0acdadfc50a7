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
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/spf13/afero"
)

const existsCacheTTL = 30 * time.Minute

// FSCatalog is a filesystem-backed Catalog: a partition exists when its
// directory does. Existence checks are memoized in a TTL cache since a
// partition, once created, never goes away during a run.
type FSCatalog struct {
	fs afero.Fs

	mu     sync.Mutex
	tables map[string]string

	exists *ttlcache.Cache[string, struct{}]
}

var _ Catalog = (*FSCatalog)(nil)

func NewFSCatalog(fs afero.Fs) *FSCatalog {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, struct{}](existsCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
		ttlcache.WithCapacity[string, struct{}](1_000_000),
	)
	go cache.Start()

	return &FSCatalog{
		fs:     fs,
		tables: make(map[string]string),
		exists: cache,
	}
}

// RegisterTable maps a table name to the directory its partitions live
// under.
func (c *FSCatalog) RegisterTable(table, basePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[table] = basePath
}

func (c *FSCatalog) ListFiles(_ context.Context, loc DatasetLocation) ([]string, error) {
	return afero.Glob(c.fs, filepath.Join(loc.Root, loc.Pattern))
}

func (c *FSCatalog) TableBasePath(_ context.Context, table string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	base, ok := c.tables[table]
	if !ok {
		return "", ErrUnknownTable
	}
	return base, nil
}

func (c *FSCatalog) PartitionExists(_ context.Context, _ string, partitionPath string) (bool, error) {
	if c.exists.Get(partitionPath) != nil {
		return true, nil
	}
	ok, err := afero.DirExists(c.fs, partitionPath)
	if err != nil {
		return false, err
	}
	if ok {
		c.exists.Set(partitionPath, struct{}{}, ttlcache.DefaultTTL)
	}
	return ok, nil
}

func (c *FSCatalog) CreatePartition(_ context.Context, _ string, partitionPath string, _ []KeyValue) error {
	// MkdirAll is already idempotent, which covers the tolerate-existing
	// requirement.
	if err := c.fs.MkdirAll(partitionPath, 0o755); err != nil {
		return &PartitionCreateError{Path: partitionPath, Err: err}
	}
	c.exists.Set(partitionPath, struct{}{}, ttlcache.DefaultTTL)
	return nil
}
