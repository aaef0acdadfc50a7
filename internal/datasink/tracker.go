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

package datasink

import (
	"context"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cardinalhq/lakeflow/internal/catalog"
	"github.com/cardinalhq/lakeflow/internal/logctx"
)

// partitionTracker is the only state shared across sink workers besides
// the row queue: a thread-safe set of partition paths known to exist this
// run, plus the mutex serializing catalog create calls.
//
// On a miss in dynamic mode the set is checked outside the lock, then
// re-checked under it before the catalog create call, so partition-miss
// traffic is not serialized through the lock while the create still
// happens at most once per partition per run.
type partitionTracker struct {
	cat     catalog.Catalog
	table   string
	dynamic bool

	known    mapset.Set[string]
	createMu sync.Mutex
}

func newPartitionTracker(cat catalog.Catalog, table string, dynamic bool) *partitionTracker {
	return &partitionTracker{
		cat:     cat,
		table:   table,
		dynamic: dynamic,
		known:   mapset.NewSet[string](),
	}
}

// ensure makes the route's partition usable, creating it when dynamic
// partitioning is enabled. Static mode never creates partitions: an
// unknown partition fails with *catalog.PartitionNotFoundError.
func (t *partitionTracker) ensure(ctx context.Context, route Route) error {
	if t.known.Contains(route.Path) {
		return nil
	}

	if !t.dynamic {
		exists, err := t.cat.PartitionExists(ctx, t.table, route.Path)
		if err != nil {
			return fmt.Errorf("datasink: partition lookup: %w", err)
		}
		if !exists {
			return &catalog.PartitionNotFoundError{Path: route.Path}
		}
		t.known.Add(route.Path)
		return nil
	}

	t.createMu.Lock()
	defer t.createMu.Unlock()
	if t.known.Contains(route.Path) {
		return nil
	}

	if err := t.cat.CreatePartition(ctx, t.table, route.Path, route.Key); err != nil {
		return err
	}
	t.known.Add(route.Path)

	partitionsCreatedCounter.Add(ctx, 1)
	logctx.FromContext(ctx).Info("created partition", "path", route.Path)
	return nil
}
