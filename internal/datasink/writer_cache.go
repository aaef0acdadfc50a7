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
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/lakeflow/internal/filewriter"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// writerCache lazily opens and memoizes one output writer per partition
// path for a single worker. Each worker owns one cache, so lookups need
// no locking and no two workers ever share a writer; distinct workers
// writing the same partition get distinct output files.
type writerCache struct {
	worker  int
	runID   string
	factory filewriter.Factory
	schema  *tableschema.Schema
	tracker *partitionTracker

	handles map[string]filewriter.RowWriter
	seq     int64
}

func newWriterCache(worker int, runID string, factory filewriter.Factory, schema *tableschema.Schema, tracker *partitionTracker) *writerCache {
	return &writerCache{
		worker:  worker,
		runID:   runID,
		factory: factory,
		schema:  schema,
		tracker: tracker,
		handles: make(map[string]filewriter.RowWriter),
	}
}

// getOrCreate resolves the writer for a route, creating the partition
// through the tracker on first use.
func (c *writerCache) getOrCreate(ctx context.Context, route Route) (filewriter.RowWriter, error) {
	if w, ok := c.handles[route.Path]; ok {
		return w, nil
	}

	if err := c.tracker.ensure(ctx, route); err != nil {
		return nil, err
	}

	// Output names carry (run id, worker id, sequence) so concurrent
	// workers and runs never collide, with no reliance on clocks.
	name := fmt.Sprintf("%s_w%d_%06d.parquet", c.runID, c.worker, c.seq)
	c.seq++

	w, err := c.factory(c.schema, filepath.Join(route.Path, name))
	if err != nil {
		return nil, fmt.Errorf("datasink: open writer for %s: %w", route.Path, err)
	}
	c.handles[route.Path] = w
	return w, nil
}

// closeAll closes every handle exactly once, best-effort: a failure on
// one handle does not prevent closing the rest, but all failures are
// reported.
func (c *writerCache) closeAll() ([]filewriter.Result, error) {
	var results []filewriter.Result
	var errs *multierror.Error
	for path, w := range c.handles {
		result, err := w.Close()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close writer for %s: %w", path, err))
			continue
		}
		results = append(results, result)
	}
	clear(c.handles)
	return results, errs.ErrorOrNil()
}

// abortAll discards every open handle without producing output files.
func (c *writerCache) abortAll() {
	for _, w := range c.handles {
		w.Abort()
	}
	clear(c.handles)
}
