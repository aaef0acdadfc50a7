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
	"sync/atomic"

	"github.com/cardinalhq/lakeflow/internal/filewriter"
	"github.com/cardinalhq/lakeflow/internal/logctx"
	"github.com/cardinalhq/lakeflow/internal/pipeline"
)

// worker drains the shared row queue into its own writer cache. Each
// worker owns its cache exclusively, so the only cross-worker contention
// is the queue itself and the partition tracker.
type worker struct {
	id      int
	queue   <-chan pipeline.Row
	router  *Router
	cache   *writerCache
	written *atomic.Int64
}

// run consumes rows until the queue is closed, then finalizes this
// worker's output files. A write failure terminates only this worker:
// its open writers are aborted, the failed row is logged for recovery,
// and the error is reported to Close. The remaining workers keep
// draining the queue.
func (w *worker) run(ctx context.Context) ([]filewriter.Result, error) {
	for row := range w.queue {
		if err := w.write(ctx, row); err != nil {
			writeFailuresCounter.Add(ctx, 1)
			logctx.FromContext(ctx).Error("write failed, terminating worker",
				"worker", w.id, "error", err, "row", row)
			w.cache.abortAll()
			return nil, &WriteError{Worker: w.id, Err: err}
		}
	}
	return w.cache.closeAll()
}

func (w *worker) write(ctx context.Context, row pipeline.Row) error {
	route := w.router.Route(row)
	wr, err := w.cache.getOrCreate(ctx, route)
	if err != nil {
		return err
	}
	if err := wr.Write(w.router.StripPartitionColumns(row)); err != nil {
		return err
	}
	w.written.Add(1)
	rowsWrittenCounter.Add(ctx, 1)
	return nil
}
