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

// Package datasink writes rows into a partitioned table: rows enter a
// bounded queue, a pool of workers routes each row to its partition and
// appends it to a per-worker output file, and Close drains the queue and
// finalizes every file.
package datasink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/lakeflow/internal/catalog"
	"github.com/cardinalhq/lakeflow/internal/filewriter"
	"github.com/cardinalhq/lakeflow/internal/idgen"
	"github.com/cardinalhq/lakeflow/internal/logctx"
	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

type sinkState int

const (
	stateOpen sinkState = iota
	stateDraining
	stateClosed
)

// Sink accepts rows concurrently and writes them to partition files.
// Write may be called from any number of goroutines. Close must be
// called exactly once; it drains in-flight rows and returns the
// metadata of every file written.
type Sink struct {
	cfg    Config
	router *Router
	schema *tableschema.Schema // data schema, partition columns stripped

	queue chan pipeline.Row

	stateMu sync.RWMutex
	state   sinkState

	// Queue closure broadcasts termination to all workers at once;
	// deadCh closure unblocks writers when no worker is left to drain.
	aliveMu sync.Mutex
	alive   int
	deadCh  chan struct{}

	wg      sync.WaitGroup
	results [][]filewriter.Result // indexed by worker, read after wg.Wait
	errs    []error               // likewise

	rowsSubmitted atomic.Int64
	rowsWritten   atomic.Int64
}

// Stats is a point-in-time snapshot of sink activity.
type Stats struct {
	// RowsSubmitted counts rows accepted by Write so far.
	RowsSubmitted int64

	// RowsWritten counts rows handed to partition writers so far.
	RowsWritten int64

	// WorkersAlive is the number of workers still draining the queue.
	WorkersAlive int
}

// New validates the configuration, resolves the table's partition layout
// against the source schema, and starts the worker pool. The context
// passed here scopes setup only; workers run until Close so they can
// drain even after the caller's context ends.
func New(ctx context.Context, cat catalog.Catalog, cfg Config, sourceSchema *tableschema.Schema, factory filewriter.Factory) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RunID == "" {
		cfg.RunID = idgen.NewRunID()
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}

	basePath, err := cat.TableBasePath(ctx, cfg.Table)
	if err != nil {
		return nil, err
	}
	router, err := NewRouter(sourceSchema, cfg.PartitionColumns, basePath, cfg.IncludePartitionsInData)
	if err != nil {
		return nil, err
	}

	s := &Sink{
		cfg:     cfg,
		router:  router,
		schema:  router.DataSchema(sourceSchema),
		queue:   make(chan pipeline.Row, cfg.QueueCapacity),
		alive:   cfg.WorkerCount,
		deadCh:  make(chan struct{}),
		results: make([][]filewriter.Result, cfg.WorkerCount),
		errs:    make([]error, cfg.WorkerCount),
	}

	tracker := newPartitionTracker(cat, cfg.Table, cfg.DynamicPartitioning)
	workerCtx := logctx.WithAttrs(context.WithoutCancel(ctx),
		"sink", idgen.DefaultFlakeGenerator.NextID(),
		"table", cfg.Table,
		"run", cfg.RunID,
	)

	s.wg.Add(cfg.WorkerCount)
	for i := range cfg.WorkerCount {
		w := &worker{
			id:      i,
			queue:   s.queue,
			router:  router,
			cache:   newWriterCache(i, cfg.RunID, factory, s.schema, tracker),
			written: &s.rowsWritten,
		}
		go func() {
			defer s.wg.Done()
			results, err := w.run(workerCtx)
			s.results[w.id] = results
			s.errs[w.id] = err
			s.workerExited()
		}()
	}

	logctx.FromContext(ctx).Debug("sink started",
		"table", cfg.Table, "run", cfg.RunID,
		"workers", cfg.WorkerCount, "queueCapacity", cfg.QueueCapacity)
	return s, nil
}

// Schema returns the schema of rows as written, with any stripped
// partition columns removed.
func (s *Sink) Schema() *tableschema.Schema {
	return s.schema
}

// Write enqueues one row. It blocks while the queue is full; that
// blocking is the sink's flow control. The sink takes ownership of the
// row; the caller must not mutate it afterward. Returns ErrSinkClosed
// after Close has begun, ErrAllWorkersFailed when no worker remains to
// drain the queue, or the context's error if ctx ends first.
func (s *Sink) Write(ctx context.Context, row pipeline.Row) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.state != stateOpen {
		return ErrSinkClosed
	}

	select {
	case s.queue <- row:
		s.rowsSubmitted.Add(1)
		return nil
	case <-s.deadCh:
		return ErrAllWorkersFailed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting rows, waits up to the drain timeout for workers
// to finish the queue, and finalizes all output files. It returns every
// file written by workers that completed cleanly, together with any
// worker failures. A second Close returns ErrSinkClosed.
func (s *Sink) Close(ctx context.Context) ([]filewriter.Result, error) {
	s.stateMu.Lock()
	if s.state != stateOpen {
		s.stateMu.Unlock()
		return nil, ErrSinkClosed
	}
	s.state = stateDraining
	close(s.queue)
	s.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.cfg.DrainTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.setClosed()
		logctx.FromContext(ctx).Error("sink drain timed out",
			"table", s.cfg.Table, "run", s.cfg.RunID, "timeout", s.cfg.DrainTimeout)
		return nil, ErrDrainTimeout
	}
	s.setClosed()

	var results []filewriter.Result
	var errs *multierror.Error
	for _, r := range s.results {
		results = append(results, r...)
	}
	for _, err := range s.errs {
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	logctx.FromContext(ctx).Info("sink closed",
		"table", s.cfg.Table, "run", s.cfg.RunID,
		"rowsSubmitted", s.rowsSubmitted.Load(), "files", len(results))
	return results, errs.ErrorOrNil()
}

// Stats reports a snapshot of the sink's activity.
func (s *Sink) Stats() Stats {
	s.aliveMu.Lock()
	alive := s.alive
	s.aliveMu.Unlock()
	return Stats{
		RowsSubmitted: s.rowsSubmitted.Load(),
		RowsWritten:   s.rowsWritten.Load(),
		WorkersAlive:  alive,
	}
}

func (s *Sink) setClosed() {
	s.stateMu.Lock()
	s.state = stateClosed
	s.stateMu.Unlock()
}

// workerExited is called once per worker. When the last worker is gone
// deadCh is closed so blocked writers fail fast instead of waiting on a
// queue nobody drains.
func (s *Sink) workerExited() {
	s.aliveMu.Lock()
	defer s.aliveMu.Unlock()
	s.alive--
	if s.alive == 0 {
		close(s.deadCh)
	}
}
