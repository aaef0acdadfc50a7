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
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeflow/internal/catalog"
	"github.com/cardinalhq/lakeflow/internal/filereader"
	"github.com/cardinalhq/lakeflow/internal/filewriter"
	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// captureFactory hands out in-memory writers and records everything they
// see, so tests can assert on routed rows without real files.
type captureFactory struct {
	mu      sync.Mutex
	writers []*captureWriter

	// failWhen, when set, makes Write fail for matching rows.
	failWhen func(pipeline.Row) bool

	// gate, when set, blocks every Write until the channel is closed.
	gate chan struct{}
}

func (f *captureFactory) new(_ *tableschema.Schema, path string) (filewriter.RowWriter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &captureWriter{factory: f, path: path}
	f.writers = append(f.writers, w)
	return w, nil
}

func (f *captureFactory) rows() []pipeline.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pipeline.Row
	for _, w := range f.writers {
		out = append(out, w.rows...)
	}
	return out
}

func (f *captureFactory) rowsByPath() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int)
	for _, w := range f.writers {
		out[w.path] += len(w.rows)
	}
	return out
}

type captureWriter struct {
	factory *captureFactory
	path    string
	rows    []pipeline.Row
	closed  bool
	aborted bool
}

func (w *captureWriter) Write(row pipeline.Row) error {
	if w.factory.gate != nil {
		<-w.factory.gate
	}
	w.factory.mu.Lock()
	defer w.factory.mu.Unlock()
	if w.closed || w.aborted {
		return filewriter.ErrAlreadyClosed
	}
	if w.factory.failWhen != nil && w.factory.failWhen(row) {
		return errors.New("simulated write failure")
	}
	w.rows = append(w.rows, row)
	return nil
}

func (w *captureWriter) Close() (filewriter.Result, error) {
	w.factory.mu.Lock()
	defer w.factory.mu.Unlock()
	w.closed = true
	return filewriter.Result{
		FileName:    w.path,
		RecordCount: int64(len(w.rows)),
		FileSize:    filewriter.FileSizeUnavailable,
	}, nil
}

func (w *captureWriter) Abort() {
	w.factory.mu.Lock()
	defer w.factory.mu.Unlock()
	w.aborted = true
}

func sinkSchema(t *testing.T) *tableschema.Schema {
	t.Helper()
	s, err := tableschema.New(
		tableschema.Field{Name: "id", Type: tableschema.Int64()},
		tableschema.Field{Name: "state", Type: tableschema.String()},
	)
	require.NoError(t, err)
	return s
}

func sinkConfig() Config {
	return Config{
		Table:                   "events",
		PartitionColumns:        []string{"state"},
		WorkerCount:             2,
		QueueCapacity:           16,
		DynamicPartitioning:     true,
		IncludePartitionsInData: true,
		RunID:                   "testrun",
	}
}

func TestSink_RoutesRowsToPartitions(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	factory := &captureFactory{}

	s, err := New(ctx, cat, sinkConfig(), sinkSchema(t), factory.new)
	require.NoError(t, err)

	for i := range 10 {
		state := "ca"
		if i%2 == 1 {
			state = "ny"
		}
		require.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(i), "state": state}))
	}

	results, err := s.Close(ctx)
	require.NoError(t, err)

	var total int64
	for _, r := range results {
		total += r.RecordCount
		name := r.FileName[strings.LastIndex(r.FileName, "/")+1:]
		assert.True(t, strings.HasPrefix(name, "testrun_w"), "file name %q", name)
		assert.True(t, strings.HasSuffix(name, ".parquet"))
	}
	assert.Equal(t, int64(10), total)

	byPath := factory.rowsByPath()
	var ca, ny int
	for path, n := range byPath {
		switch {
		case strings.Contains(path, "state=ca"):
			ca += n
		case strings.Contains(path, "state=ny"):
			ny += n
		default:
			t.Fatalf("unexpected output path %q", path)
		}
	}
	assert.Equal(t, 5, ca)
	assert.Equal(t, 5, ny)

	assert.ElementsMatch(t, []string{
		"/warehouse/events/state=ca",
		"/warehouse/events/state=ny",
	}, cat.Partitions("events"))
}

func TestSink_StripsPartitionColumns(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	factory := &captureFactory{}

	cfg := sinkConfig()
	cfg.IncludePartitionsInData = false
	s, err := New(ctx, cat, cfg, sinkSchema(t), factory.new)
	require.NoError(t, err)

	_, ok := s.Schema().Lookup("state")
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(1), "state": "ca"}))
	_, err = s.Close(ctx)
	require.NoError(t, err)

	rows := factory.rows()
	require.Len(t, rows, 1)
	assert.NotContains(t, rows[0], "state")
	assert.Contains(t, rows[0], "id")
}

func TestSink_WriteBlocksWhenQueueFull(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	factory := &captureFactory{gate: make(chan struct{})}

	cfg := sinkConfig()
	cfg.WorkerCount = 1
	cfg.QueueCapacity = 1
	s, err := New(ctx, cat, cfg, sinkSchema(t), factory.new)
	require.NoError(t, err)

	// First row is pulled by the worker and parked in the gated writer,
	// second fills the queue. The third write must block until a slot
	// frees, so a short deadline fails it.
	require.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(0), "state": "ca"}))
	require.Eventually(t, func() bool {
		return len(s.queue) == 0
	}, time.Second, time.Millisecond)
	require.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(1), "state": "ca"}))

	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err = s.Write(shortCtx, pipeline.Row{"id": int64(2), "state": "ca"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(factory.gate)
	results, err := s.Close(ctx)
	require.NoError(t, err)
	var total int64
	for _, r := range results {
		total += r.RecordCount
	}
	assert.Equal(t, int64(2), total)
}

func TestSink_ConcurrentWritersCreatePartitionOnce(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	factory := &captureFactory{}

	cfg := sinkConfig()
	cfg.WorkerCount = 8
	s, err := New(ctx, cat, cfg, sinkSchema(t), factory.new)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(i), "state": "ca"}))
		}()
	}
	wg.Wait()

	results, err := s.Close(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, cat.CreateCalls("/warehouse/events/state=ca"))
	var total int64
	for _, r := range results {
		total += r.RecordCount
	}
	assert.Equal(t, int64(50), total)
	stats := s.Stats()
	assert.Equal(t, int64(50), stats.RowsSubmitted)
	assert.Equal(t, int64(50), stats.RowsWritten)
	assert.Equal(t, 0, stats.WorkersAlive)
}

func TestSink_CloseIsTerminal(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	factory := &captureFactory{}

	s, err := New(ctx, cat, sinkConfig(), sinkSchema(t), factory.new)
	require.NoError(t, err)

	_, err = s.Close(ctx)
	require.NoError(t, err)

	_, err = s.Close(ctx)
	assert.ErrorIs(t, err, ErrSinkClosed)
	assert.ErrorIs(t, s.Write(ctx, pipeline.Row{"id": int64(1), "state": "ca"}), ErrSinkClosed)
}

func TestSink_StaticModeRejectsUnknownPartition(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	factory := &captureFactory{}

	cfg := sinkConfig()
	cfg.WorkerCount = 1
	cfg.DynamicPartitioning = false
	s, err := New(ctx, cat, cfg, sinkSchema(t), factory.new)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(1), "state": "nv"}))
	_, err = s.Close(ctx)
	require.Error(t, err)

	var notFound *catalog.PartitionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "/warehouse/events/state=nv", notFound.Path)
	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
	assert.Empty(t, cat.Partitions("events"))
}

func TestSink_StaticModeWritesToKnownPartition(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	cat.AddPartition("events", "/warehouse/events/state=ca",
		[]catalog.KeyValue{{Column: "state", Value: "ca"}})
	factory := &captureFactory{}

	cfg := sinkConfig()
	cfg.DynamicPartitioning = false
	s, err := New(ctx, cat, cfg, sinkSchema(t), factory.new)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(1), "state": "ca"}))
	_, err = s.Close(ctx)
	require.NoError(t, err)
	assert.Len(t, factory.rows(), 1)
}

func TestSink_WorkerFailureSurfacesInClose(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")
	factory := &captureFactory{
		failWhen: func(row pipeline.Row) bool { return row["id"] == int64(99) },
	}

	cfg := sinkConfig()
	cfg.WorkerCount = 1
	cfg.QueueCapacity = 1
	s, err := New(ctx, cat, cfg, sinkSchema(t), factory.new)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, pipeline.Row{"id": int64(99), "state": "ca"}))

	// With the lone worker gone, writes stop blocking once the dead
	// signal fires even though nothing drains the queue.
	var writeErr error
	for range 10 {
		writeErr = s.Write(ctx, pipeline.Row{"id": int64(1), "state": "ca"})
		if writeErr != nil {
			break
		}
	}
	require.ErrorIs(t, writeErr, ErrAllWorkersFailed)
	assert.Equal(t, 0, s.Stats().WorkersAlive)

	_, err = s.Close(ctx)
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 0, we.Worker)
}

func TestSink_EndToEndParquet(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	cat := catalog.NewMemoryCatalog()
	cat.AddTable("events", "/warehouse/events")

	s, err := New(ctx, cat, sinkConfig(), sinkSchema(t), filewriter.NewParquetFactory(fs, "/tmp"))
	require.NoError(t, err)

	const n = 25
	for i := range n {
		require.NoError(t, s.Write(ctx, pipeline.Row{
			"id":    int64(i),
			"state": fmt.Sprintf("s%d", i%3),
		}))
	}
	results, err := s.Close(ctx)
	require.NoError(t, err)

	var readBack int
	for _, res := range results {
		r, err := filereader.OpenParquet(fs, res.FileName)
		require.NoError(t, err)
		for {
			_, err := r.GetRow(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			readBack++
		}
		require.NoError(t, r.Close())
	}
	assert.Equal(t, n, readBack)
}
