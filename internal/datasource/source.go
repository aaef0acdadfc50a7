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

// Package datasource exposes a partitioned columnar dataset as a merged
// schema, per-file streaming parts, and footer-only statistics.
package datasource

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/lakeflow/internal/catalog"
	"github.com/cardinalhq/lakeflow/internal/filereader"
	"github.com/cardinalhq/lakeflow/internal/logctx"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// footerConcurrency bounds how many file footers are read at once during
// schema and statistics computation.
const footerConcurrency = 8

// Option configures a Source.
type Option func(*Source)

// WithPredicate attaches an opaque row filter carried by every part.
func WithPredicate(pred filereader.Predicate) Option {
	return func(s *Source) { s.pred = pred }
}

// WithReaderFactory overrides the default parquet reader factory.
func WithReaderFactory(factory filereader.Factory) Option {
	return func(s *Source) { s.factory = factory }
}

// Source is the orchestrator over one discovered dataset. Discovery runs
// once at construction; the file order is whatever the catalog enumerated
// and is never re-sorted, so consumers must not assume a stable ordering
// across runs.
type Source struct {
	fs    afero.Fs
	loc   catalog.DatasetLocation
	files []string

	pred    filereader.Predicate
	factory filereader.Factory
}

// New discovers the files matching loc through cat and returns a source
// over them.
func New(ctx context.Context, cat catalog.Catalog, fs afero.Fs, loc catalog.DatasetLocation, opts ...Option) (*Source, error) {
	files, err := cat.ListFiles(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("datasource: list files: %w", err)
	}

	s := &Source{
		fs:    fs,
		loc:   loc,
		files: files,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = filereader.NewParquetFactory(fs)
	}

	logctx.FromContext(ctx).Debug("discovered dataset files",
		"root", loc.Root, "pattern", loc.Pattern, "count", len(files))

	return s, nil
}

// Files returns the discovered file paths in enumeration order.
func (s *Source) Files() []string {
	return s.files
}

// Schema loads every file's schema from its footer and merges them into
// one superschema. This is a hard precondition: any unreadable or empty
// file fails the whole call. Footers load concurrently, but the merge
// runs in discovery order so the merged field order is deterministic for
// a given enumeration.
func (s *Source) Schema(ctx context.Context) (*tableschema.Schema, error) {
	descs, err := s.loadFooters(ctx)
	if err != nil {
		return nil, err
	}

	schemas := make([]*tableschema.Schema, len(descs))
	for i, d := range descs {
		if d.RowCount == 0 {
			return nil, &filereader.EmptyFileError{Path: d.Path}
		}
		schemas[i] = d.Schema
	}
	return tableschema.Merge(schemas)
}

// Parts returns one part per discovered file, each carrying the
// configured predicate.
func (s *Source) Parts() []*Part {
	parts := make([]*Part, len(s.files))
	for i, path := range s.files {
		parts[i] = newPart(path, s.factory, s.pred)
	}
	return parts
}

// Statistics folds the footer metadata of every discovered file. The
// configured predicate is ignored: predicate-aware counts would require a
// full scan, and footer metadata is all this path reads.
func (s *Source) Statistics(ctx context.Context) (Statistics, error) {
	descs, err := s.loadFooters(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return AggregateStatistics(descs), nil
}

func (s *Source) loadFooters(ctx context.Context) ([]*filereader.FileDescriptor, error) {
	descs := make([]*filereader.FileDescriptor, len(s.files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(footerConcurrency)
	for i, path := range s.files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			desc, err := filereader.LoadFooter(s.fs, path)
			if err != nil {
				return err
			}
			descs[i] = desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descs, nil
}
