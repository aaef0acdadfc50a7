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

package filereader

import (
	"context"

	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
	"github.com/cardinalhq/lakeflow/internal/tableschema"
)

// FilteringReader wraps another Reader and yields only the rows its
// predicate accepts.
type FilteringReader struct {
	inner Reader
	pred  Predicate
}

var _ Reader = (*FilteringReader)(nil)

func NewFilteringReader(inner Reader, pred Predicate) *FilteringReader {
	return &FilteringReader{inner: inner, pred: pred}
}

func (r *FilteringReader) GetRow(ctx context.Context) (pipeline.Row, error) {
	for {
		row, err := r.inner.GetRow(ctx)
		if err != nil {
			return nil, err
		}
		if r.pred(row) {
			return row, nil
		}
		rowsFilteredCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("reader", "FilteringReader"),
		))
	}
}

func (r *FilteringReader) Schema() *tableschema.Schema {
	return r.inner.Schema()
}

func (r *FilteringReader) Close() error {
	return r.inner.Close()
}
