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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/cardinalhq/lakeflow/internal/datasink")

	rowsWrittenCounter       metric.Int64Counter
	writeFailuresCounter     metric.Int64Counter
	partitionsCreatedCounter metric.Int64Counter
)

func init() {
	var err error
	rowsWrittenCounter, err = meter.Int64Counter(
		"lakeflow.sink.rows.written",
		metric.WithDescription("Rows written to partition output files"),
	)
	if err != nil {
		panic(err)
	}
	writeFailuresCounter, err = meter.Int64Counter(
		"lakeflow.sink.write.failures",
		metric.WithDescription("Row writes that failed and terminated a worker"),
	)
	if err != nil {
		panic(err)
	}
	partitionsCreatedCounter, err = meter.Int64Counter(
		"lakeflow.sink.partitions.created",
		metric.WithDescription("Partitions created in the catalog"),
	)
	if err != nil {
		panic(err)
	}
}
