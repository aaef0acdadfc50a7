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
	"fmt"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	rowsInCounter       otelmetric.Int64Counter
	rowsOutCounter      otelmetric.Int64Counter
	rowsFilteredCounter otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/lakeflow/internal/filereader")

	var err error
	rowsInCounter, err = meter.Int64Counter(
		"lakeflow.reader.rows.in",
		otelmetric.WithDescription("Number of rows read by readers from their input source"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.in counter: %w", err))
	}

	rowsOutCounter, err = meter.Int64Counter(
		"lakeflow.reader.rows.out",
		otelmetric.WithDescription("Number of rows delivered by readers to downstream consumers"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.out counter: %w", err))
	}

	rowsFilteredCounter, err = meter.Int64Counter(
		"lakeflow.reader.rows.filtered",
		otelmetric.WithDescription("Number of rows rejected by read predicates"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.filtered counter: %w", err))
	}
}
