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

package datasource

import "github.com/cardinalhq/lakeflow/internal/filereader"

// Statistics are aggregate counters folded over file footers. Immutable
// value; a zero Statistics is the aggregate of zero files.
type Statistics struct {
	RowCount          int64
	CompressedBytes   int64
	UncompressedBytes int64
}

// AggregateStatistics folds footer metadata across all descriptors. It
// never opens file contents and never fails; an empty input yields the
// zero value.
func AggregateStatistics(descs []*filereader.FileDescriptor) Statistics {
	var s Statistics
	for _, d := range descs {
		s.RowCount += d.RowCount
		s.CompressedBytes += d.CompressedBytes
		s.UncompressedBytes += d.UncompressedBytes
	}
	return s
}
