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

package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownTable is returned when a table has not been registered with
// the catalog.
var ErrUnknownTable = errors.New("catalog: unknown table")

// PartitionNotFoundError is returned by sinks in static partitioning mode
// when a row routes to a partition the catalog does not know about.
type PartitionNotFoundError struct {
	Path string
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("catalog: partition not found: %s", e.Path)
}

// PartitionCreateError wraps a failed catalog create call.
type PartitionCreateError struct {
	Path string
	Err  error
}

func (e *PartitionCreateError) Error() string {
	return fmt.Sprintf("catalog: create partition %s: %v", e.Path, e.Err)
}

func (e *PartitionCreateError) Unwrap() error {
	return e.Err
}
