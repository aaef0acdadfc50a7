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
	"errors"
	"fmt"
)

var (
	// ErrSinkClosed is returned by Write and Close once draining has
	// begun.
	ErrSinkClosed = errors.New("datasink: sink is closed")

	// ErrAllWorkersFailed is returned by Write when no worker is left
	// to drain the queue.
	ErrAllWorkersFailed = errors.New("datasink: all workers have failed")

	// ErrDrainTimeout is reported by Close when workers did not drain
	// within the configured timeout.
	ErrDrainTimeout = errors.New("datasink: drain timed out")
)

// WriteError is a per-row write failure. It terminates the owning worker;
// other workers continue uninterrupted.
type WriteError struct {
	Worker int
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("datasink: worker %d write failed: %v", e.Worker, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
