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

import "time"

// DefaultDrainTimeout bounds how long Close waits for workers to drain
// before giving up and cleaning up anyway.
const DefaultDrainTimeout = 60 * time.Second

// Config contains all options for creating a Sink.
type Config struct {
	// Table is the catalog table rows are written into.
	Table string

	// PartitionColumns are the table's partition columns in the
	// catalog's declared order. Matched case-insensitively against the
	// source schema. Fixed for the lifetime of the sink.
	PartitionColumns []string

	// WorkerCount is the number of concurrent writer workers.
	WorkerCount int

	// QueueCapacity bounds the row queue; a full queue blocks Write.
	// This is the sink's sole flow-control mechanism.
	QueueCapacity int

	// DynamicPartitioning creates partitions on demand as new partition
	// keys are observed. When false, routing to a partition the catalog
	// does not know about fails the row's worker.
	DynamicPartitioning bool

	// IncludePartitionsInData keeps partition-column values in written
	// rows. When false they are stripped; the values are recoverable
	// from the partition path.
	IncludePartitionsInData bool

	// RunID names this run in output files. Defaults to a fresh ULID.
	RunID string

	// DrainTimeout bounds the Close drain wait. Defaults to
	// DefaultDrainTimeout.
	DrainTimeout time.Duration
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Table == "" {
		return &ConfigError{Field: "Table", Message: "cannot be empty"}
	}
	if len(c.PartitionColumns) == 0 {
		return &ConfigError{Field: "PartitionColumns", Message: "cannot be empty"}
	}
	if c.WorkerCount <= 0 {
		return &ConfigError{Field: "WorkerCount", Message: "must be positive"}
	}
	if c.QueueCapacity <= 0 {
		return &ConfigError{Field: "QueueCapacity", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "datasink config: " + e.Field + " " + e.Message
}
