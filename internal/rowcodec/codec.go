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

// Package rowcodec provides streaming encoding/decoding for Row data.
// The file writer spills rows through a codec before converting them to
// parquet at close time.
package rowcodec

import (
	"io"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
)

// Codec encodes and decodes rows.
type Codec interface {
	// NewEncoder creates a new encoder that writes to the given writer.
	NewEncoder(w io.Writer) Encoder

	// NewDecoder creates a new decoder that reads from the given reader.
	NewDecoder(r io.Reader) Decoder
}

// Encoder is the streaming encode side of a Codec.
type Encoder interface {
	// Encode writes one row in the codec's format.
	Encode(row pipeline.Row) error
}

// Decoder is the streaming decode side of a Codec.
type Decoder interface {
	// Decode reads the next row into the supplied map, which is cleared
	// first. Returns io.EOF when no more data is available.
	Decode(into pipeline.Row) error
}
