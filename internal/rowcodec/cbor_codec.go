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

package rowcodec

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/cardinalhq/lakeflow/internal/pipeline"
)

// CBORCodec holds the CBOR encoder/decoder configuration.
type CBORCodec struct {
	em cbor.EncMode
	dm cbor.DecMode
}

var _ Codec = (*CBORCodec)(nil)

// NewCBOR creates a new CBOR codec.
func NewCBOR() (*CBORCodec, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR encoder: %w", err)
	}

	dm, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthAllowed,
		MaxNestedLevels: 20,
		IntDec:          cbor.IntDecConvertSignedOrFail, // decode integers to int64 for consistency
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR decoder: %w", err)
	}

	return &CBORCodec{em: em, dm: dm}, nil
}

// NewEncoder creates a new CBOR encoder.
func (c *CBORCodec) NewEncoder(w io.Writer) Encoder {
	return &cborEncoder{encoder: c.em.NewEncoder(w)}
}

// NewDecoder creates a new CBOR decoder.
func (c *CBORCodec) NewDecoder(r io.Reader) Decoder {
	return &cborDecoder{decoder: c.dm.NewDecoder(r)}
}

type cborEncoder struct {
	encoder *cbor.Encoder
}

func (e *cborEncoder) Encode(row pipeline.Row) error {
	return e.encoder.Encode(map[string]any(row))
}

type cborDecoder struct {
	decoder *cbor.Decoder
}

func (d *cborDecoder) Decode(into pipeline.Row) error {
	for k := range into {
		delete(into, k)
	}
	m := map[string]any(into)
	if err := d.decoder.Decode(&m); err != nil {
		if err == io.EOF {
			return err
		}
		return fmt.Errorf("decode CBOR: %w", err)
	}
	return nil
}
