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

package tableschema

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/parquet-go/parquet-go/format"
)

// Field type constructors. These are the leaf types supported across the
// read and write paths.
func Int8() parquet.Node    { return parquet.Int(8) }
func Int16() parquet.Node   { return parquet.Int(16) }
func Int32() parquet.Node   { return parquet.Int(32) }
func Int64() parquet.Node   { return parquet.Int(64) }
func Float64() parquet.Node { return parquet.Leaf(parquet.DoubleType) }
func Bool() parquet.Node    { return parquet.Leaf(parquet.BooleanType) }
func Binary() parquet.Node  { return parquet.Leaf(parquet.ByteArrayType) }
func String() parquet.Node  { return parquet.String() }

var (
	enc = &zstd.Codec{Level: zstd.SpeedBetterCompression}

	nodeTypeMap = map[string]parquet.Node{
		"INT8":       Int8(),
		"INT16":      Int16(),
		"INT32":      Int32(),
		"INT64":      Int64(),
		"DOUBLE":     Float64(),
		"BOOLEAN":    Bool(),
		"BYTE_ARRAY": Binary(),
	}
	logicalNodes = map[string]parquet.Node{
		"STRING": String(),
	}
)

// wrapPhysical applies the on-disk encoding used for every written column:
// zstd compression, dictionary encoding for leaves, and Optional so a row
// may omit any column.
func wrapPhysical(n parquet.Node) parquet.Node {
	n = parquet.Compressed(n, enc)
	if n.Leaf() {
		n = parquet.Encoded(n, parquet.LookupEncoding(format.Encoding(format.RLEDictionary)))
	}
	n = parquet.Optional(n)
	return n
}

// ParquetNodes returns the physical node map for writing this schema.
func (s *Schema) ParquetNodes() map[string]parquet.Node {
	nodes := make(map[string]parquet.Node, len(s.fields))
	for _, f := range s.fields {
		nodes[f.Name] = wrapPhysical(f.Type)
	}
	return nodes
}

// ParquetSchema builds a writable parquet schema. parquet-go orders group
// fields alphabetically on disk; the logical first-seen field order lives
// only in the Schema itself.
func (s *Schema) ParquetSchema(name string) *parquet.Schema {
	return parquet.NewSchema(name, parquet.Group(s.ParquetNodes()))
}

func schemaTypeToNode(typ, logical string) (parquet.Node, error) {
	if node, ok := logicalNodes[logical]; ok {
		return node, nil
	}
	if node, ok := nodeTypeMap[typ]; ok {
		return node, nil
	}
	return nil, fmt.Errorf("tableschema: unsupported type: %s, logical %s", typ, logical)
}

// FromParquetFile extracts a schema from a parquet file's footer metadata,
// preserving the file's declared column order. No data pages are read.
func FromParquetFile(pf *parquet.File) (*Schema, error) {
	s := &Schema{index: make(map[string]int)}

	for _, el := range pf.Metadata().Schema {
		if el.Type == nil {
			// group node, not a leaf column
			continue
		}
		typ := el.Type.String()
		logicalType := ""
		if el.LogicalType != nil {
			logicalType = el.LogicalType.String()
		}

		node, err := schemaTypeToNode(typ, logicalType)
		if err != nil {
			return nil, err
		}

		nullable := el.RepetitionType == nil || *el.RepetitionType != format.Required

		if i, ok := s.index[el.Name]; ok {
			if !parquet.EqualNodes(s.fields[i].Type, node) {
				return nil, &SchemaConflictError{Field: el.Name, Left: s.fields[i].Type, Right: node}
			}
			continue
		}
		if err := s.add(Field{Name: el.Name, Type: node, Nullable: nullable}); err != nil {
			return nil, err
		}
	}

	return s, nil
}
