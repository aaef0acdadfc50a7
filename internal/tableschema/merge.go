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
	"errors"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ErrEmptySource is returned when a merge is attempted over zero schemas,
// which makes schema inference impossible.
var ErrEmptySource = errors.New("tableschema: no input schemas")

// SchemaConflictError reports a field that appears in multiple input
// schemas with incompatible types.
type SchemaConflictError struct {
	Field string
	Left  parquet.Node
	Right parquet.Node
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("tableschema: conflict on field %q: %s vs %s", e.Field, e.Left, e.Right)
}

// Merge reconciles per-file schemas into one superschema.
//
// Fields are unioned by name in first-seen order across the input sequence.
// A field that appears with incompatible types fails with
// *SchemaConflictError. A field absent from some inputs, or nullable in any
// input, is nullable in the result. Merging zero schemas fails with
// ErrEmptySource.
func Merge(schemas []*Schema) (*Schema, error) {
	if len(schemas) == 0 {
		return nil, ErrEmptySource
	}

	merged := &Schema{index: make(map[string]int)}
	presentIn := make(map[string]int)

	for _, sc := range schemas {
		for _, f := range sc.fields {
			presentIn[f.Name]++
			i, ok := merged.index[f.Name]
			if !ok {
				merged.index[f.Name] = len(merged.fields)
				merged.fields = append(merged.fields, f)
				continue
			}
			if !parquet.EqualNodes(merged.fields[i].Type, f.Type) {
				return nil, &SchemaConflictError{
					Field: f.Name,
					Left:  merged.fields[i].Type,
					Right: f.Type,
				}
			}
			merged.fields[i].Nullable = merged.fields[i].Nullable || f.Nullable
		}
	}

	// Fields missing from any input schema may hold no value for that
	// file's rows, so they become nullable in the merged schema.
	for i := range merged.fields {
		if presentIn[merged.fields[i].Name] < len(schemas) {
			merged.fields[i].Nullable = true
		}
	}

	return merged, nil
}
