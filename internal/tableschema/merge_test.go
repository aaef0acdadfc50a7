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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, fields ...Field) *Schema {
	t.Helper()
	s, err := New(fields...)
	require.NoError(t, err)
	return s
}

func TestMerge_UnionFirstSeenOrder(t *testing.T) {
	left := mustSchema(t,
		Field{Name: "a", Type: Int64()},
		Field{Name: "b", Type: Int64()},
	)
	right := mustSchema(t,
		Field{Name: "b", Type: Int64()},
		Field{Name: "c", Type: Int64()},
	)

	merged, err := Merge([]*Schema{left, right})
	require.NoError(t, err)

	names := make([]string, 0, merged.Len())
	for _, f := range merged.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)

	// a and c each appear in only one input, so they become nullable;
	// b appears in both and stays as declared.
	a, _ := merged.Lookup("a")
	b, _ := merged.Lookup("b")
	c, _ := merged.Lookup("c")
	assert.True(t, a.Nullable)
	assert.False(t, b.Nullable)
	assert.True(t, c.Nullable)
}

func TestMerge_TypeConflict(t *testing.T) {
	left := mustSchema(t, Field{Name: "a", Type: Int64()})
	right := mustSchema(t, Field{Name: "a", Type: String()})

	_, err := Merge([]*Schema{left, right})
	require.Error(t, err)

	var conflict *SchemaConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "a", conflict.Field)
	assert.Contains(t, conflict.Error(), `"a"`)
}

func TestMerge_Empty(t *testing.T) {
	_, err := Merge(nil)
	assert.True(t, errors.Is(err, ErrEmptySource))
}

func TestMerge_NullablePropagates(t *testing.T) {
	left := mustSchema(t, Field{Name: "a", Type: Int64(), Nullable: true})
	right := mustSchema(t, Field{Name: "a", Type: Int64()})

	merged, err := Merge([]*Schema{left, right})
	require.NoError(t, err)

	a, ok := merged.Lookup("a")
	require.True(t, ok)
	assert.True(t, a.Nullable, "nullable in any input makes the merged field nullable")
}

func TestMerge_SingleSchemaUnchanged(t *testing.T) {
	in := mustSchema(t,
		Field{Name: "ts", Type: Int64()},
		Field{Name: "msg", Type: String(), Nullable: true},
	)

	merged, err := Merge([]*Schema{in})
	require.NoError(t, err)
	assert.Equal(t, in.Fields(), merged.Fields())
}
