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

// Package tableschema models dataset schemas as ordered, typed, nullable
// field lists and merges per-file schemas into one superschema.
package tableschema

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Field is one named, typed column. Type is an unwrapped parquet leaf node;
// physical encoding (compression, dictionary, optionality) is applied when a
// parquet schema is built for writing.
type Field struct {
	Name     string
	Type     parquet.Node
	Nullable bool
}

// Schema is an ordered list of fields with by-name lookup. Field order is
// fixed at construction and survives merging (first-seen order).
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema from the given fields, preserving their order.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := s.add(f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) add(f Field) error {
	if f.Name == "" {
		return fmt.Errorf("tableschema: field name cannot be empty")
	}
	if f.Type == nil {
		return fmt.Errorf("tableschema: field %q has no type", f.Name)
	}
	if _, ok := s.index[f.Name]; ok {
		return fmt.Errorf("tableschema: duplicate field %q", f.Name)
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
	return nil
}

// Fields returns the fields in schema order. The returned slice is shared;
// callers must not mutate it.
func (s *Schema) Fields() []Field {
	return s.fields
}

func (s *Schema) Len() int {
	return len(s.fields)
}

// Lookup finds a field by exact name.
func (s *Schema) Lookup(name string) (Field, bool) {
	if i, ok := s.index[name]; ok {
		return s.fields[i], true
	}
	return Field{}, false
}

// LookupFold finds a field by case-insensitive name. Partition column
// configuration is matched against source schemas this way.
func (s *Schema) LookupFold(name string) (Field, bool) {
	if f, ok := s.Lookup(name); ok {
		return f, true
	}
	for _, f := range s.fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// Without returns a new schema with the named fields removed, preserving
// the order of the remaining fields.
func (s *Schema) Without(names ...string) *Schema {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := &Schema{index: make(map[string]int)}
	for _, f := range s.fields {
		if _, skip := drop[f.Name]; skip {
			continue
		}
		out.index[f.Name] = len(out.fields)
		out.fields = append(out.fields, f)
	}
	return out
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(":")
		b.WriteString(f.Type.String())
		if f.Nullable {
			b.WriteString("?")
		}
	}
	b.WriteString("}")
	return b.String()
}
