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

import (
	"context"
	"fmt"
	"io"

	"github.com/cardinalhq/lakeflow/internal/filereader"
	"github.com/cardinalhq/lakeflow/internal/pipeline"
)

// ReadError is a terminal per-file read failure. It affects only the part
// that raised it; sibling parts are independent.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("datasource: read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Part represents one file as a lazily-pulled, finite, non-restartable
// sequence of rows. The underlying reader is opened on the first pull and
// is exclusively owned by the part. Cancellation is cooperative: the
// context is checked between pulls, and once observed the reader is
// released and no further rows are delivered.
//
// Parts are independent; each may be driven on its own goroutine, but a
// single part is not concurrency-safe.
type Part struct {
	path    string
	factory filereader.Factory
	pred    filereader.Predicate

	reader   filereader.Reader
	opened   bool
	released bool
	terminal error
}

func newPart(path string, factory filereader.Factory, pred filereader.Predicate) *Part {
	return &Part{path: path, factory: factory, pred: pred}
}

// Path returns the file this part reads.
func (p *Part) Path() string {
	return p.path
}

// Next returns the next row, io.EOF at end of sequence, the context's
// error after cancellation, or a *ReadError. Any non-nil error is
// terminal and the reader has been released before it is returned.
func (p *Part) Next(ctx context.Context) (pipeline.Row, error) {
	if p.terminal != nil {
		return nil, p.terminal
	}

	if err := ctx.Err(); err != nil {
		return nil, p.finish(err)
	}

	if !p.opened {
		p.opened = true
		r, err := p.factory(p.path, p.pred)
		if err != nil {
			p.released = true
			p.terminal = &ReadError{Path: p.path, Err: err}
			return nil, p.terminal
		}
		p.reader = r
	}

	row, err := p.reader.GetRow(ctx)
	if err == io.EOF {
		return nil, p.finish(io.EOF)
	}
	if err != nil {
		return nil, p.finish(&ReadError{Path: p.path, Err: err})
	}
	return row, nil
}

// finish releases the reader and records the terminal state. The release
// happens on every exit path: completion, cancellation, and error.
func (p *Part) finish(terminal error) error {
	p.terminal = terminal
	if p.reader != nil && !p.released {
		p.released = true
		if cerr := p.reader.Close(); cerr != nil && terminal == io.EOF {
			p.terminal = &ReadError{Path: p.path, Err: cerr}
		}
	}
	p.released = true
	return p.terminal
}

// Close releases the reader early, for consumers that abandon a part
// without cancelling their context. Idempotent.
func (p *Part) Close() error {
	if p.terminal == nil {
		p.terminal = io.EOF
	}
	if p.reader != nil && !p.released {
		p.released = true
		return p.reader.Close()
	}
	p.released = true
	return nil
}

// Released reports whether the part holds no open reader.
func (p *Part) Released() bool {
	return !p.opened || p.released
}
