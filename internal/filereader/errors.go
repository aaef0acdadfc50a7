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

package filereader

import (
	"errors"
	"fmt"
)

// ErrReaderClosed is returned by GetRow after Close.
var ErrReaderClosed = errors.New("filereader: reader is closed")

// EmptyFileError is returned when a file holds zero records, which makes
// schema inference from its rows impossible.
type EmptyFileError struct {
	Path string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("filereader: file has no rows: %s", e.Path)
}
