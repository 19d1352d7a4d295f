// grapple: a genome reference assembly pipeline.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package internal

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1"
)

const resetColor = "\x1b[0m"

// Default console colours, as hex strings.
const (
	DefaultStatusColor = "#4e9a06"
	DefaultErrorColor  = "#cc0000"
)

// ColorWriter wraps every write to the underlying writer in a 24-bit
// ANSI foreground colour. A trailing newline stays outside the colour
// so the terminal prompt is not coloured.
type ColorWriter struct {
	w      io.Writer
	prefix []byte
}

// NewColorWriter returns a ColorWriter for the hex colour hex.
func NewColorWriter(w io.Writer, hex string) (*ColorWriter, error) {
	c, err := colors.ParseHEX(hex)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid colour %q", hex)
	}
	rgb := c.ToRGB()
	return &ColorWriter{
		w:      w,
		prefix: []byte(fmt.Sprintf("\x1b[38;2;%d;%d;%dm", rgb.R, rgb.G, rgb.B)),
	}, nil
}

// Write implements io.Writer.
func (c *ColorWriter) Write(p []byte) (int, error) {
	body := bytes.TrimSuffix(p, []byte("\n"))
	buf := make([]byte, 0, len(c.prefix)+len(p)+len(resetColor))
	buf = append(buf, c.prefix...)
	buf = append(buf, body...)
	buf = append(buf, resetColor...)
	if len(body) < len(p) {
		buf = append(buf, '\n')
	}
	if _, err := c.w.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Console returns w coloured with hex when colored is true, and w
// itself otherwise.
func Console(w io.Writer, hex string, colored bool) (io.Writer, error) {
	if !colored {
		return w, nil
	}
	c, err := NewColorWriter(w, hex)
	if err != nil {
		return nil, err
	}
	return c, nil
}
