// Copyright 2023 The go-swio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iio

import (
	"strconv"
	"strings"

	"github.com/go-swio/swio"
	"golang.org/x/xerrors"
)

// Micro is the fixed-point scale of fractional attribute values.
const Micro = 1000000

// FormatInt writes v as decimal ASCII into buf.
func FormatInt(buf []byte, v int64) (int, error) {
	return put(buf, strconv.FormatInt(v, 10))
}

// FormatIntMicro writes the fixed-point value whole+frac/1e6 as
// "<whole>.<frac:06d>" into buf. frac must be non-negative; the sign
// of the value rides on whole, with a "-0.xxxxxx" form when whole is
// zero and neg is set.
func FormatIntMicro(buf []byte, whole int64, frac int32, neg bool) (int, error) {
	if frac < 0 || frac >= Micro {
		return 0, xerrors.Errorf("iio: fraction %d out of range: %w", frac, swio.ErrInvalidArgument)
	}
	var sb strings.Builder
	if neg && whole == 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(strconv.FormatInt(whole, 10))
	sb.WriteByte('.')
	s := strconv.FormatInt(int64(frac), 10)
	for i := len(s); i < 6; i++ {
		sb.WriteByte('0')
	}
	sb.WriteString(s)
	return put(buf, sb.String())
}

// FormatToken writes a bare token into buf.
func FormatToken(buf []byte, tok string) (int, error) {
	return put(buf, tok)
}

// FormatTokens writes a space-separated token list into buf, the form
// of "_available" attributes.
func FormatTokens(buf []byte, toks ...string) (int, error) {
	return put(buf, strings.Join(toks, " "))
}

// FormatInts writes a space-separated decimal list into buf.
func FormatInts(buf []byte, vs ...int32) (int, error) {
	var sb strings.Builder
	for i, v := range vs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	}
	return put(buf, sb.String())
}

// ParseInt reads a decimal ASCII value, tolerating surrounding
// whitespace and a trailing newline.
func ParseInt(data []byte) (int64, error) {
	s := strings.TrimSpace(string(data))
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("iio: could not parse %q: %w", s, swio.ErrInvalidArgument)
	}
	return v, nil
}

// ParseToken reads a bare token value.
func ParseToken(data []byte) string {
	return strings.TrimSpace(string(data))
}

func put(buf []byte, s string) (int, error) {
	if len(s) > len(buf) {
		return 0, xerrors.Errorf("iio: value %q does not fit in %d bytes: %w", s, len(buf), swio.ErrInvalidArgument)
	}
	return copy(buf, s), nil
}
