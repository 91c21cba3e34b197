// Package records defines the fixed-width codecs for the five domain record
// types. Every record advertises a constant serialized size; strings are
// written as null-padded fixed-width byte arrays and integers little-endian
// at their natural position. Collaborators place a serialized record at
// offset 0 of a freshly allocated data page and index its location.
package records

import (
	"github.com/go-playground/validator/v10"

	"meetdb/pkg/dberr"
)

var validate = validator.New()

// checkValid runs struct-tag validation and classifies failures.
func checkValid(op string, v any) error {
	if err := validate.Struct(v); err != nil {
		return dberr.Wrap(dberr.ValidationFailure, op, err)
	}
	return nil
}

// bufCheck guards codec buffers against undersized slices.
func bufCheck(op string, buf []byte, size int) error {
	if len(buf) < size {
		return dberr.New(dberr.IOFailure, op,
			"buffer too small: %d < %d", len(buf), size)
	}
	return nil
}

// putString writes s into a fixed-width null-padded field. The caller
// guarantees s is no longer than the field; a value that fills the field
// exactly is stored without a trailing NUL, which getString reads back whole.
func putString(buf []byte, s string) {
	for i := range buf {
		buf[i] = 0
	}
	copy(buf, s)
}

// getString reads a null-terminated string from a fixed-width field.
func getString(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
