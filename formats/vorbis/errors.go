// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

var (
	ErrNotSeekable = errors.New("Vorbis source is not seekable")

	// ErrInvalidData is returned when the Ogg or Vorbis layer rejects the
	// input by panicking instead of returning an error.
	ErrInvalidData = errors.New("invalid data found in Ogg Vorbis stream")
)

// recoverInvalid turns a panic raised while parsing input into
// ErrInvalidData stored in *err.
func recoverInvalid(err *error) {
	if r := recover(); r != nil {
		*err = ErrInvalidData
	}
}
