// SPDX-License-Identifier: EPL-2.0

// Package engine defines the decoder contract the pipeline is built on, the
// Gateway that serializes session lifecycle calls into it, and the error
// taxonomy shared by every layer.
//
// A decoder engine hands out opaque session handles. Opening, seeking,
// reconfiguring and closing a session may not be safe to run concurrently
// with any other lifecycle call in the process, so all of them go through a
// Gateway:
//
//	gw := engine.NewGateway(builtin.New(builtin.Options{}), nil)
//	h, err := gw.Open("song.flac", 0)
//
// Filling a session's buffer is not serialized.
//
// Errors are *Error values carrying a Kind. Each kind has a sentinel so
// callers can branch with errors.Is:
//
//	if errors.Is(err, engine.ErrResourceNotFound) { ... }
package engine
