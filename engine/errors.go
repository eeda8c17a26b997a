// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind uint8

const (
	KindNativeDecode Kind = iota
	KindUnsupportedFormat
	KindResourceNotFound
	KindIndexOutOfRange
	KindUnsupportedOperation
	KindIOFailure
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindResourceNotFound:
		return "resource not found"
	case KindIndexOutOfRange:
		return "index out of range"
	case KindUnsupportedOperation:
		return "unsupported operation"
	case KindIOFailure:
		return "i/o failure"
	default:
		return "native decode error"
	}
}

// One sentinel per Kind. Every *Error matches the sentinel of its kind under
// errors.Is.
var (
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrIndexOutOfRange      = errors.New("stream index out of range")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrIOFailure            = errors.New("i/o failure")
	ErrNativeDecode         = errors.New("native decode error")
)

// Finer causes carried inside an *Error.
var (
	ErrUnsupportedEncoding  = errors.New("unsupported encoding")
	ErrUnsupportedFrameSize = errors.New("unsupported frame size")
	ErrImplausibleFormat    = errors.New("implausible audio format")
	ErrProtected            = errors.New("DRM protected resource")
	ErrClosed               = errors.New("stream closed")
	ErrNotSeekable          = errors.New("stream is not seekable")
	ErrNoProvenance         = errors.New("conversion from a foreign stream")
	ErrNoStreams            = errors.New("no audio streams")
	ErrUnknownHandle        = errors.New("unknown session handle")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindResourceNotFound:
		return ErrResourceNotFound
	case KindIndexOutOfRange:
		return ErrIndexOutOfRange
	case KindUnsupportedOperation:
		return ErrUnsupportedOperation
	case KindIOFailure:
		return ErrIOFailure
	default:
		return ErrNativeDecode
	}
}

// Error is the typed error returned by every pipeline operation.
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	// Msg passes an engine diagnostic through unchanged.
	Msg string
	Err error
}

// NewError builds an *Error. msg may be empty when err already says
// everything.
func NewError(kind Kind, op, resource, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Resource: resource, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}

	if e.Resource != "" {
		b.WriteString(e.Resource)
		b.WriteString(": ")
	} else if e.Op != "" {
		b.WriteString(": ")
	}

	b.WriteString(e.Kind.String())

	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}

	if e.Err != nil && e.Err != e.Kind.sentinel() {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind.
func (e *Error) Is(target error) bool { return target == e.Kind.sentinel() }

// KindOf reports the Kind of err. Errors that are not *Error are treated as
// I/O failures.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	for _, k := range []Kind{
		KindUnsupportedFormat, KindResourceNotFound, KindIndexOutOfRange,
		KindUnsupportedOperation, KindIOFailure, KindNativeDecode,
	} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}

	return KindIOFailure
}

var classifyRules = []struct {
	kind    Kind
	needles []string
}{
	{KindIOFailure, []string{"protocol not found"}},
	{KindResourceNotFound, []string{"no such file", "not found", "does not exist", "404"}},
	{KindIndexOutOfRange, []string{"stream index", "index out of range", "no such stream"}},
	{KindUnsupportedFormat, []string{
		"probe score too low", "unknown format", "unsupported", "not a ", "not an ", "no decoder", "invalid data found",
		"failed to find stream info", "failed to open audio file",
	}},
	{KindIOFailure, []string{"i/o", "input/output", "connection", "permission denied", "broken pipe", "timeout"}},
}

// Classify maps a free-form engine diagnostic to a Kind. The message is a
// hint only; anything unrecognized is a native decode error.
func Classify(msg string) Kind {
	m := strings.ToLower(msg)

	for _, r := range classifyRules {
		for _, n := range r.needles {
			if strings.Contains(m, n) {
				return r.kind
			}
		}
	}

	return KindNativeDecode
}

// Wrap turns an arbitrary engine error into an *Error. Errors that already
// are *Error pass through untouched.
func Wrap(op, resource string, err error) error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	return NewError(Classify(err.Error()), op, resource, "", err)
}
