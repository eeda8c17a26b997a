// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile            = errors.New("not a WAV file")
	ErrUnsupportedWavLayout  = errors.New("unsupported WAV layout")
	ErrUnsupportedSampleType = errors.New("unsupported WAV sample format")
	ErrMissingDataChunk      = errors.New("WAV file has no data chunk")
	ErrNotSeekable           = errors.New("WAV source is not seekable")
)
