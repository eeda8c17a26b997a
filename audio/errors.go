// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrUnsupportedLayout = errors.New("unsupported PCM layout")
	ErrInvalidRate       = errors.New("sample rate must be positive")
	ErrInvalidChannels   = errors.New("channel count must be positive")
)
