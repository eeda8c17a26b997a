// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

var (
	ErrNotSeekable = errors.New("MP3 source is not seekable")
)
