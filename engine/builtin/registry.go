// SPDX-License-Identifier: EPL-2.0

package builtin

import (
	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/formats/aiff"
	"github.com/ik5/pcmstream/formats/flac"
	"github.com/ik5/pcmstream/formats/mp3"
	"github.com/ik5/pcmstream/formats/vorbis"
	"github.com/ik5/pcmstream/formats/wav"
)

// Container keys used in the registry.
const (
	KeyWAV  = "wav"
	KeyAIFF = "aiff"
	KeyFLAC = "flac"
	KeyOgg  = "ogg"
	KeyMP3  = "mp3"
)

// DefaultRegistry returns a registry holding every decoder in formats.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(KeyWAV, wav.Decoder{})
	reg.Register(KeyAIFF, aiff.Decoder{})
	reg.Register(KeyFLAC, flac.Decoder{})
	reg.Register(KeyOgg, vorbis.Decoder{})
	reg.Register(KeyMP3, mp3.Decoder{})

	return reg
}

var extKeys = map[string]string{
	"wav":  KeyWAV,
	"wave": KeyWAV,
	"aif":  KeyAIFF,
	"aiff": KeyAIFF,
	"aifc": KeyAIFF,
	"flac": KeyFLAC,
	"ogg":  KeyOgg,
	"oga":  KeyOgg,
	"mp3":  KeyMP3,
	"mp2":  KeyMP3,
	"mp1":  KeyMP3,
}

// sniffLen is how many leading bytes Sniff looks at.
const sniffLen = 12

// Sniff names the container of data from its leading bytes, using ext when
// the bytes are not conclusive. It returns "" when neither matches.
func Sniff(head []byte, ext string) string {
	switch {
	case len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		return KeyWAV
	case len(head) >= 12 && string(head[:4]) == "FORM" &&
		(string(head[8:12]) == "AIFF" || string(head[8:12]) == "AIFC"):
		return KeyAIFF
	case len(head) >= 4 && string(head[:4]) == "fLaC":
		return KeyFLAC
	case len(head) >= 4 && string(head[:4]) == "OggS":
		return KeyOgg
	case len(head) >= 3 && string(head[:3]) == "ID3":
		return KeyMP3
	case len(head) >= 2 && head[0] == 0xff && head[1]&0xe0 == 0xe0:
		return KeyMP3
	}

	return extKeys[ext]
}
