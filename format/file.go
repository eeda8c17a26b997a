// SPDX-License-Identifier: EPL-2.0

package format

import (
	"net/url"
	"path"
	"strings"
)

// FileType names a container type and its usual extension.
type FileType struct {
	Name      string
	Extension string
}

func (t FileType) String() string { return t.Name }

var (
	TypeAAC          = FileType{"AAC", "m4a"}
	TypeProtectedAAC = FileType{"Protected AAC", "m4p"}
	TypeMP4          = FileType{"MP4", "mp4"}
	TypeM4V          = FileType{"M4V", "m4v"}
	TypeMP1          = FileType{"MP1", "mp1"}
	TypeMP2          = FileType{"MP2", "mp2"}
	TypeMP3          = FileType{"MP3", "mp3"}
	TypeFLAC         = FileType{"FLAC", "flac"}
	TypeOgg          = FileType{"Ogg", "ogg"}
	TypeWAVE         = FileType{"WAVE", "wav"}
	TypeAIFF         = FileType{"AIFF", "aif"}
	TypeAIFC         = FileType{"AIFF-C", "aifc"}
)

var typesByExt = map[string]FileType{
	"m4a":  TypeAAC,
	"m4p":  TypeProtectedAAC,
	"m4v":  TypeM4V,
	"mp4":  TypeMP4,
	"mp1":  TypeMP1,
	"mp2":  TypeMP2,
	"mp3":  TypeMP3,
	"flac": TypeFLAC,
	"ogg":  TypeOgg,
	"oga":  TypeOgg,
	"wav":  TypeWAVE,
	"wave": TypeWAVE,
	"aif":  TypeAIFF,
	"aiff": TypeAIFF,
	"aifc": TypeAIFC,
}

var typesByCodec = map[CodecID]FileType{
	CodecMP1:    TypeMP1,
	CodecMP2:    TypeMP2,
	CodecMP3:    TypeMP3,
	CodecFLAC:   TypeFLAC,
	CodecVorbis: TypeOgg,
	CodecAAC:    TypeAAC,
}

// Extension returns the lower-cased extension of a resource locator without
// the dot, or "" when there is none. Query strings and fragments of URLs are
// ignored.
func Extension(resource string) string {
	p := resource
	if u, err := url.Parse(resource); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
	}

	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// FileTypeFor picks the container type of resource from its extension,
// falling back to the codec when the locator has none.
func FileTypeFor(resource string, enc Encoding) FileType {
	if ext := Extension(resource); ext != "" {
		if t, ok := typesByExt[ext]; ok {
			return t
		}

		return FileType{Name: strings.ToUpper(ext), Extension: ext}
	}

	if t, ok := typesByCodec[enc.Codec()]; ok {
		return t
	}

	return FileType{Name: strings.ToUpper(enc.Name()), Extension: strings.ToLower(enc.Name())}
}

// IsProtected reports whether resource names a DRM-protected container that
// no engine can decode.
func IsProtected(resource string) bool {
	return Extension(resource) == TypeProtectedAAC.Extension
}

// FileDescriptor describes one audio stream inside a resource.
type FileDescriptor struct {
	Type   FileType
	Format Descriptor

	// ByteLength of the resource, NotSpecified when unknown.
	ByteLength int64
	// FrameLength in frames, NotSpecified when unknown.
	FrameLength int64
	// Duration in microseconds, 0 when unknown.
	Duration int64
}

// NewFileDescriptor fills in the derived attributes of a stream found in
// resource: the container type, the frame rate, the frame length and the
// provenance marker. durationMicros <= 0 means unknown.
func NewFileDescriptor(resource string, f Descriptor, byteLength, durationMicros int64) FileDescriptor {
	f.FrameRate = DeriveFrameRate(f.Encoding, f.SampleRate)
	f = f.WithProvenance()

	frames := int64(NotSpecified)
	if durationMicros > 0 {
		frames = FrameLength(f.SampleRate, durationMicros)
	} else {
		durationMicros = 0
	}

	return FileDescriptor{
		Type:        FileTypeFor(resource, f.Encoding),
		Format:      f,
		ByteLength:  byteLength,
		FrameLength: frames,
		Duration:    durationMicros,
	}
}

// IsPlausible reports whether fd carries any usable information. A stream
// with zero frames, zero rate, zero sample size and zero channels is what an
// engine reports for input it merely tolerated.
func (fd FileDescriptor) IsPlausible() bool {
	f := fd.Format

	return fd.FrameLength != 0 || f.SampleRate != 0 || f.BitsPerSample != 0 || f.Channels != 0
}

// Properties returns the optional attributes of fd as a map.
func (fd FileDescriptor) Properties() map[string]any {
	props := map[string]any{PropProvider: Provider}
	if fd.Duration > 0 {
		props[PropDuration] = fd.Duration
	}

	return props
}
