// SPDX-License-Identifier: EPL-2.0

package format

import (
	"fmt"
	"strings"
)

// Kind is the broad family an Encoding belongs to.
type Kind uint8

const (
	// KindCompressed covers every codec that is not raw PCM.
	KindCompressed Kind = iota
	// KindPCMSigned is two's complement integer PCM.
	KindPCMSigned
	// KindPCMUnsigned is offset-binary integer PCM.
	KindPCMUnsigned
	// KindPCMFloat is IEEE 754 floating point PCM.
	KindPCMFloat
	// KindPCMOther is raw PCM in a layout that is never produced as output
	// (planar, DVD, Blu-ray and similar).
	KindPCMOther
)

func (k Kind) String() string {
	switch k {
	case KindPCMSigned:
		return "PCM_SIGNED"
	case KindPCMUnsigned:
		return "PCM_UNSIGNED"
	case KindPCMFloat:
		return "PCM_FLOAT"
	case KindPCMOther:
		return "PCM"
	default:
		return "COMPRESSED"
	}
}

// IsPCM reports whether samples of this kind are stored uncompressed.
func (k Kind) IsPCM() bool { return k != KindCompressed }

// CodecID is the numeric identifier a decoder engine reports for a codec.
type CodecID int32

// CodecNone is the id carried by the neutral PCM families.
const CodecNone CodecID = -1

// Encoding identifies how samples are represented. It is a value type; two
// encodings are equal when kind, codec id and name are equal.
type Encoding struct {
	kind  Kind
	codec CodecID
	name  string
}

// The neutral PCM families. Output layouts are always negotiated in terms of
// one of these.
var (
	PCMSigned   = Encoding{kind: KindPCMSigned, codec: CodecNone, name: "PCM_SIGNED"}
	PCMUnsigned = Encoding{kind: KindPCMUnsigned, codec: CodecNone, name: "PCM_UNSIGNED"}
	PCMFloat    = Encoding{kind: KindPCMFloat, codec: CodecNone, name: "PCM_FLOAT"}
)

// NewEncoding builds an encoding for a codec outside the built-in table.
func NewEncoding(kind Kind, codec CodecID, name string) Encoding {
	return Encoding{kind: kind, codec: codec, name: name}
}

// Kind returns the family e belongs to.
func (e Encoding) Kind() Kind { return e.kind }

// Codec returns the codec id, CodecNone for the neutral families.
func (e Encoding) Codec() CodecID { return e.codec }

// Name returns the display name, such as PCM_S16LE.
func (e Encoding) Name() string   { return e.name }
func (e Encoding) String() string { return e.name }

// IsPCM reports whether e is one of the uncompressed PCM families.
func (e Encoding) IsPCM() bool { return e.kind.IsPCM() }

// IsZero reports whether e is the unset encoding.
func (e Encoding) IsZero() bool { return e == Encoding{} }

// IsNeutral reports whether e names a family rather than a concrete codec.
func (e Encoding) IsNeutral() bool { return e.codec == CodecNone }

// Family returns the neutral encoding for the PCM families and e itself
// otherwise.
func (e Encoding) Family() Encoding {
	switch e.kind {
	case KindPCMSigned:
		return PCMSigned
	case KindPCMUnsigned:
		return PCMUnsigned
	case KindPCMFloat:
		return PCMFloat
	default:
		return e
	}
}

// SameFamily reports whether both encodings negotiate as the same family.
func (e Encoding) SameFamily(o Encoding) bool {
	return e.Family() == o.Family()
}

// EncodingForCodec maps a codec id to its encoding. Ids missing from the
// table get a synthetic name built from the four bytes of the id, which is
// how most engines tag codecs they identify by FourCC.
func EncodingForCodec(id CodecID) Encoding {
	if e, ok := codecIndex[id]; ok {
		return e
	}

	return Encoding{kind: KindCompressed, codec: id, name: fourCC(id)}
}

// EncodingByName looks up an encoding by display name, case-insensitively.
// The neutral family names resolve to the neutral encodings.
func EncodingByName(name string) (Encoding, bool) {
	key := strings.ToUpper(strings.TrimSpace(name))
	switch key {
	case PCMSigned.name:
		return PCMSigned, true
	case PCMUnsigned.name:
		return PCMUnsigned, true
	case PCMFloat.name:
		return PCMFloat, true
	}

	e, ok := nameIndex[key]
	return e, ok
}

func fourCC(id CodecID) string {
	u := uint32(id)
	b := []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}

	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}

	if strings.Trim(string(b), "?") == "" {
		return fmt.Sprintf("CODEC_%#x", u)
	}

	return string(b)
}
