// SPDX-License-Identifier: EPL-2.0

package format

import "strings"

// Codec ids. The PCM and compressed ranges follow the numbering used by
// libavcodec so ids reported by native engines map directly.
const (
	CodecPCMS16LE CodecID = 0x10000 + iota
	CodecPCMS16BE
	CodecPCMU16LE
	CodecPCMU16BE
	CodecPCMS8
	CodecPCMU8
	CodecPCMMulaw
	CodecPCMAlaw
	CodecPCMS32LE
	CodecPCMS32BE
	CodecPCMU32LE
	CodecPCMU32BE
	CodecPCMS24LE
	CodecPCMS24BE
	CodecPCMU24LE
	CodecPCMU24BE
	CodecPCMS24DAUD
	CodecPCMZork
	CodecPCMS16LEPlanar
	CodecPCMDVD
	CodecPCMF32BE
	CodecPCMF32LE
	CodecPCMF64BE
	CodecPCMF64LE
	CodecPCMBluray
	CodecPCMLXF
	CodecS302M
	CodecPCMS8Planar
	CodecPCMS24LEPlanar
	CodecPCMS32LEPlanar
	CodecPCMS16BEPlanar
)

const (
	CodecADPCMIMAQT CodecID = 0x11000 + iota
	CodecADPCMIMAWAV
	CodecADPCMIMADK3
	CodecADPCMIMADK4
	CodecADPCMIMAWS
	CodecADPCMIMASmjpeg
	CodecADPCMMS
	CodecADPCM4XM
	CodecADPCMXA
	CodecADPCMADX
	CodecADPCMEA
	CodecADPCMG726
	CodecADPCMCT
	CodecADPCMSWF
	CodecADPCMYamaha
)

const (
	CodecAMRNB CodecID = 0x12000
	CodecAMRWB CodecID = 0x12001
)

const (
	CodecMP2 CodecID = 0x15000 + iota
	CodecMP3
	CodecAAC
	CodecAC3
	CodecDTS
	CodecVorbis
	CodecDVAudio
	CodecWMAV1
	CodecWMAV2
	CodecMACE3
	CodecMACE6
	CodecVMDAudio
	CodecFLAC
	CodecMP3ADU
	CodecMP3ON4
	CodecShorten
	CodecALAC
)

const (
	CodecGSM         CodecID = 0x15012
	CodecWavPack     CodecID = 0x15019
	CodecAPE         CodecID = 0x15021
	CodecSpeex       CodecID = 0x15024
	CodecWMAPro      CodecID = 0x15026
	CodecWMALossless CodecID = 0x15027
	CodecEAC3        CodecID = 0x15029
	CodecMP1         CodecID = 0x1502b
	CodecTrueHD      CodecID = 0x1502d
	CodecAACLATM     CodecID = 0x15032
	CodecOpus        CodecID = 0x4f505553
)

var codecTable = []Encoding{
	{KindPCMSigned, CodecPCMS16LE, "PCM_S16LE"},
	{KindPCMSigned, CodecPCMS16BE, "PCM_S16BE"},
	{KindPCMUnsigned, CodecPCMU16LE, "PCM_U16LE"},
	{KindPCMUnsigned, CodecPCMU16BE, "PCM_U16BE"},
	{KindPCMSigned, CodecPCMS8, "PCM_S8"},
	{KindPCMUnsigned, CodecPCMU8, "PCM_U8"},
	{KindCompressed, CodecPCMMulaw, "ULAW"},
	{KindCompressed, CodecPCMAlaw, "ALAW"},
	{KindPCMSigned, CodecPCMS32LE, "PCM_S32LE"},
	{KindPCMSigned, CodecPCMS32BE, "PCM_S32BE"},
	{KindPCMUnsigned, CodecPCMU32LE, "PCM_U32LE"},
	{KindPCMUnsigned, CodecPCMU32BE, "PCM_U32BE"},
	{KindPCMSigned, CodecPCMS24LE, "PCM_S24LE"},
	{KindPCMSigned, CodecPCMS24BE, "PCM_S24BE"},
	{KindPCMUnsigned, CodecPCMU24LE, "PCM_U24LE"},
	{KindPCMUnsigned, CodecPCMU24BE, "PCM_U24BE"},
	{KindPCMOther, CodecPCMS24DAUD, "PCM_S24DAUD"},
	{KindPCMOther, CodecPCMZork, "PCM_ZORK"},
	{KindPCMOther, CodecPCMS16LEPlanar, "PCM_S16LE_PLANAR"},
	{KindPCMOther, CodecPCMDVD, "PCM_DVD"},
	{KindPCMFloat, CodecPCMF32BE, "PCM_F32BE"},
	{KindPCMFloat, CodecPCMF32LE, "PCM_F32LE"},
	{KindPCMFloat, CodecPCMF64BE, "PCM_F64BE"},
	{KindPCMFloat, CodecPCMF64LE, "PCM_F64LE"},
	{KindPCMOther, CodecPCMBluray, "PCM_BLURAY"},
	{KindPCMOther, CodecPCMLXF, "PCM_LXF"},
	{KindPCMOther, CodecS302M, "S302M"},
	{KindPCMOther, CodecPCMS8Planar, "PCM_S8_PLANAR"},
	{KindPCMOther, CodecPCMS24LEPlanar, "PCM_S24LE_PLANAR"},
	{KindPCMOther, CodecPCMS32LEPlanar, "PCM_S32LE_PLANAR"},
	{KindPCMOther, CodecPCMS16BEPlanar, "PCM_S16BE_PLANAR"},

	{KindCompressed, CodecADPCMIMAQT, "ADPCM_IMA_QT"},
	{KindCompressed, CodecADPCMIMAWAV, "ADPCM_IMA_WAV"},
	{KindCompressed, CodecADPCMIMADK3, "ADPCM_IMA_DK3"},
	{KindCompressed, CodecADPCMIMADK4, "ADPCM_IMA_DK4"},
	{KindCompressed, CodecADPCMIMAWS, "ADPCM_IMA_WS"},
	{KindCompressed, CodecADPCMIMASmjpeg, "ADPCM_IMA_SMJPEG"},
	{KindCompressed, CodecADPCMMS, "ADPCM_MS"},
	{KindCompressed, CodecADPCM4XM, "ADPCM_4XM"},
	{KindCompressed, CodecADPCMXA, "ADPCM_XA"},
	{KindCompressed, CodecADPCMADX, "ADPCM_ADX"},
	{KindCompressed, CodecADPCMEA, "ADPCM_EA"},
	{KindCompressed, CodecADPCMG726, "ADPCM_G726"},
	{KindCompressed, CodecADPCMCT, "ADPCM_CT"},
	{KindCompressed, CodecADPCMSWF, "ADPCM_SWF"},
	{KindCompressed, CodecADPCMYamaha, "ADPCM_YAMAHA"},

	{KindCompressed, CodecAMRNB, "AMR_NB"},
	{KindCompressed, CodecAMRWB, "AMR_WB"},

	{KindCompressed, CodecMP1, "MPEG-1 Layer 1"},
	{KindCompressed, CodecMP2, "MPEG-1 Layer 2"},
	{KindCompressed, CodecMP3, "MPEG-1 Layer 3"},
	{KindCompressed, CodecAAC, "AAC"},
	{KindCompressed, CodecAACLATM, "AAC_LATM"},
	{KindCompressed, CodecAC3, "AC3"},
	{KindCompressed, CodecEAC3, "EAC3"},
	{KindCompressed, CodecDTS, "DTS"},
	{KindCompressed, CodecVorbis, "VORBIS"},
	{KindCompressed, CodecOpus, "OPUS"},
	{KindCompressed, CodecDVAudio, "DVAUDIO"},
	{KindCompressed, CodecWMAV1, "WMAV1"},
	{KindCompressed, CodecWMAV2, "WMAV2"},
	{KindCompressed, CodecWMAPro, "WMAPRO"},
	{KindCompressed, CodecWMALossless, "WMALOSSLESS"},
	{KindCompressed, CodecMACE3, "MACE3"},
	{KindCompressed, CodecMACE6, "MACE6"},
	{KindCompressed, CodecVMDAudio, "VMDAUDIO"},
	{KindCompressed, CodecFLAC, "FLAC"},
	{KindCompressed, CodecMP3ADU, "MP3ADU"},
	{KindCompressed, CodecMP3ON4, "MP3ON4"},
	{KindCompressed, CodecShorten, "SHORTEN"},
	{KindCompressed, CodecALAC, "ALAC"},
	{KindCompressed, CodecGSM, "GSM"},
	{KindCompressed, CodecWavPack, "WAVPACK"},
	{KindCompressed, CodecAPE, "APE"},
	{KindCompressed, CodecTrueHD, "TRUEHD"},
	{KindCompressed, CodecSpeex, "SPEEX"},
}

var (
	codecIndex = make(map[CodecID]Encoding, len(codecTable))
	nameIndex  = make(map[string]Encoding, len(codecTable))
)

func init() {
	for _, e := range codecTable {
		codecIndex[e.codec] = e
		nameIndex[strings.ToUpper(e.name)] = e
	}
}

// Codecs returns a copy of the built-in codec table.
func Codecs() []Encoding {
	out := make([]Encoding, len(codecTable))
	copy(out, codecTable)

	return out
}

type pcmKey struct {
	kind      Kind
	bits      int
	bigEndian bool
}

var pcmSubtypes = map[pcmKey]CodecID{
	{KindPCMSigned, 8, false}:    CodecPCMS8,
	{KindPCMSigned, 16, false}:   CodecPCMS16LE,
	{KindPCMSigned, 16, true}:    CodecPCMS16BE,
	{KindPCMSigned, 24, false}:   CodecPCMS24LE,
	{KindPCMSigned, 24, true}:    CodecPCMS24BE,
	{KindPCMSigned, 32, false}:   CodecPCMS32LE,
	{KindPCMSigned, 32, true}:    CodecPCMS32BE,
	{KindPCMUnsigned, 8, false}:  CodecPCMU8,
	{KindPCMUnsigned, 16, false}: CodecPCMU16LE,
	{KindPCMUnsigned, 16, true}:  CodecPCMU16BE,
	{KindPCMUnsigned, 24, false}: CodecPCMU24LE,
	{KindPCMUnsigned, 24, true}:  CodecPCMU24BE,
	{KindPCMUnsigned, 32, false}: CodecPCMU32LE,
	{KindPCMUnsigned, 32, true}:  CodecPCMU32BE,
	{KindPCMFloat, 32, false}:    CodecPCMF32LE,
	{KindPCMFloat, 32, true}:     CodecPCMF32BE,
	{KindPCMFloat, 64, false}:    CodecPCMF64LE,
	{KindPCMFloat, 64, true}:     CodecPCMF64BE,
}

// PCMSubtype resolves a PCM family, sample size and byte order to the
// concrete codec an engine is asked to produce. Byte order is ignored for
// 8-bit layouts.
func PCMSubtype(kind Kind, bits int, bigEndian bool) (Encoding, bool) {
	if bits == 8 {
		bigEndian = false
	}

	id, ok := pcmSubtypes[pcmKey{kind, bits, bigEndian}]
	if !ok {
		return Encoding{}, false
	}

	return codecIndex[id], true
}
