// SPDX-License-Identifier: EPL-2.0

// Package format holds the encoding catalog and the layout rules shared by
// every stage of the pipeline.
//
// An Encoding is a tagged value: one of the three PCM families that can be
// produced as output (signed, unsigned, float), raw PCM in some other layout,
// or a compressed codec identified by its numeric id. A Descriptor pins an
// encoding to a concrete layout (rate, sample size, channels, byte order) and
// a FileDescriptor adds what is known about the container it came from.
//
// The catalog answers three questions:
//
//	format.TargetEncodings()                  // what can a stream become
//	format.TargetLayouts(format.PCMFloat, d)  // which layouts of that family
//	format.IsTargetLayoutValid(d)             // is a requested layout well formed
//
// Descriptors produced by this module carry a provenance marker (Provider);
// only such descriptors are accepted for in-place conversion.
package format
