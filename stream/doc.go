// SPDX-License-Identifier: EPL-2.0

// Package stream turns engine sessions into pull streams of PCM bytes.
//
// A Peer owns exactly one engine session. It keeps the most recent chunk of
// decoded bytes in a scratch buffer and refills it from the engine when the
// caller has consumed it. Reaching the end of the data closes the session.
//
//	p, err := stream.OpenResource(cfg, "song.wav", 0, fd.FrameLength)
//	if err != nil {
//	    // Handle error
//	}
//	defer p.Close()
//
//	io.Copy(out, p)
//
// A ConvertStream switches the output layout of a Peer's session in place
// and forwards everything else to it. It never owns a session of its own.
//
// Sessions left open by streams that become unreachable are closed by a
// runtime cleanup. That is a leak backstop, not a substitute for Close.
package stream
