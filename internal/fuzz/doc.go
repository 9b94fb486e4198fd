// Package fuzztests holds Go fuzz harnesses for the RIR readers: the
// textual parser and the binary decoder. Both must reject malformed input
// with an error, never a panic, and whatever they accept must survive a
// second round trip unchanged.
package fuzztests
