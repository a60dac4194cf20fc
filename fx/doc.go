// Package fx implements the per-stem effect chain and the shared reverb bus.
//
// Each stem owns one Chain wired in a fixed order at load time:
//
//	source → EQ → filter → delay → pan → gain → meter tap
//
// with the post-pan signal additionally feeding a per-stem send gain into
// the session-wide reverb bus. Every numeric parameter is applied through a
// short smoothing ramp so live changes never click. The filter is the one
// stage whose internal topology can change at runtime: its rolloff slope
// maps to a cascade of one or two identical biquad sections, and swapping
// the cascade depth preserves type, frequency, and Q.
package fx
