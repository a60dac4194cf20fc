package mix

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/stemmix/fx"
)

// Share-string grammar. The field order and per-field scale factors are a
// compatibility contract: links generated by one version must stay loadable
// by later versions, so fields are only ever appended, and decoding
// tolerates records truncated at any field boundary.
//
//	<stem>,<stem>,...&master=<pct>
//	stem: index:vol%:mute:solo:pan*100:eqLow*10:eqMid*10:eqHigh*10:
//	      filterType:filterHz:q*10:send%:dlyTime*100:dlyFb*100:dlyMix%:rolloff

// Encode serializes the full state as a share string.
func (s *State) Encode() string {
	var b strings.Builder

	for i := range s.stems {
		if i > 0 {
			b.WriteByte(',')
		}
		st := &s.stems[i]
		fields := []int{
			i,
			round(st.Volume * 100),
			boolField(st.Muted),
			boolField(st.Solo),
			round(st.FX.Pan * 100),
			round(st.FX.EQLowDB * 10),
			round(st.FX.EQMidDB * 10),
			round(st.FX.EQHighDB * 10),
			st.FX.FilterType.Index(),
			round(st.FX.FilterFreqHz),
			round(st.FX.FilterQ * 10),
			round(st.FX.ReverbSendPct),
			round(st.FX.DelayTimeSec * 100),
			round(st.FX.DelayFeedback * 100),
			round(st.FX.DelayMixPct),
			int(st.FX.Rolloff),
		}
		for j, f := range fields {
			if j > 0 {
				b.WriteByte(':')
			}
			b.WriteString(strconv.Itoa(f))
		}
	}

	fmt.Fprintf(&b, "&master=%d", round(s.master*100))

	return b.String()
}

// Decode applies a share string to the state. Missing trailing fields keep
// their prior values, unknown filter-type indices fall back to lowpass, and
// out-of-range values are clamped. Only a string that fails the basic
// grammar is rejected, in which case the state is left untouched.
func (s *State) Decode(encoded string) error {
	stemPart := encoded
	masterPart := ""
	if idx := strings.IndexByte(encoded, '&'); idx >= 0 {
		stemPart = encoded[:idx]
		masterPart = encoded[idx+1:]
	}

	// Parse into a scratch copy first so a malformed string cannot leave
	// the state half-applied.
	scratch := *s
	scratch.stems = make([]StemState, len(s.stems))
	copy(scratch.stems, s.stems)

	if stemPart != "" {
		for _, record := range strings.Split(stemPart, ",") {
			if err := scratch.decodeStem(record); err != nil {
				return err
			}
		}
	}

	if masterPart != "" {
		val, ok := strings.CutPrefix(masterPart, "master=")
		if !ok {
			return fmt.Errorf("mix: malformed master segment %q", masterPart)
		}
		pct, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("mix: malformed master volume %q", val)
		}
		scratch.master = clamp(float64(pct)/100, 0, 1)
	}

	s.stems = scratch.stems
	s.master = scratch.master

	return nil
}

// decodeStem applies one colon-separated stem record. Fields beyond the
// provided list retain their current values.
func (sc *State) decodeStem(record string) error {
	fields := strings.Split(record, ":")

	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("mix: malformed stem field %q", f)
		}
		vals[i] = v
	}

	if len(vals) == 0 {
		return fmt.Errorf("mix: empty stem record")
	}

	idx := vals[0]
	st := sc.at(idx)
	if st == nil {
		// A record for a stem this session does not have; older links can
		// reference more stems than the current track provides.
		return nil
	}

	apply := []func(v int){
		func(v int) { st.Volume = clamp(float64(v)/100, 0, 1) },
		func(v int) { st.Muted = v != 0 },
		func(v int) { st.Solo = v != 0 },
		func(v int) { st.FX.Pan = clamp(float64(v)/100, -1, 1) },
		func(v int) { st.FX.EQLowDB = clamp(float64(v)/10, fx.MinEQGainDB, fx.MaxEQGainDB) },
		func(v int) { st.FX.EQMidDB = clamp(float64(v)/10, fx.MinEQGainDB, fx.MaxEQGainDB) },
		func(v int) { st.FX.EQHighDB = clamp(float64(v)/10, fx.MinEQGainDB, fx.MaxEQGainDB) },
		func(v int) { st.FX.FilterType = fx.ParseFilterType(v) },
		func(v int) {
			st.FX.FilterFreqHz = clamp(float64(v), fx.MinFilterFrequency, fx.MaxFilterFrequency)
		},
		func(v int) { st.FX.FilterQ = clamp(float64(v)/10, fx.MinFilterQ, fx.MaxFilterQ) },
		func(v int) { st.FX.ReverbSendPct = clamp(float64(v), 0, 100) },
		func(v int) { st.FX.DelayTimeSec = clamp(float64(v)/100, fx.MinDelayTime, fx.MaxDelayTime) },
		func(v int) { st.FX.DelayFeedback = clamp(float64(v)/100, 0, fx.MaxDelayFeedback) },
		func(v int) { st.FX.DelayMixPct = clamp(float64(v), 0, 100) },
		func(v int) {
			if fx.Rolloff(v) == fx.Rolloff24 {
				st.FX.Rolloff = fx.Rolloff24
			} else {
				st.FX.Rolloff = fx.Rolloff12
			}
		},
	}

	for i, v := range vals[1:] {
		if i >= len(apply) {
			break // fields from a newer version than this decoder
		}
		apply[i](v)
	}

	return nil
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}

func round(v float64) int {
	return int(math.Round(v))
}
