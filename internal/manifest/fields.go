package manifest

import (
	"strings"

	"cdsplan/internal/edi"
)

// grossWeight reads the kilogram value of a MEA segment. The value follows
// the unit in field 3 (KGM:1234.5) or, when field 3 has no sub-field, is the
// last sub-field of field 4 (KGM+1234.5). Failure yields 0, false.
func grossWeight(seg edi.Segment) (float64, bool) {
	raw, ok := seg.Sub(3, 1)
	if !ok {
		subs := seg.Subs(4)
		if len(subs) == 0 {
			return 0, false
		}
		raw = subs[len(subs)-1]
	}
	return edi.NumberOr(edi.Unquote(raw), 0)
}

type dimStatus int

const (
	dimsIgnored dimStatus = iota // fewer than four sub-fields
	dimsApplied
	dimsReset // a value failed to parse, all three go back to 0
)

// dimensions reads length/width/height from sub-fields 2..4 of field 2.
// The first blankable values may be blank and count as 0; any other blank or
// unparsable value resets all three.
func dimensions(seg edi.Segment, blankable int) ([3]float64, dimStatus) {
	subs := seg.Subs(2)
	if len(subs) < 4 {
		return [3]float64{}, dimsIgnored
	}
	var out [3]float64
	for i := range out {
		idx := i + 2
		if idx >= len(subs) {
			return [3]float64{}, dimsReset
		}
		s := strings.TrimSpace(subs[idx])
		if s == "" && i < blankable {
			continue
		}
		v, ok := edi.Number(s)
		if !ok {
			return [3]float64{}, dimsReset
		}
		out[i] = v
	}
	return out, dimsApplied
}

// portName resolves the code in the first sub-field of field 2.
func portName(seg edi.Segment, ports PortLookup) (string, bool) {
	code, ok := seg.Sub(2, 0)
	code = strings.TrimSpace(code)
	if !ok || code == "" {
		return "", false
	}
	if name, ok := ports.PortName(code); ok {
		return name, true
	}
	return code, true
}
