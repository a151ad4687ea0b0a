// Package edi tokenizes line-oriented EDIFACT-style messages such as BAPLIE
// stowage plans and COPRAR discharge orders. One line is one segment, fields
// are separated by '+' and a field may carry ':'-separated sub-fields.
//
// The tokenizer knows segment tags and qualifiers but nothing about what a
// segment means to a particular message type.
package edi

import (
	"strings"
)

const (
	FieldSep   = "+"
	SubSep     = ":"
	Terminator = "'"
)

// Kind classifies a segment by tag and qualifier.
type Kind int

const (
	KindOther         Kind = iota
	KindTransport          // TDT
	KindLoadingPort        // LOC+5
	KindDischargePort      // LOC+61
	KindStowage            // LOC+147
	KindLocation           // LOC, any other qualifier
	KindDeparture          // DTM+136
	KindArrival            // DTM+178
	KindDate               // DTM, any other qualifier
	KindEquipment          // EQD
	KindGrossWeight        // MEA+AAE+AET+KGM
	KindMeasure            // MEA, anything else
	KindDimensions         // DIM+13
)

var kindNames = [...]string{
	KindOther:         "other",
	KindTransport:     "transport",
	KindLoadingPort:   "loading-port",
	KindDischargePort: "discharge-port",
	KindStowage:       "stowage",
	KindLocation:      "location",
	KindDeparture:     "departure",
	KindArrival:       "arrival",
	KindDate:          "date",
	KindEquipment:     "equipment",
	KindGrossWeight:   "gross-weight",
	KindMeasure:       "measure",
	KindDimensions:    "dimensions",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Segment is one tokenized line. Accessors never panic on short segments.
type Segment struct {
	Line   int    // 1-based line number in the source text
	Raw    string // trimmed line without the segment terminator
	Tag    string
	Kind   Kind
	fields []string
}

// NewSegment tokenizes a single line. ok is false for blank lines.
func NewSegment(line string, lineNo int) (Segment, bool) {
	raw := strings.TrimSpace(line)
	raw = strings.TrimSuffix(raw, Terminator)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Segment{}, false
	}
	fields := strings.Split(raw, FieldSep)
	return Segment{
		Line:   lineNo,
		Raw:    raw,
		Tag:    fields[0],
		Kind:   classify(fields),
		fields: fields,
	}, true
}

// Len is the number of '+' separated fields, tag included.
func (s Segment) Len() int { return len(s.fields) }

// Field returns field i (the tag is field 0).
func (s Segment) Field(i int) (string, bool) {
	if i < 0 || i >= len(s.fields) {
		return "", false
	}
	return s.fields[i], true
}

// Subs splits field i on ':'. It returns nil when the field is absent.
func (s Segment) Subs(i int) []string {
	f, ok := s.Field(i)
	if !ok {
		return nil
	}
	return strings.Split(f, SubSep)
}

// Sub returns sub-field j of field i.
func (s Segment) Sub(i, j int) (string, bool) {
	subs := s.Subs(i)
	if j < 0 || j >= len(subs) {
		return "", false
	}
	return subs[j], true
}

// Qualifier is the first sub-field of field 1, e.g. "147" in LOC+147+0101.
func (s Segment) Qualifier() string {
	q, _ := s.Sub(1, 0)
	return q
}

func classify(fields []string) Kind {
	qualifier := ""
	if len(fields) > 1 {
		qualifier, _, _ = strings.Cut(fields[1], SubSep)
	}
	switch fields[0] {
	case "TDT":
		return KindTransport
	case "EQD":
		return KindEquipment
	case "LOC":
		switch qualifier {
		case "5":
			return KindLoadingPort
		case "61":
			return KindDischargePort
		case "147":
			return KindStowage
		}
		return KindLocation
	case "DTM":
		switch qualifier {
		case "136":
			return KindDeparture
		case "178":
			return KindArrival
		}
		return KindDate
	case "MEA":
		if len(fields) > 3 && fields[1] == "AAE" && fields[2] == "AET" {
			if unit, _, _ := strings.Cut(fields[3], SubSep); unit == "KGM" {
				return KindGrossWeight
			}
		}
		return KindMeasure
	case "DIM":
		if qualifier == "13" {
			return KindDimensions
		}
	}
	return KindOther
}
