// Package manifest turns tokenized BAPLIE stowage messages and COPRAR
// discharge orders into container records.
//
// Both parsers are single-pass folds over edi segments. A record opens on an
// EQD segment and is committed when the next EQD arrives or input ends, so k
// EQD segments always produce k records. Malformed segments never fail a
// parse: values fall back to zero or empty and the event is counted in the
// returned Diagnostics.
package manifest

import (
	"cdsplan/internal/edi"
	"cdsplan/internal/model"
)

// Manifest is a parsed stowage message.
type Manifest struct {
	Vessel     model.VesselInfo
	Containers []model.ContainerRecord
}

type baplieState struct {
	ports   PortLookup
	vessel  model.VesselInfo
	current model.ContainerRecord
	open    bool
	records []model.ContainerRecord
	tally   tally
}

// ParseManifest parses a BAPLIE message. A nil ports uses DefaultPorts.
func ParseManifest(data []byte, ports PortLookup) (Manifest, Diagnostics) {
	if ports == nil {
		ports = DefaultPorts()
	}
	segs := edi.Tokenize(data)
	st := edi.Fold(segs, baplieState{ports: ports}, baplieState.step)
	st = st.commit()
	return Manifest{Vessel: st.vessel, Containers: st.records}, st.tally.finish(len(segs))
}

func (st baplieState) commit() baplieState {
	if st.open {
		st.records = append(st.records, st.current)
		st.current, st.open = model.ContainerRecord{}, false
	}
	return st
}

func (st baplieState) step(seg edi.Segment) baplieState {
	switch seg.Kind {
	case edi.KindTransport:
		st.vessel = vessel(seg)
		if seg.Len() < 8 {
			st.tally = st.tally.issue(seg, "short TDT, missing vessel fields left empty")
		}
	case edi.KindLoadingPort, edi.KindDischargePort:
		name, ok := portName(seg, st.ports)
		if !ok {
			st.tally = st.tally.issue(seg, "port code missing")
			return st
		}
		if seg.Kind == edi.KindLoadingPort {
			st.vessel.FromPort = name
		} else {
			st.vessel.ToPort = name
		}
	case edi.KindDeparture, edi.KindArrival:
		raw, ok := seg.Sub(1, 1)
		if !ok {
			st.tally = st.tally.issue(seg, "date value missing")
			return st
		}
		v, converted := edi.Date(raw)
		if !converted {
			st.tally = st.tally.recovered(seg, "date kept unconverted")
		}
		if seg.Kind == edi.KindDeparture {
			st.vessel.StartDate = v
		} else {
			st.vessel.PlannedArrivalDate = v
		}
	case edi.KindEquipment:
		st = st.commit()
		number, _ := seg.Field(2)
		typ, ok := seg.Field(3)
		if !ok {
			st.tally = st.tally.issue(seg, "equipment type missing")
		}
		// numeric fields default to 0, which counts as a manifest value
		st.current = model.ContainerRecord{ContainerNumber: number, Type: typ, Measured: model.MeasuredWeight | model.MeasuredDimensions}
		st.open = true
	case edi.KindStowage:
		if !st.open {
			st.tally = st.tally.orphan(seg)
			return st
		}
		loc, _ := seg.Field(2)
		st.current.Location = loc
	case edi.KindGrossWeight:
		if !st.open {
			st.tally = st.tally.orphan(seg)
			return st
		}
		w, ok := grossWeight(seg)
		st.current.Weight = w
		if !ok {
			st.tally = st.tally.recovered(seg, "weight defaulted to 0")
		}
	case edi.KindDimensions:
		if !st.open {
			st.tally = st.tally.orphan(seg)
			return st
		}
		st = st.dimensions(seg)
	case edi.KindOther, edi.KindLocation, edi.KindDate, edi.KindMeasure:
		return st
	}
	st.tally = st.tally.recognized()
	return st
}

func (st baplieState) dimensions(seg edi.Segment) baplieState {
	dims, status := dimensions(seg, 2)
	switch status {
	case dimsIgnored:
		st.tally = st.tally.issue(seg, "fewer than 4 dimension sub-fields")
	case dimsApplied:
		st.current.Length, st.current.Width, st.current.Height = dims[0], dims[1], dims[2]
	case dimsReset:
		st.current.Length, st.current.Width, st.current.Height = 0, 0, 0
		st.tally = st.tally.recovered(seg, "dimensions reset to 0")
	}
	return st
}

// vessel reads TDT fields 2, 4 and 7; the name is the last sub-field of 7.
func vessel(seg edi.Segment) model.VesselInfo {
	number, _ := seg.Field(2)
	carrier, _ := seg.Field(4)
	var name string
	if subs := seg.Subs(7); len(subs) > 0 {
		name = subs[len(subs)-1]
	}
	return model.VesselInfo{VesselNumber: number, Carrier: carrier, VesselName: name}
}
