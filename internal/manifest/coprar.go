package manifest

import (
	"strings"

	"cdsplan/internal/edi"
	"cdsplan/internal/model"
)

// DischargeOrder is a parsed COPRAR message.
type DischargeOrder struct {
	Containers []model.DischargeCostRecord
}

type coprarState struct {
	current model.DischargeCostRecord
	open    bool
	records []model.DischargeCostRecord
	tally   tally
}

// ParseDischargeOrder parses a COPRAR message. Any MEA segment mentioning KGM
// is read as the gross weight, which is looser than the manifest's check.
func ParseDischargeOrder(data []byte) (DischargeOrder, Diagnostics) {
	segs := edi.Tokenize(data)
	st := edi.Fold(segs, coprarState{}, coprarState.step)
	st = st.commit()
	return DischargeOrder{Containers: st.records}, st.tally.finish(len(segs))
}

func (st coprarState) commit() coprarState {
	if st.open {
		st.records = append(st.records, st.current)
		st.current, st.open = model.DischargeCostRecord{}, false
	}
	return st
}

func (st coprarState) step(seg edi.Segment) coprarState {
	switch seg.Kind {
	case edi.KindEquipment:
		st = st.commit()
		number, _ := seg.Field(2)
		if strings.TrimSpace(number) == "" {
			number = model.UnknownContainer
			st.tally = st.tally.recovered(seg, "container number missing")
		}
		st.current = model.DischargeCostRecord{ContainerNumber: number}
		st.open = true
	case edi.KindGrossWeight, edi.KindMeasure:
		if !strings.Contains(seg.Raw, "KGM") {
			return st
		}
		if !st.open {
			st.tally = st.tally.orphan(seg)
			return st
		}
		w, ok := grossWeight(seg)
		st.current.Weight = w
		st.current.Measured |= model.MeasuredWeight
		if !ok {
			st.tally = st.tally.recovered(seg, "weight defaulted to 0")
		}
	case edi.KindDimensions:
		if !st.open {
			st.tally = st.tally.orphan(seg)
			return st
		}
		dims, status := dimensions(seg, 3)
		switch status {
		case dimsIgnored:
			st.tally = st.tally.issue(seg, "fewer than 4 dimension sub-fields")
		case dimsApplied:
			st.current.Length, st.current.Width, st.current.Height = dims[0], dims[1], dims[2]
			st.current.Measured |= model.MeasuredDimensions
		case dimsReset:
			st.current.Length, st.current.Width, st.current.Height = 0, 0, 0
			st.current.Measured |= model.MeasuredDimensions
			st.tally = st.tally.recovered(seg, "dimensions reset to 0")
		}
	case edi.KindOther, edi.KindTransport, edi.KindLoadingPort, edi.KindDischargePort,
		edi.KindStowage, edi.KindLocation, edi.KindDeparture, edi.KindArrival, edi.KindDate:
		return st
	}
	st.tally = st.tally.recognized()
	return st
}
