package manifest

import (
	"cdsplan/internal/edi"
	"cdsplan/internal/model"
)

// Diagnostics is the per-parse summary returned next to the records.
type Diagnostics = model.Diagnostics

// maxIssues bounds the per-line issue list; counters keep counting past it.
const maxIssues = 200

type tally struct {
	d Diagnostics
}

func (t tally) recognized() tally {
	t.d.Recognized++
	return t
}

func (t tally) recovered(seg edi.Segment, reason string) tally {
	t.d.Recovered++
	return t.issue(seg, reason)
}

func (t tally) orphan(seg edi.Segment) tally {
	t.d.Orphaned++
	return t.issue(seg, "no active container")
}

func (t tally) issue(seg edi.Segment, reason string) tally {
	if len(t.d.Issues) < maxIssues {
		t.d.Issues = append(t.d.Issues, model.Issue{Line: seg.Line, Segment: seg.Tag, Reason: reason})
	}
	return t
}

func (t tally) finish(segments int) Diagnostics {
	t.d.Segments = segments
	return t.d
}
