package edi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeSkipsBlankLinesAndTrims(t *testing.T) {
	data := []byte("\ufeffUNH+1+BAPLIE:D:95B:UN'\r\n\r\n   TDT+20+123W+1++MSC   \rLOC+147+0101'\n'\n")
	segs := Tokenize(data)
	require.Len(t, segs, 3)

	assert.Equal(t, "UNH", segs[0].Tag)
	assert.Equal(t, 1, segs[0].Line)
	assert.Equal(t, "TDT+20+123W+1++MSC", segs[1].Raw)
	assert.Equal(t, KindTransport, segs[1].Kind)
	assert.Equal(t, "LOC+147+0101", segs[2].Raw)
	assert.Equal(t, KindStowage, segs[2].Kind)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		line string
		want Kind
	}{
		{"TDT+20+123W+1+MAEU", KindTransport},
		{"LOC+5+BEANR:139:6", KindLoadingPort},
		{"LOC+61+FRLEH", KindDischargePort},
		{"LOC+147+0010282::5", KindStowage},
		{"LOC+50+XXX", KindLocation},
		{"DTM+136:202401011200:203", KindDeparture},
		{"DTM+178:202401051800:203", KindArrival},
		{"DTM+137:202401011200:203", KindDate},
		{"EQD+CN+CNTR001+22G1", KindEquipment},
		{"MEA+AAE+AET+KGM:1234.5", KindGrossWeight},
		{"MEA+AAE+AET+KGM+1234.5", KindGrossWeight},
		{"MEA+WT++KGM:1200", KindMeasure},
		{"DIM+13+CMT:1:6.0:2.5:2.6", KindDimensions},
		{"DIM+5+CMT:1:2", KindOther},
		{"FTX+AAA+++HAZ", KindOther},
		{"LOC", KindLocation},
	}
	for _, tc := range cases {
		seg, ok := NewSegment(tc.line, 1)
		require.True(t, ok, tc.line)
		assert.Equal(t, tc.want, seg.Kind, tc.line)
	}
}

func TestAccessorsOutOfRange(t *testing.T) {
	seg, ok := NewSegment("EQD+CN", 7)
	require.True(t, ok)

	assert.Equal(t, 2, seg.Len())
	_, ok = seg.Field(5)
	assert.False(t, ok)
	_, ok = seg.Field(-1)
	assert.False(t, ok)
	assert.Nil(t, seg.Subs(3))
	_, ok = seg.Sub(1, 4)
	assert.False(t, ok)

	v, ok := seg.Sub(1, 0)
	assert.True(t, ok)
	assert.Equal(t, "CN", v)
}

func TestQualifierAndSubs(t *testing.T) {
	seg, _ := NewSegment("DIM+13+X:Y:6.0:2.5:2.6", 1)
	assert.Equal(t, "13", seg.Qualifier())
	assert.Equal(t, []string{"X", "Y", "6.0", "2.5", "2.6"}, seg.Subs(2))
}

func TestFold(t *testing.T) {
	segs := Tokenize([]byte("EQD+CN+A\nLOC+147+1\nEQD+CN+B"))
	count := Fold(segs, 0, func(n int, s Segment) int {
		if s.Kind == KindEquipment {
			n++
		}
		return n
	})
	assert.Equal(t, 2, count)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "gross-weight", KindGrossWeight.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
