package manifest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdsplan/internal/edi"
	"cdsplan/internal/model"
)

const sampleBaplie = `UNB+UNOA:2+SENDER+RECEIVER+240101:1200+1'
UNH+1+BAPLIE:D:95B:UN:SMDG20'
TDT+20+123W+1+MAEU+++9321483:146:11:MAERSK ESSEX'
LOC+5+BEANR:139:6'
LOC+61+FRLEH:139:6'
DTM+136:202401011230:203'
DTM+178:202401051800:203'
LOC+147+0010282::5'
EQD+CN+MSKU1234567+22G1'
MEA+AAE+AET+KGM:12000'
DIM+13+CMT:1:6.05:2.44:2.59'
LOC+147+0030484::5'
EQD+CN+TGHU7654321+45G1'
MEA+AAE+AET+KGM:24500.5'
UNT+14+1'
`

func TestParseManifestSample(t *testing.T) {
	m, diag := ParseManifest([]byte(sampleBaplie), nil)

	want := model.VesselInfo{
		VesselNumber:       "123W",
		Carrier:            "MAEU",
		VesselName:         "MAERSK ESSEX",
		FromPort:           "Antwerp",
		ToPort:             "Le Havre",
		StartDate:          "2024-01-01 12:30",
		PlannedArrivalDate: "2024-01-05 18:00",
	}
	if diff := cmp.Diff(want, m.Vessel); diff != "" {
		t.Fatalf("vessel mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, m.Containers, 2)
	first := m.Containers[0]
	assert.Equal(t, "MSKU1234567", first.ContainerNumber)
	assert.Equal(t, "22G1", first.Type)
	assert.Equal(t, 12000.0, first.Weight)
	assert.Equal(t, 6.05, first.Length)
	assert.Equal(t, "0030484::5", first.Location)
	assert.True(t, first.Measured.Has(model.MeasuredWeight|model.MeasuredDimensions))

	second := m.Containers[1]
	assert.Equal(t, 24500.5, second.Weight)
	assert.Equal(t, "", second.Location)
	assert.Equal(t, [3]float64{}, [3]float64{second.Length, second.Width, second.Height})
	// no DIM segment still leaves the zero defaults as manifest values
	assert.True(t, second.Measured.Has(model.MeasuredDimensions))

	// the LOC+147 before the first EQD has no container to attach to
	assert.Equal(t, 1, diag.Orphaned)
	assert.Equal(t, 15, diag.Segments)
}

func TestParseManifestScenario(t *testing.T) {
	msg := strings.Join([]string{
		"TDT+1+X+Y+Z+A+B+C:MYVESSEL",
		"EQD+X+CNTR001+20GP",
		"LOC+147+0101",
		"MEA+AAE+AET+KGM+1234.5'",
		"DIM+13+X:Y:6.0:2.5:2.6",
	}, "\n")
	m, _ := ParseManifest([]byte(msg), nil)

	assert.Equal(t, "MYVESSEL", m.Vessel.VesselName)
	require.Len(t, m.Containers, 1)
	got := m.Containers[0]
	got.Measured = 0
	want := model.ContainerRecord{
		ContainerNumber: "CNTR001",
		Type:            "20GP",
		Location:        "0101",
		Weight:          1234.5,
		Length:          6.0,
		Width:           2.5,
		Height:          2.6,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseManifestEmptyWeight(t *testing.T) {
	m, diag := ParseManifest([]byte("EQD+CN+A+22G1\nMEA+AAE+AET+KGM+:"), nil)
	require.Len(t, m.Containers, 1)
	assert.Equal(t, 0.0, m.Containers[0].Weight)
	assert.True(t, m.Containers[0].Measured.Has(model.MeasuredWeight))
	assert.Equal(t, 1, diag.Recovered)
}

func TestParseManifestBadWeightValue(t *testing.T) {
	m, _ := ParseManifest([]byte("EQD+CN+A+22G1\nMEA+AAE+AET+KGM:12x0"), nil)
	require.Len(t, m.Containers, 1)
	assert.Equal(t, 0.0, m.Containers[0].Weight)
}

func TestParseManifestDimensions(t *testing.T) {
	cases := []struct {
		name string
		dim  string
		want [3]float64
	}{
		{"full", "DIM+13+CMT:1:6:2.5:2.6", [3]float64{6, 2.5, 2.6}},
		{"blank length", "DIM+13+CMT:1::2.5:2.6", [3]float64{0, 2.5, 2.6}},
		{"blank width", "DIM+13+CMT:1:6::2.6", [3]float64{6, 0, 2.6}},
		{"blank height resets all", "DIM+13+CMT:1:6.0:2.5:", [3]float64{}},
		{"bad width resets all", "DIM+13+CMT:1:6:x:2.6", [3]float64{}},
		{"missing height resets all", "DIM+13+CMT:1:6:2.5", [3]float64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := "EQD+CN+A+22G1\nDIM+13+CMT:1:9:9:9\n" + tc.dim
			m, _ := ParseManifest([]byte(msg), nil)
			require.Len(t, m.Containers, 1)
			c := m.Containers[0]
			assert.Equal(t, tc.want, [3]float64{c.Length, c.Width, c.Height})
			assert.True(t, c.Measured.Has(model.MeasuredDimensions))
		})
	}
}

func TestParseManifestShortDimIsIgnored(t *testing.T) {
	m, diag := ParseManifest([]byte("EQD+CN+A+22G1\nDIM+13+CMT:1:9:9:9\nDIM+13+CMT:1:2"), nil)
	require.Len(t, m.Containers, 1)
	assert.Equal(t, 9.0, m.Containers[0].Length)
	assert.Len(t, diag.Issues, 1)
}

func TestParseManifestRecordCountMatchesEQD(t *testing.T) {
	var b strings.Builder
	for k := 0; k < 25; k++ {
		// every record gets a malformed trailer, and a few have short EQDs
		if k%5 == 0 {
			fmt.Fprintf(&b, "EQD+CN\n")
		} else {
			fmt.Fprintf(&b, "EQD+CN+C%03d+22G1\n", k)
		}
		b.WriteString("MEA+AAE+AET+KGM:\nDIM+13+bad\nLOC+147\n")
	}
	m, _ := ParseManifest([]byte(b.String()), nil)
	assert.Len(t, m.Containers, 25)
}

func TestParseManifestShortSegmentsDoNotPanic(t *testing.T) {
	msg := "TDT\nLOC+5\nLOC+61+\nDTM+136\nDTM+178:notadate\nEQD\nLOC+147\nMEA+AAE+AET+KGM\nDIM+13"
	m, _ := ParseManifest([]byte(msg), nil)
	require.Len(t, m.Containers, 1)
	assert.Equal(t, "notadate", m.Vessel.PlannedArrivalDate)
	assert.Equal(t, "", m.Vessel.FromPort)
}

func TestParseManifestUnknownPortFallsBackToCode(t *testing.T) {
	m, _ := ParseManifest([]byte("LOC+5+ZZXYZ:139:6\nLOC+61+nlrtm"), nil)
	assert.Equal(t, "ZZXYZ", m.Vessel.FromPort)
	assert.Equal(t, "Rotterdam", m.Vessel.ToPort)
}

func TestParseManifestQualifierIsExact(t *testing.T) {
	m, _ := ParseManifest([]byte("LOC+50+BEANR\nEQD+CN+A+22G1\nLOC+1470+9"), nil)
	assert.Equal(t, "", m.Vessel.FromPort)
	require.Len(t, m.Containers, 1)
	assert.Equal(t, "", m.Containers[0].Location)
}

func TestParseManifestTDTResetsVessel(t *testing.T) {
	m, _ := ParseManifest([]byte("LOC+5+BEANR\nTDT+20+V2+1+CARR+++X:NAME"), nil)
	assert.Equal(t, "", m.Vessel.FromPort)
	assert.Equal(t, "V2", m.Vessel.VesselNumber)
	assert.Equal(t, "NAME", m.Vessel.VesselName)
}

func TestParseManifestEmptyInput(t *testing.T) {
	m, diag := ParseManifest(nil, nil)
	assert.Empty(t, m.Containers)
	assert.Equal(t, 0, diag.Segments)
}

func FuzzParseManifest(f *testing.F) {
	f.Add([]byte(sampleBaplie))
	f.Add([]byte("EQD+++\nDIM+13+::::\nMEA+AAE+AET+KGM:'"))
	f.Fuzz(func(t *testing.T, data []byte) {
		m, _ := ParseManifest(data, nil)
		eqd := 0
		for _, seg := range edi.Tokenize(data) {
			if seg.Kind == edi.KindEquipment {
				eqd++
			}
		}
		if len(m.Containers) != eqd {
			t.Fatalf("got %d records for %d EQD segments", len(m.Containers), eqd)
		}
	})
}
