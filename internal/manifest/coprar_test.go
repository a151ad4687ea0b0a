package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdsplan/internal/model"
)

const sampleCoprar = `UNH+1+COPRAR:D:00B:UN:SMDG21'
BGM+45+0001+9'
TDT+20+123W+1++MAEU'
EQD+CN+MSKU1234567+22G1+2+5'
MEA+WT++KGM:11800'
DIM+13+CMT:1:6.1:2.4:2.6'
EQD+CN+ABCD0000001+45G1+2+5'
MEA+VGM++KGM:30000'
EQD+CN'
MEA+WT++KGM:x'
UNT+10+1'
`

func TestParseDischargeOrder(t *testing.T) {
	d, diag := ParseDischargeOrder([]byte(sampleCoprar))
	require.Len(t, d.Containers, 3)

	assert.Equal(t, "MSKU1234567", d.Containers[0].ContainerNumber)
	assert.Equal(t, 11800.0, d.Containers[0].Weight)
	assert.Equal(t, [3]float64{6.1, 2.4, 2.6},
		[3]float64{d.Containers[0].Length, d.Containers[0].Width, d.Containers[0].Height})

	assert.Equal(t, 30000.0, d.Containers[1].Weight)

	assert.Equal(t, model.UnknownContainer, d.Containers[2].ContainerNumber)
	assert.Equal(t, 0.0, d.Containers[2].Weight)
	assert.True(t, d.Containers[2].Measured.Has(model.MeasuredWeight))
	assert.Equal(t, 2, diag.Recovered)
}

func TestParseDischargeOrderLooseWeightMatch(t *testing.T) {
	// any MEA carrying KGM is a weight here, unlike the manifest
	d, _ := ParseDischargeOrder([]byte("EQD+CN+A\nMEA+XYZ++KGM:55\nMEA+AAE+VOL++MTQ:33"))
	require.Len(t, d.Containers, 1)
	assert.Equal(t, 55.0, d.Containers[0].Weight)
}

func TestParseDischargeOrderBlankHeight(t *testing.T) {
	d, diag := ParseDischargeOrder([]byte("EQD+CN+A\nDIM+13+CMT:1:6.0:2.5:"))
	require.Len(t, d.Containers, 1)
	c := d.Containers[0]
	assert.Equal(t, [3]float64{6, 2.5, 0}, [3]float64{c.Length, c.Width, c.Height})
	assert.Zero(t, diag.Recovered)
}

func TestParseDischargeOrderOrphans(t *testing.T) {
	d, diag := ParseDischargeOrder([]byte("MEA+WT++KGM:1\nDIM+13+CMT:1:1:1:1"))
	assert.Empty(t, d.Containers)
	assert.Equal(t, 2, diag.Orphaned)
}

func TestParseDischargeOrderRecordCount(t *testing.T) {
	msg := strings.Repeat("EQD+CN+X\nDIM+13+CMT:1:a:b:c\n", 7) + "EQD"
	d, _ := ParseDischargeOrder([]byte(msg))
	assert.Len(t, d.Containers, 8)
	assert.Equal(t, model.UnknownContainer, d.Containers[7].ContainerNumber)
	assert.Equal(t, 0.0, d.Containers[0].Length)
}
