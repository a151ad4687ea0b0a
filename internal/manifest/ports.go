package manifest

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// PortLookup maps a UN/LOCODE to a display name.
type PortLookup interface {
	PortName(code string) (string, bool)
}

// Ports is an in-memory port directory keyed by upper-case code.
type Ports map[string]string

func (p Ports) PortName(code string) (string, bool) {
	name, ok := p[normCode(code)]
	return name, ok
}

// With returns a copy of p overlaid with extra. Blank names are ignored.
func (p Ports) With(extra map[string]string) Ports {
	out := make(Ports, len(p)+len(extra))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range extra {
		if k = normCode(k); k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// DefaultPorts returns the built-in directory.
func DefaultPorts() Ports {
	return Ports{
		"BEANR": "Antwerp",
		"FRLEH": "Le Havre",
		"NLRTM": "Rotterdam",
		"DEHAM": "Hamburg",
		"DEBRV": "Bremerhaven",
		"GBFXT": "Felixstowe",
		"ESALG": "Algeciras",
		"ESVLC": "Valencia",
		"ITGOA": "Genoa",
		"MAPTM": "Tanger Med",
		"SGSIN": "Singapore",
		"CNSHA": "Shanghai",
		"CNNGB": "Ningbo",
		"USNYC": "New York",
	}
}

type portsFile struct {
	Ports map[string]string `yaml:"ports"`
}

// LoadPorts reads a YAML directory of the form
//
//	ports:
//	  BEANR: Antwerp
//
// and overlays it on the defaults.
func LoadPorts(r io.Reader) (Ports, error) {
	var f portsFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode ports: %w", err)
	}
	return DefaultPorts().With(f.Ports), nil
}

func normCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
