// Package merge left-joins manifest container records with discharge-order
// records into the table the optimizer works on.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"cdsplan/internal/model"
)

var (
	// ErrMissingJoinKey means an input carries no container identifiers at all.
	ErrMissingJoinKey = errors.New("ContainerNumber column is missing in one of the datasets")
	// ErrEmptyResult means both inputs were usable but share no container.
	ErrEmptyResult = errors.New("combined data is empty after merging")
)

// Validate checks that both record sets can be joined on ContainerNumber.
func Validate(manifest []model.ContainerRecord, discharge []model.DischargeCostRecord) error {
	if len(manifest) == 0 {
		return fmt.Errorf("%w: manifest has no container records", ErrMissingJoinKey)
	}
	if len(discharge) == 0 {
		return fmt.Errorf("%w: discharge order has no container records", ErrMissingJoinKey)
	}
	return nil
}

// Merge produces one row per manifest record, in manifest order. Numeric
// fields a record leaves undefined are taken from the first discharge record
// with the same container number, else 0. Parsed stowage records define every
// field, so for them the manifest value always wins. Discharge records without a
// manifest counterpart are dropped. When no manifest record finds a partner
// Merge returns ErrEmptyResult and no rows.
func Merge(manifest []model.ContainerRecord, discharge []model.DischargeCostRecord) ([]model.ContainerDetail, error) {
	if err := Validate(manifest, discharge); err != nil {
		return nil, err
	}
	byKey := make(map[string]model.DischargeCostRecord, len(discharge))
	for _, d := range discharge {
		k := key(d.ContainerNumber)
		if k == "" {
			continue
		}
		if _, seen := byKey[k]; !seen {
			byKey[k] = d
		}
	}

	out := make([]model.ContainerDetail, 0, len(manifest))
	matched := 0
	for _, m := range manifest {
		row := model.ContainerDetail{
			ContainerNumber: m.ContainerNumber,
			Type:            m.Type,
			Weight:          m.Weight,
			Length:          m.Length,
			Width:           m.Width,
			Height:          m.Height,
			Location:        m.Location,
		}
		d, ok := byKey[key(m.ContainerNumber)]
		if ok {
			matched++
			if !m.Measured.Has(model.MeasuredWeight) {
				row.Weight = d.Weight
			}
			if !m.Measured.Has(model.MeasuredDimensions) {
				row.Length, row.Width, row.Height = d.Length, d.Width, d.Height
			}
		}
		out = append(out, row)
	}
	if matched == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}

func key(s string) string { return strings.TrimSpace(s) }
