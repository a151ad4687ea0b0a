package model

import "testing"

func TestCoordinates(t *testing.T) {
    cases := []struct {
        loc     string
        x, y, z int
    }{
        {"1:2:3", 1, 2, 3},
        {"4:5", 4, 5, 0},
        {"a:7:8", 0, 7, 8},
        {"", 0, 0, 0},
        {"3,4", 0, 0, 0},
    }
    for _, tc := range cases {
        x, y, z := ContainerDetail{Location: tc.loc}.Coordinates()
        if x != tc.x || y != tc.y || z != tc.z {
            t.Fatalf("%q: got (%d,%d,%d) want (%d,%d,%d)", tc.loc, x, y, z, tc.x, tc.y, tc.z)
        }
    }
}

func TestMeasuredHas(t *testing.T) {
    m := MeasuredWeight
    if !m.Has(MeasuredWeight) || m.Has(MeasuredDimensions) {
        t.Fatalf("unexpected flags %b", m)
    }
    m |= MeasuredDimensions
    if !m.Has(MeasuredWeight | MeasuredDimensions) {
        t.Fatalf("expected both flags, got %b", m)
    }
}
