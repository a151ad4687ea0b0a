package model

import (
    "strconv"
    "strings"
)

// Coordinates decodes a colon separated "x:y:z" stowage location for 3D views.
// Missing or non-numeric parts are 0. This is unrelated to the "row,column"
// form the cost model reads.
func (d ContainerDetail) Coordinates() (x, y, z int) {
    parts := strings.Split(d.Location, ":")
    at := func(i int) int {
        if i >= len(parts) {
            return 0
        }
        n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
        if err != nil {
            return 0
        }
        return n
    }
    return at(0), at(1), at(2)
}
