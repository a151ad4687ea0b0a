package metrics

import (
    "testing"

    "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterDefaultIsIdempotent(t *testing.T) {
    RegisterDefault()
    RegisterDefault()

    PlanRuns.WithLabelValues("succeeded").Inc()
    if got := testutil.ToFloat64(PlanRuns.WithLabelValues("succeeded")); got < 1 {
        t.Fatalf("expected counter to be incremented, got %v", got)
    }
    mfs, err := Registry.Gather()
    if err != nil {
        t.Fatalf("gather: %v", err)
    }
    found := false
    for _, mf := range mfs {
        if mf.GetName() == "cds_plan_runs_total" {
            found = true
        }
    }
    if !found {
        t.Fatalf("cds_plan_runs_total not registered")
    }
}
