package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"cdsplan/internal/model"
)

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	r, err := m.CreateRun(ctx, "t1")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if r.Status != model.RunPending || r.ID == "" {
		t.Fatalf("unexpected run %+v", r)
	}

	if _, err := m.GetRun(ctx, "t2", r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other tenant must not see the run, got %v", err)
	}

	got, err := m.UpdateRun(ctx, "t1", r.ID, func(run *model.Run) {
		run.Status = model.RunSucceeded
		run.Plan = &model.Plan{Cost: 42}
		run.ID = "tampered"
	})
	if err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}
	if got.ID != r.ID || got.Plan.Cost != 42 {
		t.Fatalf("unexpected update result %+v", got)
	}

	if _, err := m.UpdateRun(ctx, "t1", "missing", func(*model.Run) {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListRunsPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var ids []string
	for i := 0; i < 5; i++ {
		r, _ := m.CreateRun(ctx, "t1")
		ids = append(ids, r.ID)
	}
	_, _ = m.UpdateRun(ctx, "t1", ids[0], func(r *model.Run) { r.Status = model.RunFailed })

	page, next, err := m.ListRuns(ctx, "t1", "", "", 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[4] || next == "" {
		t.Fatalf("unexpected first page %v next=%q", page, next)
	}
	page, next, _ = m.ListRuns(ctx, "t1", "", next, 2)
	if len(page) != 2 || page[0].ID != ids[2] {
		t.Fatalf("unexpected second page %v", page)
	}
	page, next, _ = m.ListRuns(ctx, "t1", "", next, 2)
	if len(page) != 1 || next != "" {
		t.Fatalf("unexpected last page %v next=%q", page, next)
	}

	failed, _, _ := m.ListRuns(ctx, "t1", model.RunFailed, "", 10)
	if len(failed) != 1 || failed[0].ID != ids[0] {
		t.Fatalf("status filter failed: %v", failed)
	}
}

func TestPortsAndOptimizerConfig(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.SavePorts(ctx, map[string]string{" nlrtm ": "Rotterdam", "": "x"})
	ports, _ := m.ListPorts(ctx)
	if ports["NLRTM"] != "Rotterdam" || len(ports) != 1 {
		t.Fatalf("unexpected ports %v", ports)
	}
	_ = m.SavePorts(ctx, map[string]string{"NLRTM": ""})
	ports, _ = m.ListPorts(ctx)
	if len(ports) != 0 {
		t.Fatalf("blank name should delete, got %v", ports)
	}

	cfg, _ := m.GetOptimizerConfig(ctx, "t1")
	if cfg != nil {
		t.Fatalf("expected nil config")
	}
	_ = m.SaveOptimizerConfig(ctx, "t1", map[string]any{"generations": 10})
	cfg, _ = m.GetOptimizerConfig(ctx, "t1")
	if cfg["generations"] != 10 {
		t.Fatalf("unexpected config %v", cfg)
	}
}

func TestWebhookQueue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	payload := []byte(`{"id":"evt_1"}`)
	id, _ := m.EnqueueWebhook(ctx, "t1", "run_1", "plan.completed", "http://x", "s", payload)
	dup, _ := m.EnqueueWebhook(ctx, "t1", "run_1", "plan.completed", "http://x", "s", payload)
	if id != dup {
		t.Fatalf("identical pending event should be deduplicated")
	}

	due, _ := m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].RunID != "run_1" {
		t.Fatalf("unexpected due deliveries %v", due)
	}
	later := time.Now().Add(time.Hour)
	_ = m.MarkWebhookDelivery(ctx, id, false, &later, "boom", 500, 3)
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retry scheduled in the future must not be due")
	}
	_ = m.FailWebhookDelivery(ctx, id, "boom", 500, 3)
	if len(m.DeadLetters()) != 1 {
		t.Fatalf("expected one dead letter")
	}
	items, _ := m.ListWebhookDeliveries(ctx, "t1", "failed")
	if len(items) != 1 || items[0]["attempts"] != 2 {
		t.Fatalf("unexpected deliveries %v", items)
	}
}
