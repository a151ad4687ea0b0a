package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cdsplan/internal/model"
	"cdsplan/internal/opt"
	"cdsplan/internal/planner"
	"cdsplan/internal/webhooks"
)

// callback is where a finished run reports; zero means no callback.
type callback struct {
	URL    string
	Secret string
}

// startRun registers a pending run and computes it in the background.
func (s *Server) startRun(ctx context.Context, tenant string, req planner.Request, cb callback) (model.Run, error) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return model.Run{}, ErrShuttingDown
	}
	s.runs.Add(1)
	s.mu.Unlock()

	run, err := s.Store.CreateRun(ctx, tenant)
	if err != nil {
		s.runs.Done()
		return model.Run{}, err
	}
	go func() {
		defer s.runs.Done()
		s.execute(tenant, run.ID, req, cb)
	}()
	return run, nil
}

func (s *Server) execute(tenant, id string, req planner.Request, cb callback) {
	ctx := s.ctx
	log := s.Log.With(zap.String("run", id), zap.String("tenant", tenant))
	if _, err := s.Store.UpdateRun(ctx, tenant, id, func(r *model.Run) { r.Status = model.RunRunning }); err != nil {
		log.Error("mark run running", zap.Error(err))
		return
	}
	s.Broker.Publish(id, SSEEvent{Type: EventRunStarted, Data: map[string]any{"runId": id}})

	progress := func(st opt.GenerationStats) {
		p := model.Progress{
			Generation: st.Generation,
			BestCost:   st.Best,
			MeanCost:   st.Mean,
			WorstCost:  st.Worst,
			GlobalBest: st.GlobalBest,
		}
		_, _ = s.Store.UpdateRun(ctx, tenant, id, func(r *model.Run) { r.Progress = &p })
		s.Broker.Publish(id, SSEEvent{Type: EventRunProgress, Data: map[string]any{
			"runId":      id,
			"generation": p.Generation,
			"bestCost":   p.BestCost,
			"meanCost":   p.MeanCost,
			"worstCost":  p.WorstCost,
			"globalBest": p.GlobalBest,
		}})
	}

	plan, err := s.planner(ctx).Plan(ctx, req, progress)
	finished := time.Now().UTC().Format(time.RFC3339Nano)
	// the run must be recorded even when the server is shutting down
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err != nil {
		outcome := planner.Outcome(err)
		_, _ = s.Store.UpdateRun(recordCtx, tenant, id, func(r *model.Run) {
			r.Status = model.RunFailed
			r.Error = err.Error()
			r.FinishedAt = finished
		})
		data := map[string]any{"runId": id, "outcome": outcome, "error": err.Error()}
		s.Broker.Publish(id, SSEEvent{Type: EventRunFailed, Data: data})
		s.notify(recordCtx, log, tenant, id, webhooks.EventPlanFailed, cb, data)
		log.Warn("async plan failed", zap.String("outcome", outcome), zap.Error(err))
		return
	}

	_, _ = s.Store.UpdateRun(recordCtx, tenant, id, func(r *model.Run) {
		r.Status = model.RunSucceeded
		r.Plan = plan
		r.FinishedAt = finished
	})
	data := map[string]any{
		"runId":       id,
		"cost":        plan.Cost,
		"sequence":    plan.Sequence,
		"generations": plan.Generations,
		"truncated":   plan.Truncated,
	}
	s.Broker.Publish(id, SSEEvent{Type: EventRunCompleted, Data: data})
	s.notify(recordCtx, log, tenant, id, webhooks.EventPlanCompleted, cb, data)
}

func (s *Server) notify(ctx context.Context, log *zap.Logger, tenant, id, eventType string, cb callback, data map[string]any) {
	if cb.URL == "" {
		return
	}
	if _, err := s.Pub.Emit(ctx, tenant, id, eventType, cb.URL, cb.Secret, data); err != nil {
		log.Error("enqueue callback", zap.String("event", eventType), zap.Error(err))
	}
}

func terminal(status string) bool {
	return status == model.RunSucceeded || status == model.RunFailed
}
