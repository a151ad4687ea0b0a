package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Run events over WebSocket. Clients send connection_init, then one
// subscribe per run ({"type":"subscribe","id":"1","payload":{"runId":"..."}});
// the server answers with next messages and a complete once the run ends.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	RunID string `json:"runId"`
}

// RunsWSHandler handles /v1/runs/ws
func (s *Server) RunsWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()
	_, tenant := s.withTenant(r)

	// gorilla connections allow one concurrent writer
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}
	next := func(id string, evt SSEEvent) error {
		payload, _ := json.Marshal(evt)
		return write(wsMessage{Type: "next", ID: id, Payload: payload})
	}
	fail := func(id, msg string) {
		payload, _ := json.Marshal(map[string]string{"message": msg})
		_ = write(wsMessage{Type: "error", ID: id, Payload: payload})
		_ = write(wsMessage{Type: "complete", ID: id})
	}

	type sub struct {
		runID string
		ch    chan SSEEvent
	}
	subs := map[string]sub{}
	done := make(chan struct{})
	var fanout sync.WaitGroup
	defer func() {
		close(done)
		for id, s0 := range subs {
			s.Broker.Unsubscribe(s0.runID, s0.ch)
			delete(subs, id)
		}
		fanout.Wait()
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "connection_init":
			_ = write(wsMessage{Type: "connection_ack"})
			fanout.Add(1)
			go func() {
				defer fanout.Done()
				ticker := time.NewTicker(20 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						if err := write(wsMessage{Type: "ping"}); err != nil {
							return
						}
					}
				}
			}()
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "subscribe":
			var pl subscribePayload
			_ = json.Unmarshal(msg.Payload, &pl)
			if pl.RunID == "" {
				fail(msg.ID, "runId required")
				continue
			}
			if _, dup := subs[msg.ID]; dup {
				fail(msg.ID, "subscription id already in use")
				continue
			}
			ch := s.Broker.Subscribe(pl.RunID)
			run, err := s.Store.GetRun(r.Context(), tenant, pl.RunID)
			if err != nil {
				s.Broker.Unsubscribe(pl.RunID, ch)
				fail(msg.ID, "run not found")
				continue
			}
			_ = next(msg.ID, SSEEvent{Type: "snapshot", Data: map[string]any{"runId": run.ID, "status": run.Status, "progress": run.Progress}})
			if terminal(run.Status) {
				s.Broker.Unsubscribe(pl.RunID, ch)
				_ = write(wsMessage{Type: "complete", ID: msg.ID})
				continue
			}
			subs[msg.ID] = sub{runID: pl.RunID, ch: ch}
			fanout.Add(1)
			go func(id string, c chan SSEEvent) {
				defer fanout.Done()
				for {
					select {
					case <-done:
						return
					case evt, ok := <-c:
						if !ok {
							return
						}
						if err := next(id, evt); err != nil {
							return
						}
						if evt.Type == EventRunCompleted || evt.Type == EventRunFailed {
							_ = write(wsMessage{Type: "complete", ID: id})
							return
						}
					}
				}
			}(msg.ID, ch)
		case "complete":
			if s0, ok := subs[msg.ID]; ok {
				s.Broker.Unsubscribe(s0.runID, s0.ch)
				delete(subs, msg.ID)
			}
		default:
			// ignore
		}
	}
}
