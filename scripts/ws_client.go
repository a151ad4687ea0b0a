// Package main runs a demo WebSocket client for plan run events.
//
// Usage: go run scripts/ws_client.go vessel.baplie order.coprar
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: ws_client MANIFEST DISCHARGE_ORDER")
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	manifest, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	discharge, err := os.ReadFile(os.Args[2])
	if err != nil {
		log.Fatal(err)
	}

	// Connect WS first so no progress event is missed
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/runs/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()
	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}

	// Start an async plan
	body, _ := json.Marshal(map[string]any{
		"manifest":       string(manifest),
		"dischargeOrder": string(discharge),
		"async":          true,
	})
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/plans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_demo")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var accepted struct {
		RunID string `json:"runId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil || accepted.RunID == "" {
		log.Fatalf("plan not accepted (status %d): %v", resp.StatusCode, err)
	}
	log.Printf("Run ID: %s", accepted.RunID)

	pl, _ := json.Marshal(map[string]string{"runId": accepted.RunID})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
			if m.Type == "complete" {
				return
			}
		}
	}()

	select {
	case <-time.After(2 * time.Minute):
	case <-done:
	}
}
