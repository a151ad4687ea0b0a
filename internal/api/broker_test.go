package api

import (
    "testing"
    "time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    rid := "run_1"
    ch := b.Subscribe(rid)

    evt := SSEEvent{Type: EventRunProgress, Data: map[string]any{"generation": 1}}
    b.Publish(rid, evt)
    b.Publish("run_other", SSEEvent{Type: "ignored"})

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if got.Data["generation"].(int) != 1 { t.Fatalf("bad payload: %+v", got.Data) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }

    b.Unsubscribe(rid, ch)
    b.Unsubscribe(rid, ch)
    if _, ok := <-ch; ok { t.Fatal("channel should be closed after unsubscribe") }
}

func TestBrokerPublishDoesNotBlock(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("run_1")
    defer b.Unsubscribe("run_1", ch)
    done := make(chan struct{})
    go func() {
        for i := 0; i < 100; i++ { b.Publish("run_1", SSEEvent{Type: EventRunProgress}) }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("publish blocked on a full subscriber")
    }
}
