package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vestnik-bot/vestnik/pkg/message"
)

func TestPollerReceivesUpdates(t *testing.T) {
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := callCount.Add(1)
		if n == 1 {
			writeJSON(t, w, APIResponse[[]Update]{
				OK: true,
				Result: []Update{
					{
						UpdateID: 1,
						Message: &Message{
							MessageID: 10,
							From:      &User{ID: 100, FirstName: "Alice", Username: "alice"},
							Chat:      Chat{ID: 200, Type: "private"},
							Text:      "hello",
							Date:      1700000000,
						},
					},
				},
			})
			return
		}
		// Second call: empty (give poller time to stop).
		writeJSON(t, w, APIResponse[[]Update]{OK: true, Result: []Update{}})
		// Sleep to let stop signal propagate.
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)

	var mu sync.Mutex
	var received []message.InboundMessage

	poller := NewPoller(client, func(msg message.InboundMessage) error {
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
		return nil
	}, discardLogger(), "telegram", Config{
		PollingTimeout: 0, // No long-polling timeout in tests.
		AllowedUpdates: []string{"message", "callback_query"},
	})

	poller.Start()
	// Wait for at least one update to be processed.
	time.Sleep(500 * time.Millisecond)
	poller.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("received %d messages, want 1", len(received))
	}
	if received[0].Sender.ID != 100 {
		t.Errorf("Sender.ID = %d, want 100", received[0].Sender.ID)
	}
}

func TestPollerCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		// Always return error.
		writeJSON(t, w, APIResponse[json.RawMessage]{
			OK:          false,
			ErrorCode:   500,
			Description: "Internal Server Error",
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)

	poller := NewPoller(client, func(_ message.InboundMessage) error {
		return nil
	}, discardLogger(), "telegram", Config{
		PollingTimeout: 0,
		AllowedUpdates: []string{"message"},
	})

	poller.Start()
	// Give it enough time to hit the circuit breaker (5 errors).
	time.Sleep(300 * time.Millisecond)
	poller.Stop()

	// Should have hit at least 5 errors to trigger the breaker.
	if got := calls.Load(); got < 5 {
		t.Errorf("calls = %d, want >= 5", got)
	}
}
