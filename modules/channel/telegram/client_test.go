package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTEST_TOKEN/getMe" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}

		writeJSON(t, w, APIResponse[User]{
			OK: true,
			Result: User{
				ID:        123,
				IsBot:     true,
				FirstName: "TestBot",
				Username:  "test_bot",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TEST_TOKEN", srv.URL)
	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if user.ID != 123 {
		t.Errorf("ID = %d, want 123", user.ID)
	}
	if !user.IsBot {
		t.Error("IsBot = false, want true")
	}
	if user.Username != "test_bot" {
		t.Errorf("Username = %q, want %q", user.Username, "test_bot")
	}
}

func TestSendMessageWithKeyboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req SendMessageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.ChatID != 42 {
			t.Errorf("ChatID = %d, want 42", req.ChatID)
		}
		if req.Text != "hello" {
			t.Errorf("Text = %q, want %q", req.Text, "hello")
		}
		if req.ReplyMarkup == nil || len(req.ReplyMarkup.InlineKeyboard) != 1 {
			t.Fatalf("ReplyMarkup = %+v, want one keyboard row", req.ReplyMarkup)
		}
		if req.ReplyMarkup.InlineKeyboard[0][0].CallbackData != "mod:approve:1" {
			t.Errorf("CallbackData = %q, want %q",
				req.ReplyMarkup.InlineKeyboard[0][0].CallbackData, "mod:approve:1")
		}

		writeJSON(t, w, APIResponse[Message]{
			OK: true,
			Result: Message{
				MessageID: 99,
				Chat:      Chat{ID: 42, Type: "private"},
				Text:      "hello",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	msg, err := client.SendMessage(context.Background(), SendMessageRequest{
		ChatID: 42,
		Text:   "hello",
		ReplyMarkup: &InlineKeyboardMarkup{
			InlineKeyboard: [][]InlineKeyboardButton{
				{{Text: "Approve", CallbackData: "mod:approve:1"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if msg.MessageID != 99 {
		t.Errorf("MessageID = %d, want 99", msg.MessageID)
	}
}

func TestEditMessageText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/editMessageText" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req EditMessageTextRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.ChatID != -500 || req.MessageID != 15 {
			t.Errorf("ChatID = %d MessageID = %d, want -500/15", req.ChatID, req.MessageID)
		}
		if req.Text != "решено" {
			t.Errorf("Text = %q, want %q", req.Text, "решено")
		}

		writeJSON(t, w, APIResponse[Message]{
			OK: true,
			Result: Message{
				MessageID: 15,
				Chat:      Chat{ID: -500, Type: "supergroup"},
				Text:      "решено",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	msg, err := client.EditMessageText(context.Background(), EditMessageTextRequest{
		ChatID:    -500,
		MessageID: 15,
		Text:      "решено",
	})
	if err != nil {
		t.Fatalf("EditMessageText() error: %v", err)
	}
	if msg.MessageID != 15 {
		t.Errorf("MessageID = %d, want 15", msg.MessageID)
	}
}

func TestGetUpdatesCallbackQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getUpdates" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req GetUpdatesRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.Offset != 100 {
			t.Errorf("Offset = %d, want 100", req.Offset)
		}

		writeJSON(t, w, APIResponse[[]Update]{
			OK: true,
			Result: []Update{
				{
					UpdateID: 100,
					Message: &Message{
						MessageID: 1,
						Text:      "test",
						Chat:      Chat{ID: 42, Type: "private"},
					},
				},
				{
					UpdateID: 101,
					CallbackQuery: &CallbackQuery{
						ID:   "cb-1",
						From: User{ID: 7, FirstName: "Admin"},
						Data: "mod:approve:3",
						Message: &Message{
							MessageID: 55,
							Chat:      Chat{ID: -100, Type: "group"},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	updates, err := client.GetUpdates(context.Background(), GetUpdatesRequest{
		Offset:  100,
		Timeout: 30,
	})
	if err != nil {
		t.Fatalf("GetUpdates() error: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("len(updates) = %d, want 2", len(updates))
	}
	if updates[1].CallbackQuery == nil {
		t.Fatal("updates[1].CallbackQuery = nil, want callback")
	}
	if updates[1].CallbackQuery.Data != "mod:approve:3" {
		t.Errorf("CallbackQuery.Data = %q, want %q", updates[1].CallbackQuery.Data, "mod:approve:3")
	}
}

func TestAnswerCallbackQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/answerCallbackQuery" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req AnswerCallbackQueryRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.CallbackQueryID != "cb-9" {
			t.Errorf("CallbackQueryID = %q, want %q", req.CallbackQueryID, "cb-9")
		}
		writeJSON(t, w, APIResponse[bool]{OK: true, Result: true})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	err := client.AnswerCallbackQuery(context.Background(), AnswerCallbackQueryRequest{
		CallbackQueryID: "cb-9",
		Text:            "Одобрено",
	})
	if err != nil {
		t.Fatalf("AnswerCallbackQuery() error: %v", err)
	}
}

func TestRateLimitRetry(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			// First call: 429 with retry_after.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			writeJSON(t, w, APIResponse[json.RawMessage]{
				OK:          false,
				ErrorCode:   429,
				Description: "Too Many Requests: retry after 1",
				Parameters:  &ResponseParameters{RetryAfter: 1},
			})
			return
		}
		// Second call: success.
		writeJSON(t, w, APIResponse[User]{
			OK: true,
			Result: User{
				ID:        456,
				IsBot:     true,
				FirstName: "RetryBot",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error after retry: %v", err)
	}
	if user.ID != 456 {
		t.Errorf("ID = %d, want 456", user.ID)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, APIResponse[json.RawMessage]{
			OK:          false,
			ErrorCode:   400,
			Description: "Bad Request: chat not found",
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	_, err := client.SendMessage(context.Background(), SendMessageRequest{
		ChatID: 999,
		Text:   "hello",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Code != 400 {
		t.Errorf("Code = %d, want 400", apiErr.Code)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()

	if cfg.Mode != "polling" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "polling")
	}
	if cfg.PollingTimeout != 30 {
		t.Errorf("PollingTimeout = %d, want 30", cfg.PollingTimeout)
	}
	if len(cfg.AllowedUpdates) != 2 {
		t.Errorf("len(AllowedUpdates) = %d, want 2", len(cfg.AllowedUpdates))
	}
	if cfg.AllowedUpdates[1] != "callback_query" {
		t.Errorf("AllowedUpdates[1] = %q, want %q", cfg.AllowedUpdates[1], "callback_query")
	}
	if cfg.MaxMessageLength != 4096 {
		t.Errorf("MaxMessageLength = %d, want 4096", cfg.MaxMessageLength)
	}
	if cfg.APIURL != "https://api.telegram.org" {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, "https://api.telegram.org")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(_ *Config) {}, false},
		{"bad token", func(c *Config) { c.Token = "no-colon" }, true},
		{"good token", func(c *Config) { c.Token = "12345:AbCdEf_ghIJ-klmno" }, false},
		{"bad api url", func(c *Config) { c.APIURL = "ftp://example.com" }, true},
		{"polling timeout too high", func(c *Config) { c.PollingTimeout = 100 }, true},
		{"max length too high", func(c *Config) { c.MaxMessageLength = 5000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.defaults()
			tt.mutate(&cfg)
			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Code: 429, Description: "Too Many Requests", RetryAfter: 5}
	want := "telegram: 429 Too Many Requests (retry after 5s)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err2 := &APIError{Code: 400, Description: "Bad Request"}
	want2 := "telegram: 400 Bad Request"
	if got := err2.Error(); got != want2 {
		t.Errorf("Error() = %q, want %q", got, want2)
	}
}
