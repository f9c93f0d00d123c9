package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kjannette/stocks-backend/internal/scheduler"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestSend_NoWebhook(t *testing.T) {
	s := NewSender("", "TestApp", zerolog.Nop())
	if s.Enabled() {
		t.Fatal("should not be enabled with empty URL")
	}
	s.Send(context.Background(), "hello from test")
}

func TestSend_SlackFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "TestApp", zerolog.Nop())
	if !s.Enabled() {
		t.Fatal("should be enabled")
	}

	s.StateChanged(context.Background(), scheduler.Running)

	if received["username"] != "TestApp" {
		t.Fatalf("username: got %s", received["username"])
	}
	if received["text"] != "`[TestApp] poller running`" {
		t.Fatalf("text: got %q", received["text"])
	}
}

func TestSend_DiscordFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// URL containing "discord" triggers Discord format
	s := NewSender(srv.URL+"/discord/webhook", "StocksBot", zerolog.Nop())
	s.Send(context.Background(), "poller stopped")

	if received["content"] != "[StocksBot] poller stopped" {
		t.Fatalf("content: got %q", received["content"])
	}
	if received["username"] != "StocksBot" {
		t.Fatalf("username: got %s", received["username"])
	}
	if _, hasText := received["text"]; hasText {
		t.Fatal("Discord payload should not have 'text' field")
	}
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "TestApp", zerolog.Nop())
	s.retry.Sleep = noSleep
	s.Send(context.Background(), "retry me")

	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestSend_WebhookError(t *testing.T) {
	s := NewSender("http://localhost:1/bogus", "TestApp", zerolog.Nop())
	s.retry.Sleep = noSleep
	// Should not panic, just log the error
	s.Send(context.Background(), "this will fail gracefully")
}

func TestDefaultAppName(t *testing.T) {
	s := NewSender("", "", zerolog.Nop())
	if s.appName != "StocksBackend" {
		t.Fatalf("expected default app name, got %s", s.appName)
	}
}
