package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vivatalk/mediator/config"
	"github.com/vivatalk/mediator/domain"
)

func TestTavusClientCreateConversation(t *testing.T) {
	var got domain.VideoSessionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "tv-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost || r.URL.Path != "/conversations" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"conversation_id":"c1","conversation_name":"n","status":"active","conversation_url":"https://tavus.daily.co/c1"}`))
	}))
	defer server.Close()

	client, err := NewTavusClient("tv-key", server.URL, server.Client(), 0)
	if err != nil {
		t.Fatalf("NewTavusClient: %v", err)
	}

	resp, err := client.CreateConversation(context.Background(), domain.VideoSessionRequest{
		ReplicaID:             "r1",
		ConversationName:      "n",
		ConversationalContext: "ctx",
		CustomGreeting:        "hi",
		Properties:            &domain.CallProperties{MaxCallDuration: 3600, EnableClosedCaptions: true},
	})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if resp.ConversationURL != "https://tavus.daily.co/c1" || resp.ConversationID != "c1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got.ReplicaID != "r1" || got.Properties == nil || got.Properties.MaxCallDuration != 3600 || got.Properties.EnableRecording {
		t.Fatalf("request not forwarded: %+v", got)
	}
}

func TestTavusClientGetReplica(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/replicas/r1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"replica_id":"r1","replica_name":"Anna"}`))
	}))
	defer server.Close()

	client, _ := NewTavusClient("k", server.URL, server.Client(), 0)
	replica, err := client.GetReplica(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetReplica: %v", err)
	}
	if replica.Name != "Anna" {
		t.Fatalf("unexpected replica %+v", replica)
	}
}

func TestTavusClientErrorCategories(t *testing.T) {
	cases := map[int]domain.Category{
		http.StatusUnauthorized:        domain.CategoryAuth,
		http.StatusTooManyRequests:     domain.CategoryRateLimited,
		http.StatusServiceUnavailable:  domain.CategoryNetwork,
		http.StatusInternalServerError: domain.CategoryUnknown,
	}
	for status, want := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		client, _ := NewTavusClient("k", server.URL, server.Client(), 0)
		_, err := client.CreateConversation(context.Background(), domain.VideoSessionRequest{})
		server.Close()

		var pe *domain.ProviderError
		if !errors.As(err, &pe) || pe.Category != want {
			t.Fatalf("status %d: expected %s, got %v", status, want, err)
		}
	}
}

func TestTavusClientMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client, _ := NewTavusClient("k", server.URL, server.Client(), 0)
	_, err := client.CreateConversation(context.Background(), domain.VideoSessionRequest{})
	if got := domain.CategoryOf(err); got != domain.CategoryContractViolation {
		t.Fatalf("expected contract violation, got %s", got)
	}
}

func TestNewProviderWithoutKey(t *testing.T) {
	p := NewProvider(context.Background(), config.AvatarConfig{})
	if p.IsConfigured() {
		t.Fatal("expected unconfigured provider")
	}
	if _, err := p.Get(); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
