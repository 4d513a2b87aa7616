package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/formpay/formpay/internal/gateway/domain"
)

func TestDoJSONDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-client-id") != "client" {
			t.Errorf("missing auth header")
		}
		w.Write([]byte(`{"link_url":"https://pay.test/l1"}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop())
	var out struct {
		LinkURL string `json:"link_url"`
	}
	err := client.DoJSON(context.Background(), http.MethodGet, server.URL, map[string]string{"x-client-id": "client"}, nil, &out)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.LinkURL != "https://pay.test/l1" {
		t.Fatalf("decoded %q", out.LinkURL)
	}
}

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop())
	if err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil, nil); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestDoJSONExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(zap.NewNop())
	err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil, nil)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestDoJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(zap.NewNop())
	err := client.DoJSON(context.Background(), http.MethodPost, server.URL, nil, map[string]string{"a": "b"}, nil)
	if !errors.Is(err, domain.ErrRequestRejected) {
		t.Fatalf("expected ErrRequestRejected, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}
