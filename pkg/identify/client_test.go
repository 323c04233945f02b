package identify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIdentify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "what is ahead of me" {
			t.Errorf("text: got %q", req.Text)
		}
		json.NewEncoder(w).Encode(map[string]string{"result": "a hallway with a door on the left"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Identify(context.Background(), "what is ahead of me")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got != "a hallway with a door on the left" {
		t.Errorf("result: got %q", got)
	}
}

func TestIdentify_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not loaded"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Identify(context.Background(), "what is this"); err == nil {
		t.Fatal("expected error from service failure")
	}
}

func TestIdentify_EmptyQuestion(t *testing.T) {
	c := NewClient("http://localhost:9/identify")
	if _, err := c.Identify(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty question")
	}
}
