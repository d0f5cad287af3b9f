package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoJSON_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Token") != "abc" {
			http.Error(w, "bad headers", http.StatusBadRequest)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	c := New(time.Second)
	var out map[string]string
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]string{"X-Token": "abc"}, map[string]string{"msg": "hi"}, &out)
	if err != nil || out["echo"] != "hi" {
		t.Fatalf("unexpected result %v %v", out, err)
	}
}

func TestDoJSON_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable || httpErr.Body != "down" || !httpErr.Temporary() {
		t.Fatalf("expected temporary HTTPError, got %v", err)
	}
}

func TestDoJSON_RequiresAbsoluteURL(t *testing.T) {
	if err := New(0).DoJSON(context.Background(), http.MethodGet, "/hooks", nil, nil, nil); err == nil {
		t.Fatalf("expected error for relative url")
	}
}
