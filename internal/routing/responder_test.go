package routing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteError_JSONForAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/unions", nil)
	WriteError(rec, req, RouteClassAPI, http.StatusBadRequest, "bad_json", "bad json")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("err=%v", err)
	}
	if env.Code != "bad_json" || env.Meta.Path != "/api/unions" || env.Meta.Method != http.MethodGet {
		t.Fatalf("env=%+v", env)
	}
}

func TestWriteError_PlainForUI(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whatever", nil)
	WriteError(rec, req, RouteClassUI, http.StatusNotFound, "not_found", "not found")

	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("content-type=%q", got)
	}
}

func TestWriteError_TraceID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/unions", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	WriteError(rec, req, RouteClassAPI, http.StatusBadRequest, "x", "x")

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("err=%v", err)
	}
	if env.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace=%q", env.TraceID)
	}
}

func TestWriteError_BadTraceparentIgnored(t *testing.T) {
	for _, tp := range []string{"", "junk", "00-zzzz-span-01", "00-00000000000000000000000000000000-span-01"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/unions", nil)
		req.Header.Set("traceparent", tp)
		WriteError(rec, req, RouteClassAPI, http.StatusBadRequest, "x", "x")

		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("err=%v", err)
		}
		if env.TraceID != "" {
			t.Fatalf("traceparent=%q trace=%q", tp, env.TraceID)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "u1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"u1"`) {
		t.Fatalf("body=%q", rec.Body.String())
	}
}
