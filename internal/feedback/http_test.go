package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPRelayRecord(t *testing.T) {
	var got Interaction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/interactions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	relay := NewHTTPRelay(srv.URL + "/")
	err := relay.Record(context.Background(), Interaction{Question: "q", Response: "r", Context: "c"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if got.Question != "q" || got.Response != "r" || got.Context != "c" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestHTTPRelayRecordServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	relay := NewHTTPRelay(srv.URL)
	if err := relay.Record(context.Background(), Interaction{Question: "q"}); err == nil {
		t.Fatalf("expected error on 500 response")
	}
}

func TestHTTPRelayStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Stats{TotalInteractions: 12, TrainingRuns: 3, AverageReward: 0.75})
	}))
	defer srv.Close()

	stats, err := NewHTTPRelay(srv.URL).Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalInteractions != 12 || stats.TrainingRuns != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHTTPRelaySuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"suggestions":["shorter answers","cite sources"]}`))
	}))
	defer srv.Close()

	got, err := NewHTTPRelay(srv.URL).Suggestions(context.Background())
	if err != nil {
		t.Fatalf("suggestions failed: %v", err)
	}
	if len(got) != 2 || got[0] != "shorter answers" {
		t.Fatalf("unexpected suggestions: %v", got)
	}
}

func TestHTTPRelayTrain(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/train" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		called = true
	}))
	defer srv.Close()

	if err := NewHTTPRelay(srv.URL).Train(context.Background()); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if !called {
		t.Fatalf("train endpoint not hit")
	}
}
