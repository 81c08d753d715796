package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func finnhubServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestFinnhub_FetchSeries(t *testing.T) {
	body := `{"c":[10,11,12],"h":[10.5,11.5,12.5],"l":[9.5,10.5,11.5],"o":[10,11,12],"t":[1672531200,1672617600,1672704000],"v":[100,200,300],"s":"ok"}`
	srv, seen := finnhubServer(t, http.StatusOK, body)

	from := time.Unix(1609459200, 0)
	to := time.Unix(1672531200, 0)
	src := NewFinnhubSource(FinnhubOptions{BaseURL: srv.URL, APIKey: "secret", Resolution: "1", From: from, To: to})
	s, err := src.FetchSeries(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 bars, got %d", s.Len())
	}
	if closes := s.Closes(); closes[2] != 12 {
		t.Errorf("unexpected closes %v", closes)
	}
	if s.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}

	q := seen.URL.Query()
	if seen.URL.Path != "/stock/candle" {
		t.Errorf("unexpected path %s", seen.URL.Path)
	}
	want := map[string]string{"symbol": "AAPL", "resolution": "1", "from": "1609459200", "to": "1672531200", "token": "secret"}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("query %s: expected %q, got %q", k, v, q.Get(k))
		}
	}
}

func TestFinnhub_LookbackWindow(t *testing.T) {
	srv, seen := finnhubServer(t, http.StatusOK, `{"s":"no_data"}`)
	src := NewFinnhubSource(FinnhubOptions{BaseURL: srv.URL, Lookback: time.Hour})
	fixed := time.Unix(1700000000, 0)
	src.now = func() time.Time { return fixed }

	src.FetchSeries(context.Background(), "MSFT")
	q := seen.URL.Query()
	if q.Get("to") != "1700000000" || q.Get("from") != "1699996400" {
		t.Errorf("unexpected window from=%s to=%s", q.Get("from"), q.Get("to"))
	}
	if q.Get("resolution") != "D" {
		t.Errorf("expected default resolution D, got %s", q.Get("resolution"))
	}
}

func TestFinnhub_UnusablePayloads(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"no data status", http.StatusOK, `{"s":"no_data"}`, ErrNoData},
		{"error key", http.StatusOK, `{"error":"You don't have access to this resource."}`, ErrNoData},
		{"http error", http.StatusForbidden, `{"error":"forbidden"}`, ErrNoData},
		{"not json", http.StatusOK, `<html>oops</html>`, ErrMalformed},
		{"mismatched lengths", http.StatusOK, `{"c":[1,2],"h":[1,2],"l":[1,2],"o":[1,2],"t":[1],"v":[1,2],"s":"ok"}`, ErrMalformed},
		{"missing field", http.StatusOK, `{"c":[1],"h":[1],"l":[1],"t":[1],"v":[1],"s":"ok"}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := finnhubServer(t, tt.status, tt.body)
			src := NewFinnhubSource(FinnhubOptions{BaseURL: srv.URL})
			s, err := src.FetchSeries(context.Background(), "AAPL")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !s.Empty() {
				t.Errorf("expected empty series, got %d bars", s.Len())
			}
		})
	}
}

func TestFinnhub_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	src := NewFinnhubSource(FinnhubOptions{BaseURL: url, Timeout: time.Second})
	s, err := src.FetchSeries(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if IsDataError(err) {
		t.Errorf("transport failure classified as data error: %v", err)
	}
	if !s.Empty() {
		t.Error("expected empty series")
	}
}

func TestFinnhub_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	src := NewFinnhubSource(FinnhubOptions{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := src.FetchSeries(ctx, "AAPL"); err == nil {
		t.Fatal("expected deadline error")
	}
	if time.Since(start) > time.Second {
		t.Error("fetch ignored the context deadline")
	}
}
