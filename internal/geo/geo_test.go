package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFirstOfReturnsResult(t *testing.T) {
	got := FirstOf(func() int { return 42 }, time.Second, -1)
	if got != 42 {
		t.Errorf("FirstOf = %d, want 42", got)
	}
}

func TestFirstOfDeadline(t *testing.T) {
	start := time.Now()
	got := FirstOf(func() int {
		time.Sleep(2 * time.Second)
		return 42
	}, 50*time.Millisecond, -1)

	if got != -1 {
		t.Errorf("FirstOf = %d, want fallback -1", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("FirstOf blocked for %v past its deadline", elapsed)
	}
}

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/203.0.113.9/json/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country_name":"Canada","city":"Toronto"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	loc := client.Lookup(context.Background(), "203.0.113.9")

	if loc.Country == nil || *loc.Country != "Canada" {
		t.Errorf("Country = %v, want Canada", loc.Country)
	}
	if loc.City == nil || *loc.City != "Toronto" {
		t.Errorf("City = %v, want Toronto", loc.City)
	}
}

func TestLookupEmptyFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country_name":"","city":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	loc := client.Lookup(context.Background(), "203.0.113.9")

	if loc.Country != nil || loc.City != nil {
		t.Errorf("Lookup = %+v, want both fields nil", loc)
	}
}

func TestLookupErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	loc := client.Lookup(context.Background(), "203.0.113.9")

	if loc.Country != nil || loc.City != nil {
		t.Errorf("Lookup = %+v, want empty location on upstream error", loc)
	}
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"country_name":"Canada","city":"Toronto"}`))
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond)

	start := time.Now()
	loc := client.Lookup(context.Background(), "203.0.113.9")

	if loc.Country != nil || loc.City != nil {
		t.Errorf("Lookup = %+v, want empty location on timeout", loc)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Lookup blocked for %v past the deadline", elapsed)
	}
}
