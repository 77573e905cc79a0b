package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/shawty-app/shawty/internal/model"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(30 * time.Second)

	link := model.Link{ID: "l1", ShortCode: "abc123", LongURL: "https://example.com", Clicks: 7}
	c.Put("abc123", link)

	got, ok := c.Get("abc123")
	if !ok {
		t.Fatal("expected hit right after Put")
	}
	if got.LongURL != link.LongURL || got.Clicks != link.Clicks || got.ID != link.ID {
		t.Errorf("cached link = %+v, want %+v", got, link)
	}
}

func TestMissForUnknownCode(t *testing.T) {
	c := New(30 * time.Second)

	if _, ok := c.Get("nope"); ok {
		t.Error("expected miss for unknown code")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(30 * time.Second)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("abc123", model.Link{LongURL: "https://example.com"})

	current = current.Add(29 * time.Second)
	if _, ok := c.Get("abc123"); !ok {
		t.Error("entry should still be fresh just inside the TTL")
	}

	current = current.Add(1 * time.Second)
	if _, ok := c.Get("abc123"); ok {
		t.Error("entry should be a miss once the TTL has elapsed")
	}
}

func TestPutOverwrites(t *testing.T) {
	c := New(30 * time.Second)

	c.Put("abc123", model.Link{LongURL: "https://old.example.com"})
	c.Put("abc123", model.Link{LongURL: "https://new.example.com"})

	got, ok := c.Get("abc123")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.LongURL != "https://new.example.com" {
		t.Errorf("LongURL = %q, want the overwritten value", got.LongURL)
	}
}

func TestStaleEntryRefreshedByPut(t *testing.T) {
	c := New(30 * time.Second)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("abc123", model.Link{LongURL: "https://example.com"})
	current = current.Add(time.Minute)

	if _, ok := c.Get("abc123"); ok {
		t.Fatal("entry should be stale")
	}

	c.Put("abc123", model.Link{LongURL: "https://example.com"})
	if _, ok := c.Get("abc123"); !ok {
		t.Error("Put should restamp the entry")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Put("hot", model.Link{LongURL: "https://example.com", Clicks: int64(j)})
				if link, ok := c.Get("hot"); ok && link.LongURL != "https://example.com" {
					t.Errorf("read tore: %+v", link)
					return
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
