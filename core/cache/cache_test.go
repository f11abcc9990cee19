package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tacwriter/tac/core/model"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	config := Config{
		MaxSize: 3,
		TTL:     0,
	}
	cache := NewLRUCache[string, int](config)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := cache.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v; want 2, true", v, ok)
	}

	if _, ok := cache.Get("d"); ok {
		t.Error("Get(d) should return false")
	}
	if n := cache.Len(); n != 3 {
		t.Errorf("Len() = %d; want 3", n)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	config := Config{
		MaxSize: 2,
		TTL:     0,
	}
	cache := NewLRUCache[string, int](config)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3) // Should evict "a" (least recently used)

	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after eviction")
	}
	if _, ok := cache.Get("b"); !ok {
		t.Error("Get(b) should survive eviction")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("Get(c) should be present")
	}

	stats := cache.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d; want 1", stats.Evictions)
	}
}

func TestLRUCache_AccessPromotes(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 2})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Get("a")    // promote "a"
	cache.Put("c", 3) // should evict "b" now

	if _, ok := cache.Get("a"); !ok {
		t.Error("Get(a) should survive: it was most recently used")
	}
	if _, ok := cache.Get("b"); ok {
		t.Error("Get(b) should have been evicted")
	}
}

func TestLRUCache_TTL(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 10, TTL: 10 * time.Millisecond})

	cache.Put("a", 1)
	if _, ok := cache.Get("a"); !ok {
		t.Error("Get(a) should succeed before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should fail after expiry")
	}
}

func TestLRUCache_OnEvict(t *testing.T) {
	var evicted []string
	cache := NewLRUCache[string, int](Config{
		MaxSize: 1,
		OnEvict: func(key, value interface{}) {
			evicted = append(evicted, key.(string))
		},
	})

	cache.Put("a", 1)
	cache.Put("b", 2)

	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("evicted = %v; want [a]", evicted)
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 100})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%20)
				cache.Put(key, n)
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 100 {
		t.Errorf("Len() = %d; want <= 100", cache.Len())
	}
}

func TestDocumentCache(t *testing.T) {
	dc := NewDefaultDocumentCache()

	doc := model.NewDocument("Essay")
	dc.Put(doc)

	got, ok := dc.Get(doc.ID)
	if !ok {
		t.Fatal("Get should find the cached document")
	}
	if got.Name != "Essay" {
		t.Errorf("Name = %q; want %q", got.Name, "Essay")
	}

	dc.Remove(doc.ID)
	if _, ok := dc.Get(doc.ID); ok {
		t.Error("Get should miss after Remove")
	}

	dc.Put(doc)
	dc.Clear()
	if dc.Len() != 0 {
		t.Errorf("Len() after Clear = %d; want 0", dc.Len())
	}

	// nil documents are ignored
	dc.Put(nil)
	if dc.Len() != 0 {
		t.Error("Put(nil) should be a no-op")
	}
}
