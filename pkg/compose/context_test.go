package compose

import (
	"fmt"
	"sync"
	"testing"
)

// TestRenderContext tests the basic accessors
func TestRenderContext(t *testing.T) {
	rc := NewRenderContext(Props{"a": 1})

	if v, ok := rc.Get("a"); !ok || v != 1 {
		t.Errorf("Expected a=1, got %v (%v)", v, ok)
	}

	rc.Set("b", 2)
	rc.Delete("a")

	snap := rc.Snapshot()
	if _, ok := snap["a"]; ok {
		t.Error("Expected a to be deleted")
	}
	if snap["b"] != 2 {
		t.Errorf("Expected b=2, got %v", snap["b"])
	}

	snap["c"] = 3
	if _, ok := rc.Get("c"); ok {
		t.Error("Expected snapshot to be a copy")
	}
}

// TestRenderContextMergePropsWin tests that props override context values
func TestRenderContextMergePropsWin(t *testing.T) {
	rc := NewRenderContext(Props{"k": "ctx", "only": "ctx"})
	merged := rc.Merge(Props{"k": "props"})

	if merged["k"] != "props" {
		t.Errorf("Expected props to win, got %v", merged["k"])
	}
	if merged["only"] != "ctx" {
		t.Errorf("Expected context-only key to survive, got %v", merged["only"])
	}
	if v, _ := rc.Get("k"); v != "ctx" {
		t.Errorf("Expected context to be unchanged, got %v", v)
	}
}

// TestRenderContextConcurrentWrites tests that concurrent writers do not race
func TestRenderContextConcurrentWrites(t *testing.T) {
	rc := NewRenderContext(nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.Set(fmt.Sprintf("k%d", i), i)
			rc.Set("shared", i)
			_, _ = rc.Get("shared")
		}()
	}
	wg.Wait()

	if got := len(rc.Snapshot()); got != 51 {
		t.Errorf("Expected 51 keys, got %d", got)
	}
}
