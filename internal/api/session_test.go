package api

import (
	"fmt"
	"sync"
	"testing"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	store := NewSessionStore()

	store.Create("s1", "Ada", "+1555")

	sess := store.Get("s1")
	if sess == nil {
		t.Fatal("session not found")
	}
	if sess.Name != "Ada" || sess.Phone != "+1555" {
		t.Errorf("session = %+v", sess)
	}
	if store.Get("missing") != nil {
		t.Error("unknown id must return nil")
	}
}

func TestSessionStore_ConcurrentReads(t *testing.T) {
	store := NewSessionStore()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("s%d", i)
		store.Create(id, "user", "+1")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if store.Get(fmt.Sprintf("s%d", i%10)) == nil {
				t.Error("session missing during concurrent read")
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("len = %d, want 10", store.Len())
	}
}
