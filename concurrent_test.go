package scopecache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestProducersDoNotBlockEachOther(t *testing.T) {
	own := NewScope(Universe)
	h1, err := own.DefineType("Slow")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := own.DefineType("Fast")
	if err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	cache := New(own, func(handle *TypeHandle) (int, error) {
		if handle == h1 {
			close(entered)
			<-release
			return 1, nil
		}
		return 2, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := cache.Get(h1); err != nil {
			t.Error(err)
		}
	}()

	// while h1's producer is parked, h2 must still complete
	<-entered
	value, err := cache.Get(h2)
	if err != nil {
		t.Fatal(err)
	}
	if value != 2 {
		t.Fatal()
	}

	close(release)
	<-done
}

func TestAtMostOnceProduction(t *testing.T) {
	scope := NewScope(Universe)
	handle, err := scope.DefineType("Foo")
	if err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int64
	cache := New(nil, func(handle *TypeHandle) (*int, error) {
		value := int(calls.Add(1))
		return &value, nil
	})

	n := 64
	values := make([]*int, n)
	wg := new(sync.WaitGroup)
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			value, err := cache.Get(handle)
			if err != nil {
				t.Error(err)
				return
			}
			values[i] = value
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("got %d producer calls", calls.Load())
	}
	for _, value := range values {
		if value != values[0] {
			t.Fatal("all callers should get the identical value")
		}
	}
}

func TestConcurrentForeignResolution(t *testing.T) {
	cache := New(nil, newCountingProducer())

	scope := NewScope(Universe)
	n := 32
	handles := make([]*TypeHandle, n)
	for i := range n {
		handle, err := scope.DefineType(fmt.Sprintf("Type%d", i))
		if err != nil {
			t.Fatal(err)
		}
		handles[i] = handle
	}

	wg := new(sync.WaitGroup)
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			if _, err := cache.Get(handles[i]); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// racing first lookups must not anchor more than one container
	if scope.NumUnits() != n+1 {
		t.Fatalf("got %d units", scope.NumUnits())
	}
	if len(*cache.registry.snapshot.Load()) != 1 {
		t.Fatal()
	}
}

func TestConcurrentScopes(t *testing.T) {
	cache := New(nil, newCountingProducer())

	n := 16
	wg := new(sync.WaitGroup)
	wg.Add(n)
	scopes := make([]*Scope, n)
	for i := range n {
		scopes[i] = NewScope(Universe)
	}
	for i := range n {
		go func() {
			defer wg.Done()
			handle, err := scopes[i].DefineType("Foo")
			if err != nil {
				t.Error(err)
				return
			}
			first, err := cache.Get(handle)
			if err != nil {
				t.Error(err)
				return
			}
			again, err := cache.Get(handle)
			if err != nil {
				t.Error(err)
				return
			}
			if again != first {
				t.Error("value should be stable per handle")
			}
		}()
	}
	wg.Wait()

	if len(*cache.registry.snapshot.Load()) != n {
		t.Fatal()
	}
}
