package naming

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestReserveFreshName(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()

	path, err := reg.Reserve(dir, "rechnung.pdf")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if path != filepath.Join(dir, "rechnung.pdf") {
		t.Fatalf("path = %q", path)
	}
}

func TestReserveSkipsExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rechnung.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "rechnung (2).pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	path, err := reg.Reserve(dir, "rechnung.pdf")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if path != filepath.Join(dir, "rechnung (3).pdf") {
		t.Fatalf("path = %q", path)
	}
}

func TestReserveNeverReturnsSamePathTwice(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()

	first, err := reg.Reserve(dir, "beleg.pdf")
	if err != nil {
		t.Fatal(err)
	}
	// Nothing written to disk yet; a second identical request must still get
	// a distinct suffixed name.
	second, err := reg.Reserve(dir, "beleg.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("both reservations returned %q", first)
	}
	if second != filepath.Join(dir, "beleg (2).pdf") {
		t.Fatalf("second = %q", second)
	}
}

func TestReserveConcurrent(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()

	const workers = 16
	paths := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path, err := reg.Reserve(dir, "identisch.pdf")
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			paths[i] = path
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, workers)
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			t.Fatalf("duplicate reservation %q", path)
		}
		seen[path] = struct{}{}
	}
	if len(seen) != workers {
		t.Fatalf("got %d distinct paths, want %d", len(seen), workers)
	}
}

func TestReserveExhaustsSuffixBound(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()

	var lastErr error
	for i := 0; i <= maxSuffixAttempts; i++ {
		if _, lastErr = reg.Reserve(dir, "voll.pdf"); lastErr != nil {
			break
		}
	}
	if !errors.Is(lastErr, ErrCollisionExhausted) {
		t.Fatalf("expected ErrCollisionExhausted, got %v", lastErr)
	}
}
