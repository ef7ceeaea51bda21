package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// maxSuffixAttempts bounds collision resolution so a pathological directory
// cannot loop forever.
const maxSuffixAttempts = 999

// ErrCollisionExhausted signals that no free name was found within the
// suffix bound.
var ErrCollisionExhausted = errors.New("collision suffix attempts exhausted")

// Registry serializes the check-and-reserve step of filename allocation.
// Workers run concurrently, but a name must be checked against both the
// directory contents and names already reserved in-process (reserved names
// may not be on disk yet) in a single critical section.
type Registry struct {
	mu       sync.Mutex
	reserved map[string]struct{}
}

// NewRegistry creates an empty registry. One registry is shared by all
// workers of a run.
func NewRegistry() *Registry {
	return &Registry{reserved: make(map[string]struct{})}
}

// Reserve returns a free path under dir for the proposed filename, appending
// " (2)", " (3)", ... before the extension until an unused name is found.
func (r *Registry) Reserve(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 1; attempt <= maxSuffixAttempts; attempt++ {
		name := filename
		if attempt > 1 {
			name = fmt.Sprintf("%s (%d)%s", base, attempt, ext)
		}
		candidate := filepath.Join(dir, name)
		if _, taken := r.reserved[candidate]; taken {
			continue
		}
		_, err := os.Stat(candidate)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		r.reserved[candidate] = struct{}{}
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %s in %s", ErrCollisionExhausted, filename, dir)
}
