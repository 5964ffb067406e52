package repository

import (
	"fmt"
	"skill_assess_backend/internal/model"
	"skill_assess_backend/internal/util"
	"sync"
)

// TestRepository stores generated tests. Writers only insert; an existing
// entry is never replaced.
type TestRepository interface {
	Put(test *model.Test) error
	Get(id string) (*model.Test, bool)
	Count() int
}

// MemoryTestRepository keeps tests for the lifetime of the process.
type MemoryTestRepository struct {
	mu    sync.RWMutex
	tests map[string]*model.Test
}

var _ TestRepository = (*MemoryTestRepository)(nil)

func NewMemoryTestRepository() *MemoryTestRepository {
	return &MemoryTestRepository{tests: make(map[string]*model.Test)}
}

func (r *MemoryTestRepository) Put(test *model.Test) error {
	if test == nil || test.ID == "" {
		return fmt.Errorf("put test: missing id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tests[test.ID]; exists {
		return fmt.Errorf("put test %s: %w", test.ID, util.ErrTestExists)
	}
	r.tests[test.ID] = test.Clone()
	return nil
}

// Get returns a copy so callers cannot mutate the stored test.
func (r *MemoryTestRepository) Get(id string) (*model.Test, bool) {
	r.mu.RLock()
	t, ok := r.tests[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (r *MemoryTestRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tests)
}
