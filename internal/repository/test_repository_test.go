package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"skill_assess_backend/internal/model"
	"skill_assess_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTest() *model.Test {
	return model.NewTest(model.VariantText, "Go", model.Beginner, []model.Question{
		{ID: "go_text_1", Variant: model.VariantText, Prompt: "Explain goroutines", Points: 3},
	}, false)
}

func TestPutAndGet(t *testing.T) {
	repo := NewMemoryTestRepository()
	test := sampleTest()

	require.NoError(t, repo.Put(test))
	assert.Equal(t, 1, repo.Count())

	got, ok := repo.Get(test.ID)
	require.True(t, ok)
	assert.Equal(t, test, got)

	_, ok = repo.Get("missing")
	assert.False(t, ok)
}

func TestPutIsInsertOnly(t *testing.T) {
	repo := NewMemoryTestRepository()
	test := sampleTest()
	require.NoError(t, repo.Put(test))

	err := repo.Put(test)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrTestExists))

	assert.Error(t, repo.Put(&model.Test{}))
}

func TestStoredTestIsIsolatedFromCallers(t *testing.T) {
	repo := NewMemoryTestRepository()
	test := sampleTest()
	require.NoError(t, repo.Put(test))

	test.Questions[0].Prompt = "changed after put"
	got, _ := repo.Get(test.ID)
	assert.Equal(t, "Explain goroutines", got.Questions[0].Prompt)

	got.Questions[0].Prompt = "changed after get"
	again, _ := repo.Get(test.ID)
	assert.Equal(t, "Explain goroutines", again.Questions[0].Prompt)
}

func TestConcurrentPut(t *testing.T) {
	repo := NewMemoryTestRepository()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			test := sampleTest()
			test.Topic = fmt.Sprintf("topic-%d", i)
			assert.NoError(t, repo.Put(test))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, repo.Count())
}
