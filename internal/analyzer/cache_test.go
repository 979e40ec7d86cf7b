package analyzer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

func newResult(path string) *model.DrawingAnalysisResult {
	return &model.DrawingAnalysisResult{FilePath: path}
}

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewResultCache(2)
	c.Put("a.png", newResult("a.png"))
	c.Put("b.png", newResult("b.png"))

	_, ok := c.Get("a.png")
	require.True(t, ok)

	c.Put("c.png", newResult("c.png"))

	_, ok = c.Get("b.png")
	assert.False(t, ok, "b.png should have been evicted")
	_, ok = c.Get("a.png")
	assert.True(t, ok)
	_, ok = c.Get("c.png")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestResultCache_ReplacesExisting(t *testing.T) {
	c := NewResultCache(2)
	first := newResult("a.png")
	second := newResult("a.png")

	c.Put("a.png", first)
	c.Put("a.png", second)

	got, ok := c.Get("a.png")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, c.Len())
}

func TestResultCache_Disabled(t *testing.T) {
	for _, size := range []int{0, -5} {
		c := NewResultCache(size)
		c.Put("a.png", newResult("a.png"))

		_, ok := c.Get("a.png")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	}
}

func TestResultCache_Concurrent(t *testing.T) {
	c := NewResultCache(8)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("%d.png", i%12)
			c.Put(path, newResult(path))
			c.Get(path)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 8)
}
