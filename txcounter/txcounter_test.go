package txcounter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonotonic(t *testing.T) {
	c := New()
	a := c.Next()
	b := c.Next()
	assert.Equal(t, uint32(1), a)
	assert.Equal(t, uint32(2), b)
}

func TestConcurrentUniqueness(t *testing.T) {
	c := New()
	const n = 200
	seen := make([]uint32, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			seen[i] = c.Next()
		}()
	}
	wg.Wait()

	set := make(map[uint32]bool, n)
	for _, v := range seen {
		set[v] = true
	}
	assert.Len(t, set, n, "every transaction id must be unique")
}
