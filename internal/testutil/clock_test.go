package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_StaysPut(t *testing.T) {
	clock := NewFixedClock(100)
	assert.Equal(t, int64(100), clock.Now())
	assert.Equal(t, int64(100), clock.Now())
}

func TestFixedClock_SetAndAdvance(t *testing.T) {
	clock := NewFixedClock(0)

	clock.Set(50)
	assert.Equal(t, int64(50), clock.Now())

	assert.Equal(t, int64(75), clock.Advance(25))
	assert.Equal(t, int64(75), clock.Now())

	clock.Set(10)
	assert.Equal(t, int64(10), clock.Now())
}

func TestFixedClock_ThreadSafe(t *testing.T) {
	clock := NewFixedClock(0)
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(1)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines), clock.Now())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "req-1", NewFixedIDGenerator("req-1").Generate())
	assert.Equal(t, "test-request", NewFixedIDGenerator("").Generate())
}
