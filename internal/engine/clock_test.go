package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallClock_Microseconds(t *testing.T) {
	before := time.Now().UnixMicro()
	now := WallClock{}.Now()
	after := time.Now().UnixMicro()

	assert.GreaterOrEqual(t, now, before)
	assert.LessOrEqual(t, now, after)
}

func TestClockFunc(t *testing.T) {
	c := ClockFunc(func() int64 { return 42 })
	assert.Equal(t, int64(42), c.Now())
}
