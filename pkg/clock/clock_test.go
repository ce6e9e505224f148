package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsedWrapsAround(t *testing.T) {
	assert.Equal(t, uint32(100), Elapsed(1000, 1100))
	assert.Equal(t, uint32(20), Elapsed(0xFFFFFFF6, 10))
	assert.Equal(t, uint32(0), Elapsed(42, 42))
}

func TestMicros(t *testing.T) {
	assert.Equal(t, uint32(0), Micros(-time.Second))
	assert.Equal(t, uint32(10), Micros(10*time.Microsecond))
	assert.Equal(t, uint32(0), Micros(999*time.Nanosecond))
	assert.Equal(t, uint32(1000000), Micros(time.Second))
	assert.Equal(t, uint32(1<<32-1), Micros(2*time.Hour))
}

func TestMonotonicSleep(t *testing.T) {
	c := New()

	start := c.Micros()
	c.Sleep(200 * time.Microsecond)
	assert.GreaterOrEqual(t, Elapsed(start, c.Micros()), uint32(200))

	start = c.Micros()
	c.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, Elapsed(start, c.Micros()), uint32(2000))

	// negative delays return immediately
	c.Sleep(-time.Second)
}
