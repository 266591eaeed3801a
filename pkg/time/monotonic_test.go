package time

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockSince(t *testing.T) {
	c := NewClock()

	mark := c.Elapsed()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Since(mark), 5*time.Millisecond)

	// a mark from the future never yields a negative hold
	assert.Equal(t, time.Duration(0), c.Since(c.Elapsed()+time.Hour))
}
