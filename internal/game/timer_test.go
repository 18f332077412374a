package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlines_FiresOnce(t *testing.T) {
	d := NewDeadlines(discard)

	var fired atomic.Int32
	var gotIndex atomic.Int32
	d.Arm("111111", 3, 10*time.Millisecond, func(code string, index int) {
		gotIndex.Store(int32(index))
		fired.Add(1)
	})

	waitFor(t, func() bool { return fired.Load() == 1 })
	assert.Equal(t, int32(3), gotIndex.Load())
	assert.Equal(t, 0, d.Pending())
}

func TestDeadlines_ReplaceAndCancel(t *testing.T) {
	d := NewDeadlines(discard)

	var first, second atomic.Int32
	d.Arm("111111", 0, 30*time.Millisecond, func(string, int) { first.Add(1) })
	d.Arm("111111", 1, 10*time.Millisecond, func(string, int) { second.Add(1) })
	assert.Equal(t, 1, d.Pending())

	waitFor(t, func() bool { return second.Load() == 1 })

	d.Arm("222222", 0, 10*time.Millisecond, func(string, int) { first.Add(1) })
	d.Cancel("222222")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, 0, d.Pending())
}
