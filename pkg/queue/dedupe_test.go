package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeSetSeenOrAdd(t *testing.T) {
	d := NewDedupeSet(10)

	assert.False(t, d.SeenOrAdd("0x1"))
	assert.True(t, d.SeenOrAdd("0x1"))
	assert.False(t, d.SeenOrAdd("0x2"))
	assert.Equal(t, 2, d.Len())
}

func TestDedupeSetEvictsOldestWhenFull(t *testing.T) {
	d := NewDedupeSet(3)

	d.SeenOrAdd("0x1")
	d.SeenOrAdd("0x2")
	d.SeenOrAdd("0x3")
	assert.Equal(t, 3, d.Len())

	// Inserting a 4th hash evicts 0x1, the oldest.
	assert.False(t, d.SeenOrAdd("0x4"))
	assert.Equal(t, 3, d.Len())
	assert.False(t, d.SeenOrAdd("0x1")) // forgotten, treated as new again
}

func TestDedupeSetDefaultsCapacityWhenNonPositive(t *testing.T) {
	d := NewDedupeSet(0)
	assert.Equal(t, DefaultDedupeCapacity, d.capacity)
}

func TestDedupeSetConcurrentAccessHasNoRace(t *testing.T) {
	d := NewDedupeSet(1000)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.SeenOrAdd(fmt.Sprintf("0x%d", n%20))
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, d.Len(), 20)
}
