package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockedRandConcurrentUse(t *testing.T) {
	rng := NewLockedRand(1)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				n := rng.Intn(100)
				assert.GreaterOrEqual(t, n, 0)
				assert.Less(t, n, 100)
				rng.Float64()
			}
		}()
	}
	wg.Wait()
}

func TestLockedRandDeterministicWhenSerial(t *testing.T) {
	a, b := NewLockedRand(7), NewLockedRand(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}
