package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := New()

	_, ok := r.Current("s1")
	assert.False(t, ok)

	r.Set("s1", "M1")
	r.Set("s2", "M2")
	r.Set("s3", "M1")

	id, ok := r.Current("s1")
	assert.True(t, ok)
	assert.Equal(t, "M1", id)

	r.Clear("s2")
	_, ok = r.Current("s2")
	assert.False(t, ok)

	r.Forget("M1")
	_, ok = r.Current("s1")
	assert.False(t, ok)
	_, ok = r.Current("s3")
	assert.False(t, ok)
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("s%d", i)
			r.Set(sid, "M")
			r.Current(sid)
			if i%2 == 0 {
				r.Clear(sid)
			}
		}(i)
	}
	wg.Wait()

	_, ok := r.Current("s1")
	assert.True(t, ok)
	_, ok = r.Current("s2")
	assert.False(t, ok)
}
