package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Enabled cache ---

func TestResultCache_SetAndGet(t *testing.T) {
	c := New[string](true)

	assert.False(t, c.Has("a"))
	c.Set("a", "value")

	require.True(t, c.Has("a"))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "value", got)
	assert.Equal(t, 1, c.Len())
}

func TestResultCache_GetMissing(t *testing.T) {
	c := New[int](true)

	got, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestResultCache_Clear(t *testing.T) {
	c := New[int](true)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("a"))
}

// --- Disabled cache ---

func TestResultCache_DisabledIsPassThrough(t *testing.T) {
	c := New[string](false)
	c.Set("a", "value")

	assert.False(t, c.Enabled())
	assert.False(t, c.Has("a"))
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

// --- Concurrency ---

func TestResultCache_ConcurrentAccess(t *testing.T) {
	c := New[int](true)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("k", fmt.Sprint(i%5))
			c.Set(key, i)
			_, _ = c.Get(key)
			_ = c.Has(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}

// --- Key ---

func TestKey(t *testing.T) {
	assert.Equal(t, "lineage:ds1:t1", Key("lineage", "ds1", "t1"))
	assert.Equal(t, "datasets", Key("datasets"))
	assert.NotEqual(t, Key("lineage", "ds1", "t1"), Key("lineage", "ds1", "t2"))
	assert.NotEqual(t, Key("lineage", "ds1", "t1"), Key("metadata", "ds1", "t1"))
}

func TestKeyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	ident := gen.Identifier().SuchThat(func(s string) bool {
		return !strings.Contains(s, KeySeparator)
	})

	properties.Property("key is deterministic", prop.ForAll(
		func(tag, ds, tbl string) bool {
			return Key(tag, ds, tbl) == Key(tag, ds, tbl)
		},
		ident, ident, ident,
	))

	properties.Property("different table yields different key", prop.ForAll(
		func(ds, t1, t2 string) bool {
			if t1 == t2 {
				return true
			}
			return Key("lineage", ds, t1) != Key("lineage", ds, t2)
		},
		ident, ident, ident,
	))

	properties.Property("different tool tag yields different key", prop.ForAll(
		func(ds, tbl string) bool {
			return Key("lineage", ds, tbl) != Key("metadata", ds, tbl)
		},
		ident, ident,
	))

	properties.TestingRun(t)
}
