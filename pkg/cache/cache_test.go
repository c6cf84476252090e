package cache

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

func results(names ...string) []complexity.Result {
	out := make([]complexity.Result, len(names))
	for i, name := range names {
		out[i] = complexity.Result{Function: name, Complexity: i + 1, Terminals: 1, Blocks: i + 1, Reachable: i + 1}
	}
	return out
}

func TestLRUCache_Basic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", "a.go", results("fa"))
	c.Set("b", "b.go", results("fb", "gb"))
	c.Set("c", "c.go", results("fc"))

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, results("fa"), val)

	val, found = c.Get("b")
	require.True(t, found)
	require.Len(t, val, 2)
	assert.Equal(t, "gb", val[1].Function)
}

func TestLRUCache_LRU_Eviction(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", "a.go", results("fa"))
	c.Set("b", "b.go", results("fb"))
	c.Set("c", "c.go", results("fc"))

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", "d.go", results("fd"))

	assert.Equal(t, 3, c.Len())

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	_, found = c.Get("a")
	assert.True(t, found, "a should still be present")

	_, found = c.Get("c")
	assert.True(t, found, "c should still be present")

	_, found = c.Get("d")
	assert.True(t, found, "d should be present")
}

func TestLRUCache_OnEvict(t *testing.T) {
	var evicted []string
	c := New(Options{MaxSize: 1, OnEvict: func(key string, e Entry) {
		evicted = append(evicted, key+"="+e.Source)
	}})

	c.Set("a", "a.go", results("fa"))
	c.Set("b", "b.go", results("fb"))
	c.Set("c", "c.go", results("fc"))

	assert.Equal(t, []string{"a=a.go", "b=b.go"}, evicted)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_Lookup(t *testing.T) {
	c := New(Options{})
	c.Set("a", "a.go", results("fa"))

	e, err := c.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "a", e.Key)
	assert.Equal(t, "a.go", e.Source)
	assert.False(t, e.CreatedAt.IsZero())

	_, err = c.Lookup("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.Equal(t, 1, stats.Length)
}

func TestLRUCache_Clear(t *testing.T) {
	c := New(Options{})
	c.Set("a", "a.go", results("fa"))
	c.Set("b", "b.go", results("fb"))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().CurrentBytes)
}

func TestLRUCache_Update(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", "a.go", results("old"))
	before := c.Stats().CurrentBytes
	c.Set("a", "a.go", results("renamed", "added"))

	assert.Equal(t, 1, c.Len())
	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "renamed", val[0].Function)
	assert.Greater(t, c.Stats().CurrentBytes, before)
}

func TestLRUCache_MaxBytes(t *testing.T) {
	one := int64(estimateSize("a.go", results("fa")))
	c := New(Options{MaxBytes: one * 2})

	c.Set("a", "a.go", results("fa"))
	c.Set("b", "b.go", results("fb"))
	c.Set("c", "c.go", results("fc"))

	assert.Equal(t, 2, c.Len())
	assert.LessOrEqual(t, c.Stats().CurrentBytes, one*2)
	_, found := c.Get("a")
	assert.False(t, found, "a should have been evicted")
}

func TestLRUCache_MaxBytes_KeepsOversizedEntry(t *testing.T) {
	c := New(Options{MaxBytes: 1})
	c.Set("a", "a.go", results("fa"))

	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_SaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	classical := 2
	res := results("fa", "fb")
	res[1].Classical = &classical
	res[1].Trace = []complexity.Event{{Kind: complexity.EventTerminal, From: 0, To: -1}}

	c.Set("a", "a.go", res)
	c.Set("b", "b.py", results("fc"))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	loaded := New(Options{MaxSize: 10})
	require.NoError(t, loaded.Load(&buf))

	assert.Equal(t, 2, loaded.Len())
	got, found := loaded.Get("a")
	require.True(t, found)
	require.Len(t, got, 2)
	require.NotNil(t, got[1].Classical)
	assert.Equal(t, 2, *got[1].Classical)
	assert.Equal(t, res[1].Trace, got[1].Trace)
	assert.Equal(t, c.Stats().CurrentBytes, loaded.Stats().CurrentBytes)
}

func TestLRUCache_LoadKeepsRecency(t *testing.T) {
	c := New(Options{})
	c.Set("a", "a.go", results("fa"))
	c.Set("b", "b.go", results("fb"))
	c.Get("a")

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	// Only the most recently used entry survives the smaller limit.
	loaded := New(Options{MaxSize: 1})
	require.NoError(t, loaded.Load(&buf))

	_, found := loaded.Get("a")
	assert.True(t, found)
	_, found = loaded.Get("b")
	assert.False(t, found)
}

func TestLRUCache_LoadInvalid(t *testing.T) {
	c := New(Options{})
	err := c.Load(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)
}

func TestPersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.msgpack")

	c := New(Options{})
	c.Set("a", "a.go", results("fa"))
	require.NoError(t, PersistToFile(c, path))

	loaded := New(Options{})
	require.NoError(t, LoadFromFile(loaded, path))
	assert.Equal(t, 1, loaded.Len())
}

func TestPersistedFileDoesNotExist(t *testing.T) {
	c := New(Options{})
	err := LoadFromFile(c, filepath.Join(t.TempDir(), "missing.msgpack"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	content := []byte("define void @f() {\n  ret void\n}\n")
	base := Key("f.ll", content, complexity.DefaultOptions())

	tests := []struct {
		name    string
		source  string
		content []byte
		opts    complexity.Options
		same    bool
	}{
		{"identical", "f.ll", content, complexity.DefaultOptions(), true},
		{"other path same extension", "dir/g.ll", content, complexity.DefaultOptions(), true},
		{"recursive strategy", "f.ll", content, complexity.Options{Strategy: complexity.StrategyRecursive, Parallelism: 4}, true},
		{"other extension", "f.json", content, complexity.DefaultOptions(), false},
		{"other content", "f.ll", append([]byte("; c\n"), content...), complexity.DefaultOptions(), false},
		{"classical", "f.ll", content, complexity.Options{Classical: true}, false},
		{"trace", "f.ll", content, complexity.Options{Trace: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.source, tt.content, tt.opts)
			if tt.same {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := New(Options{MaxSize: 50})
	done := make(chan struct{})
	for w := 0; w < 4; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d-%d", w, i%60)
				c.Set(key, "x.go", results("f"))
				c.Get(key)
			}
		}(w)
	}
	for w := 0; w < 4; w++ {
		<-done
	}
	assert.LessOrEqual(t, c.Len(), 50)
}
