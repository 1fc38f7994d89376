package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = (%q, %v, %v), want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, ok := Cache(c).(Clearer); ok {
		t.Error("a disabled cache has nothing to clear")
	}
}

func TestNullCacheString(t *testing.T) {
	tests := []struct {
		c    *NullCache
		want string
	}{
		{NewNullCache(), "disabled"},
		{Disabled("redis unavailable"), "disabled (redis unavailable)"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "a", []byte("alpha"), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "alpha" {
		t.Errorf("Get(a) = (%q, %v, %v)", data, hit, err)
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorrupt(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || hit || data != nil {
		t.Errorf("corrupt entry Get = (%q, %v, %v), want a miss", data, hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache dir gone after Clear: %v", err)
	}
}

func TestFileCacheCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Set err = %v, want context.Canceled", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("len = %d, want 64", len(h1))
	}

	j1, _ := HashJSON(map[string]int{"a": 1, "b": 2})
	j2, _ := HashJSON(map[string]int{"b": 2, "a": 1})
	if j1 != j2 {
		t.Error("HashJSON should not depend on map order")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	s1 := k.SimilarityKey("h", SimilarityKeyOpts{Kind: "tags"})
	s2 := k.SimilarityKey("h", SimilarityKeyOpts{Kind: "tags", IDF: true})
	if s1 == s2 {
		t.Error("IDF should change the similarity key")
	}
	if !strings.HasPrefix(s1, "similarity:") {
		t.Errorf("SimilarityKey = %q", s1)
	}

	l1 := k.LayoutKey("h", LayoutKeyOpts{Strategy: "cluster", Config: []byte(`{"seed":1}`)})
	l2 := k.LayoutKey("h", LayoutKeyOpts{Strategy: "cluster", Config: []byte(`{"seed":2}`)})
	if l1 == l2 {
		t.Error("layout config should change the layout key")
	}
	if !strings.HasPrefix(l1, "layout:") {
		t.Errorf("LayoutKey = %q", l1)
	}
}

func TestScopedKeyer(t *testing.T) {
	tests := []struct {
		name  string
		inner Keyer
	}{
		{"default inner", NewDefaultKeyer()},
		{"nil inner", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewScopedKeyer(tt.inner, "run:")
			want := "run:" + NewDefaultKeyer().LayoutKey("h", LayoutKeyOpts{})
			if got := k.LayoutKey("h", LayoutKeyOpts{}); got != want {
				t.Errorf("LayoutKey = %q, want %q", got, want)
			}
			if got := k.SimilarityKey("h", SimilarityKeyOpts{}); !strings.HasPrefix(got, "run:similarity:") {
				t.Errorf("SimilarityKey = %q", got)
			}
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"permanent", 1, false, 1, true},
		{"recovers", 2, true, 3, false},
		{"gives up", 5, true, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.retryable {
					return Retryable(ErrNetwork)
				}
				return ErrNetwork
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRedisCacheConfig(t *testing.T) {
	if _, err := NewRedisCache("http://not-redis", ""); err == nil {
		t.Error("non-redis url should fail")
	}
	c, err := NewRedisCache("redis://localhost:6379/2", "landscape:")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if got := c.key("layout:abc"); got != "landscape:layout:abc" {
		t.Errorf("key = %q", got)
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("nil should stay nil")
	}
	if err := classify(redis.Nil); !errors.Is(err, redis.Nil) || IsRetryable(err) {
		t.Errorf("redis.Nil classified as %v", err)
	}
	if err := classify(&netTimeout{}); !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("network error classified as %v", err)
	}
}

type netTimeout struct{}

func (*netTimeout) Error() string   { return "i/o timeout" }
func (*netTimeout) Timeout() bool   { return true }
func (*netTimeout) Temporary() bool { return true }
