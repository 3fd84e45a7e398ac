package lexicon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/stockbind/backend/internal/domain"
)

type countingLoader struct {
	calls    atomic.Int32
	keywords map[domain.LexiconLevel][]string
	err      error
}

func (l *countingLoader) LexiconKeywords(ctx context.Context, brand string, level domain.LexiconLevel) ([]string, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return l.keywords[level], nil
}

func TestCache_LoadsOncePerKey(t *testing.T) {
	loader := &countingLoader{keywords: map[domain.LexiconLevel][]string{
		domain.LevelBroad:   {"Beadnell", "wax", " bedale "},
		domain.LevelPrecise: {"quilted"},
	}}
	cache := NewCache(loader, zerolog.Nop())
	ctx := context.Background()

	first := cache.Load(ctx, "Barbour", domain.LevelBroad)
	second := cache.Load(ctx, "barbour", domain.LevelBroad)

	assert.Len(t, first, 3)
	assert.Contains(t, first, "beadnell")
	assert.Contains(t, first, "bedale")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), loader.calls.Load())

	cache.Load(ctx, "barbour", domain.LevelPrecise)
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, 2, len(cache.sets))
}

func TestCache_FailsOpenWithoutCaching(t *testing.T) {
	loader := &countingLoader{err: errors.New("connection refused")}
	cache := NewCache(loader, zerolog.Nop())
	ctx := context.Background()

	set := cache.Load(ctx, "barbour", domain.LevelBroad)
	assert.Empty(t, set)
	assert.Equal(t, 0, len(cache.sets))

	cache.Load(ctx, "barbour", domain.LevelBroad)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCache_Filter(t *testing.T) {
	loader := &countingLoader{keywords: map[domain.LexiconLevel][]string{
		domain.LevelBroad: {"beadnell", "wax"},
	}}
	cache := NewCache(loader, zerolog.Nop())
	ctx := context.Background()

	got := cache.Filter(ctx, "barbour", domain.LevelBroad, []string{"beadnell", "wax", "olive"})
	assert.Equal(t, []string{"beadnell", "wax"}, got)

	// Empty lexicon falls back to raw tokens
	got = cache.Filter(ctx, "barbour", domain.LevelPrecise, []string{"beadnell", "olive"})
	assert.Equal(t, []string{"beadnell", "olive"}, got)
}

func TestCache_ConcurrentLoads(t *testing.T) {
	loader := &countingLoader{keywords: map[domain.LexiconLevel][]string{
		domain.LevelBroad: {"beadnell"},
	}}
	cache := NewCache(loader, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set := cache.Load(context.Background(), "barbour", domain.LevelBroad)
			assert.Contains(t, set, "beadnell")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, len(cache.sets))
	assert.GreaterOrEqual(t, loader.calls.Load(), int32(1))
}
