package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newslynx/recipes/internal/schema"
)

type countingLoader struct {
	calls int
	specs map[string]*schema.SousChef
}

func (l *countingLoader) Load(_ context.Context, slug string) (*schema.SousChef, error) {
	l.calls++
	sc, ok := l.specs[slug]
	if !ok {
		return nil, errors.New("not found")
	}
	return sc, nil
}

func newLoader() *countingLoader {
	return &countingLoader{specs: map[string]*schema.SousChef{
		"rss-scraper": {
			Slug: "rss-scraper",
			Options: map[string]schema.OptionSpec{
				"url": {Required: true, ValueTypes: []schema.Type{schema.TypeURL}},
			},
		},
	}}
}

func TestSousChefs_MemoizesLoads(t *testing.T) {
	backends := map[string]func(t *testing.T) Cache{
		"memory": func(t *testing.T) Cache { return NewMemoryCache(DefaultConfig()) },
		"redis": func(t *testing.T) Cache {
			mr := miniredis.RunT(t)
			return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), DefaultConfig())
		},
	}

	for name, newCache := range backends {
		t.Run(name, func(t *testing.T) {
			loader := newLoader()
			scs := NewSousChefs(newCache(t), loader.Load, 0, nil)
			ctx := context.Background()

			first, err := scs.Get(ctx, "rss-scraper")
			require.NoError(t, err)
			second, err := scs.Get(ctx, "rss-scraper")
			require.NoError(t, err)

			assert.Equal(t, 1, loader.calls)
			assert.Equal(t, first.Slug, second.Slug)
			assert.Equal(t, first.Options["url"], second.Options["url"])

			require.NoError(t, scs.Invalidate(ctx, "rss-scraper"))
			_, err = scs.Get(ctx, "rss-scraper")
			require.NoError(t, err)
			assert.Equal(t, 2, loader.calls)
		})
	}
}

func TestSousChefs_LoaderErrorsAreNotCached(t *testing.T) {
	loader := newLoader()
	scs := NewSousChefs(NewMemoryCache(DefaultConfig()), loader.Load, 0, nil)

	_, err := scs.Get(context.Background(), "missing")
	assert.Error(t, err)
	_, err = scs.Get(context.Background(), "missing")
	assert.Error(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestSousChefs_FallsBackWhenCacheIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), DefaultConfig())
	mr.Close()

	loader := newLoader()
	scs := NewSousChefs(c, loader.Load, 0, nil)

	sc, err := scs.Get(context.Background(), "rss-scraper")
	require.NoError(t, err)
	assert.Equal(t, "rss-scraper", sc.Slug)
}
