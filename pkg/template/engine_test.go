package template

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/twowaysql/pkg/params"
)

func TestEngine_ParseCaches(t *testing.T) {
	e := New()

	first, err := e.Parse("a.sql", "SELECT 1")
	require.NoError(t, err)
	second, err := e.Parse("a.sql", "SELECT 1")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, e.Len())

	_, err = e.Parse("a.sql", "SELECT 2")
	require.NoError(t, err)
	_, err = e.Parse("b.sql", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 3, e.Len())

	e.Invalidate("a.sql")
	assert.Equal(t, 1, e.Len())

	e.Purge()
	assert.Equal(t, 0, e.Len())
}

func TestEngine_ParseErrorNotCached(t *testing.T) {
	e := New()

	_, err := e.Parse("bad.sql", "/*IF pmb.a*/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.sql:1:1")
	assert.Equal(t, 0, e.Len())
}

func TestEngine_RenderUsesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Placeholder = PlaceholderDollar
	e := New(WithConfig(cfg))
	assert.Equal(t, PlaceholderDollar, e.Config().Placeholder)

	res, err := e.Render("q.sql", "WHERE A = /*pmb.a*/1 AND B = /*pmb.b*/2", pmb(map[string]any{"a": 1, "b": 2}))
	require.NoError(t, err)
	assert.Equal(t, "WHERE A = $1 AND B = $2", res.SQL)
}

func TestEngine_ConcurrentRender(t *testing.T) {
	e := New()
	const text = "SELECT * FROM T WHERE /*IF pmb.id != null*/ID = /*pmb.id*/1/*END*/"

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var p params.Map
			if i%2 == 0 {
				p = pmb(map[string]any{"id": i})
			} else {
				p = pmb(map[string]any{"id": nil})
			}

			res, err := e.Render("q.sql", text, p)
			if err != nil {
				errs <- err
				return
			}

			want := "SELECT * FROM T"
			if i%2 == 0 {
				want = "SELECT * FROM T WHERE ID = ?"
			}
			if res.SQL != want {
				errs <- fmt.Errorf("render %d: got %q, want %q", i, res.SQL, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 1, e.Len())
}
