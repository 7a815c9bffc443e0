package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	l := Layout{Source: "vivareal", City: "florianopolis"}
	assert.Equal(t, "pipeline/raw/vivareal/florianopolis/2023-11-28/", l.RawPrefix("2023-11-28"))
	assert.Equal(t, "pipeline/raw/vivareal/florianopolis/2023-11-28/aluguel-3.html", l.RawKey("2023-11-28", "aluguel", 3))
	assert.Equal(t, "pipeline/extracted/vivareal/florianopolis/aluguel-2023-11-28.parquet", l.ExtractedKey("2023-11-28", "aluguel", "parquet"))
	assert.Equal(t, "pipeline/formatted/vivareal/florianopolis/formatted-2023-11-28.csv", l.FormattedKey("2023-11-28", "csv"))
	assert.Equal(t, "pipeline/curated/vivareal/florianopolis/listings_history.parquet", l.CuratedKey("parquet"))

	l.Root = "s3root/"
	assert.Equal(t, "s3root/formatted/vivareal/florianopolis/", l.FormattedPrefix())
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, ValidateDate("2023-11-28"))
	for _, d := range []string{"", "28-11-2023", "2023-13-01", "2023-11-28T00:00:00Z"} {
		assert.ErrorIs(t, ValidateDate(d), ErrInvalidDate, d)
	}
}

// 两种实现遵循同一套存取规范
func TestStores(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemory(),
		"dir":    NewDir(t.TempDir()),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			keys, err := s.List(ctx, "pipeline/raw/")
			require.NoError(t, err)
			assert.Empty(t, keys)

			require.NoError(t, s.Put(ctx, "pipeline/raw/a/2.html", []byte("two")))
			require.NoError(t, s.Put(ctx, "pipeline/raw/a/1.html", []byte("one")))
			require.NoError(t, s.Put(ctx, "pipeline/raw/ab.html", []byte("x")))
			require.NoError(t, s.Put(ctx, "pipeline/extracted/b.csv", []byte("y")))

			keys, err = s.List(ctx, "pipeline/raw/a/")
			require.NoError(t, err)
			assert.Equal(t, []string{"pipeline/raw/a/1.html", "pipeline/raw/a/2.html"}, keys)

			keys, err = s.List(ctx, "pipeline/raw/a")
			require.NoError(t, err)
			assert.Equal(t, []string{"pipeline/raw/a/1.html", "pipeline/raw/a/2.html", "pipeline/raw/ab.html"}, keys)

			data, err := s.Get(ctx, "pipeline/raw/a/1.html")
			require.NoError(t, err)
			assert.Equal(t, "one", string(data))

			require.NoError(t, s.Put(ctx, "pipeline/raw/a/1.html", []byte("uno")))
			data, err = s.Get(ctx, "pipeline/raw/a/1.html")
			require.NoError(t, err)
			assert.Equal(t, "uno", string(data))

			_, err = s.Get(ctx, "pipeline/raw/missing.html")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()
	assert.ErrorIs(t, m.Put(ctx, "k", nil), context.Canceled)
	_, err := m.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
