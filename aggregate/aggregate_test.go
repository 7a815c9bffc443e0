package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dszqbsm/rentmonitor/dataset"
	"github.com/dszqbsm/rentmonitor/listing"
	"github.com/dszqbsm/rentmonitor/storage"
)

var layout = storage.Layout{Source: "vivareal", City: "florianopolis"}

type fakeSink struct {
	resets int
	saved  []listing.Formatted
	flush  int
}

func (f *fakeSink) Reset() error {
	f.resets++
	f.saved = nil
	return nil
}

func (f *fakeSink) Save(rows ...listing.Formatted) error {
	f.saved = append(f.saved, rows...)
	return nil
}

func (f *fakeSink) Flush() error {
	f.flush++
	return nil
}

// 三天的formatted文件，分别有10、15、7行；同一个id每天都出现
func seed(t *testing.T, store storage.Store, format dataset.Format) {
	t.Helper()
	days := map[string]int{"2023-11-26": 10, "2023-11-27": 15, "2023-11-28": 7}
	for date, n := range days {
		ts, err := time.Parse(storage.DateLayout, date)
		require.NoError(t, err)
		rows := make([]listing.Formatted, n)
		for i := range rows {
			rows[i] = listing.Formatted{
				CaptureTimestamp: ts,
				Source:           "vivareal",
				ListingID:        int64(i + 1),
				City:             "florianopolis",
				Price:            listing.Float(float64(1000 + i)),
				Category:         listing.CategoryResidential,
			}
		}
		data, err := dataset.Encode(format, rows)
		require.NoError(t, err)
		require.NoError(t, store.Put(context.Background(), layout.FormattedKey(date, format.Ext()), data))
	}
}

func TestRunConcatenates(t *testing.T) {
	for _, format := range []dataset.Format{dataset.FormatParquet, dataset.FormatCSV} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemory()
			seed(t, store, format)
			require.NoError(t, store.Put(ctx, layout.FormattedPrefix()+"notes.txt", []byte("x")))

			res, err := New(store, layout, format).Run(ctx, ModeWrite)
			require.NoError(t, err)
			assert.Len(t, res.Rows, 32)
			assert.Equal(t, []string{
				layout.FormattedKey("2023-11-26", format.Ext()),
				layout.FormattedKey("2023-11-27", format.Ext()),
				layout.FormattedKey("2023-11-28", format.Ext()),
			}, res.Files)
			assert.Equal(t, fmt.Sprintf("pipeline/curated/vivareal/florianopolis/listings_history.%s", format), res.Key)

			data, err := store.Get(ctx, res.Key)
			require.NoError(t, err)
			curated, err := dataset.Decode[listing.Formatted](format, data)
			require.NoError(t, err)
			assert.Len(t, curated, 32)

			ids := 0
			for _, r := range curated {
				if r.ListingID == 1 {
					ids++
				}
			}
			assert.Equal(t, 3, ids)
		})
	}
}

func TestRunReturnDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store, dataset.FormatParquet)

	res, err := New(store, layout, dataset.FormatParquet).Run(ctx, ModeReturn)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 32)
	assert.Empty(t, res.Key)

	_, err = store.Get(ctx, layout.CuratedKey("parquet"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	seed(t, store, dataset.FormatCSV)

	sink := &fakeSink{}
	res, err := New(store, layout, dataset.FormatCSV, WithSink(sink)).Run(ctx, ModeSQL)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 32)
	assert.Equal(t, 1, sink.resets)
	assert.Equal(t, 1, sink.flush)
	assert.Len(t, sink.saved, 32)
}

func TestRunRejectsBadMode(t *testing.T) {
	ctx := context.Background()
	a := New(storage.NewMemory(), layout, dataset.FormatParquet)

	_, err := a.Run(ctx, Mode("print"))
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = a.Run(ctx, ModeSQL)
	assert.ErrorIs(t, err, ErrNoSink)

	_, err = ParseMode("bogus")
	assert.ErrorIs(t, err, ErrUnknownMode)
	m, err := ParseMode("SQL")
	require.NoError(t, err)
	assert.Equal(t, ModeSQL, m)
}

func TestRunEmpty(t *testing.T) {
	res, err := New(storage.NewMemory(), layout, dataset.FormatCSV).Run(context.Background(), ModeWrite)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Files)
}

func TestRunDecodesEachFileByExtension(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	put := func(date string, format dataset.Format, n int) {
		ts, err := time.Parse(storage.DateLayout, date)
		require.NoError(t, err)
		rows := make([]listing.Formatted, n)
		for i := range rows {
			rows[i] = listing.Formatted{CaptureTimestamp: ts, Source: "vivareal", ListingID: int64(i + 1), City: "florianopolis"}
		}
		data, err := dataset.Encode(format, rows)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, layout.FormattedKey(date, format.Ext()), data))
	}
	put("2023-11-26", dataset.FormatParquet, 2)
	put("2023-11-27", dataset.FormatCSV, 3)
	// 同一日期两种格式并存时只读与输出格式相同的文件
	put("2023-11-28", dataset.FormatParquet, 4)
	put("2023-11-28", dataset.FormatCSV, 4)

	res, err := New(store, layout, dataset.FormatCSV).Run(ctx, ModeWrite)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 9)
	assert.Equal(t, []string{
		layout.FormattedKey("2023-11-26", "parquet"),
		layout.FormattedKey("2023-11-27", "csv"),
		layout.FormattedKey("2023-11-28", "csv"),
	}, res.Files)

	data, err := store.Get(ctx, res.Key)
	require.NoError(t, err)
	curated, err := dataset.Decode[listing.Formatted](dataset.FormatCSV, data)
	require.NoError(t, err)
	assert.Len(t, curated, 9)
}
